package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetpath/vetpath/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type adminRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &adminRepoPG{pool: pool}
}

func (r *adminRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const adminCols = `id, username, password_hash, reset_token, reset_token_exp, created_at, updated_at`

func (r *adminRepoPG) scanAdmin(row pgx.Row) (*AdminUser, error) {
	var u AdminUser
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.ResetToken, &u.ResetTokenExp,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &u, err
}

func (r *adminRepoPG) Create(ctx context.Context, u *AdminUser) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admin_users (id, username, password_hash)
		VALUES ($1, $2, $3)`,
		u.ID, u.Username, u.PasswordHash)
	return err
}

func (r *adminRepoPG) GetByUsername(ctx context.Context, username string) (*AdminUser, error) {
	return r.scanAdmin(r.conn(ctx).QueryRow(ctx,
		`SELECT `+adminCols+` FROM admin_users WHERE username = $1`, username))
}

func (r *adminRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AdminUser, error) {
	return r.scanAdmin(r.conn(ctx).QueryRow(ctx,
		`SELECT `+adminCols+` FROM admin_users WHERE id = $1`, id))
}

func (r *adminRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE admin_users SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`, id, passwordHash)
	return err
}

func (r *adminRepoPG) SetResetToken(ctx context.Context, id uuid.UUID, token string, exp time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE admin_users SET reset_token = $2, reset_token_exp = $3, updated_at = NOW()
		WHERE id = $1`, id, token, exp)
	return err
}

func (r *adminRepoPG) GetByResetToken(ctx context.Context, token string) (*AdminUser, error) {
	return r.scanAdmin(r.conn(ctx).QueryRow(ctx,
		`SELECT `+adminCols+` FROM admin_users WHERE reset_token = $1`, token))
}

func (r *adminRepoPG) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE admin_users SET reset_token = NULL, reset_token_exp = NULL, updated_at = NOW()
		WHERE id = $1`, id)
	return err
}
