package prefs

import (
	"context"
	"fmt"

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

type prefsRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &prefsRepoPG{pool: pool}
}

func (r *prefsRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *prefsRepoPG) GetAll(ctx context.Context, clientID string) (map[string]string, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT key, value FROM preferences WHERE client_id = $1`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (r *prefsRepoPG) Set(ctx context.Context, clientID, key, value string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO preferences (client_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (client_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()`,
		clientID, key, value)
	return err
}

func (r *prefsRepoPG) Delete(ctx context.Context, clientID, key string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM preferences WHERE client_id = $1 AND key = $2`, clientID, key)
	return err
}
