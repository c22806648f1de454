package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetpath/vetpath/internal/platform/db"
)

// ErrDraftNotFound is returned when no draft exists for a session id.
var ErrDraftNotFound = errors.New("draft not found")

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type draftRepoPG struct{ pool *pgxpool.Pool }

func NewDraftRepoPG(pool *pgxpool.Pool) DraftRepository {
	return &draftRepoPG{pool: pool}
}

func (r *draftRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *draftRepoPG) Save(ctx context.Context, sessionID, name string, snapshot []byte) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO drafts (session_id, name, snapshot, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id) DO UPDATE SET
			name = EXCLUDED.name,
			snapshot = EXCLUDED.snapshot,
			updated_at = NOW()`,
		sessionID, name, snapshot)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", sessionID, err)
	}
	return nil
}

func (r *draftRepoPG) Get(ctx context.Context, sessionID string) ([]byte, error) {
	var snapshot []byte
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT snapshot FROM drafts WHERE session_id = $1`, sessionID).Scan(&snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draft %s: %w", sessionID, err)
	}
	return snapshot, nil
}

func (r *draftRepoPG) List(ctx context.Context) ([]DraftRef, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT session_id, name, updated_at FROM drafts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []DraftRef
	for rows.Next() {
		var ref DraftRef
		if err := rows.Scan(&ref.SessionID, &ref.Name, &ref.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *draftRepoPG) Delete(ctx context.Context, sessionID string) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM drafts WHERE session_id = $1`, sessionID)
	return err
}
