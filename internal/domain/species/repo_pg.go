package species

import (
	"context"
	"errors"

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

type speciesRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &speciesRepoPG{pool: pool}
}

func (r *speciesRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *speciesRepoPG) List(ctx context.Context) ([]*CustomSpecies, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, label, created_at FROM custom_species ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CustomSpecies
	for rows.Next() {
		var s CustomSpecies
		if err := rows.Scan(&s.ID, &s.Label, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *speciesRepoPG) GetByLabel(ctx context.Context, label string) (*CustomSpecies, error) {
	var s CustomSpecies
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, label, created_at FROM custom_species WHERE label = $1`, label).
		Scan(&s.ID, &s.Label, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *speciesRepoPG) Create(ctx context.Context, s *CustomSpecies) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO custom_species (id, label) VALUES ($1, $2)`, s.ID, s.Label)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
