package disease

import (
	"context"
	"encoding/json"
	"errors"
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

type diseaseRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &diseaseRepoPG{pool: pool}
}

func (r *diseaseRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const diseaseCols = `id, name, causal_agent, created_at, search_count, hosts`

func scanDisease(row pgx.Row) (*Disease, error) {
	var d Disease
	var hosts []byte
	err := row.Scan(&d.ID, &d.Name, &d.CausalAgent, &d.CreatedAt, &d.SearchCount, &hosts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(hosts) > 0 {
		if err := json.Unmarshal(hosts, &d.Hosts); err != nil {
			return nil, fmt.Errorf("decode hosts for disease %s: %w", d.ID, err)
		}
	}
	return &d, nil
}

func (r *diseaseRepoPG) List(ctx context.Context) ([]*Disease, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+diseaseCols+` FROM diseases ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list diseases: %w", err)
	}
	defer rows.Close()

	var out []*Disease
	for rows.Next() {
		d, err := scanDisease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *diseaseRepoPG) GetByID(ctx context.Context, id string) (*Disease, error) {
	return scanDisease(r.conn(ctx).QueryRow(ctx,
		`SELECT `+diseaseCols+` FROM diseases WHERE id = $1`, id))
}

func (r *diseaseRepoPG) Upsert(ctx context.Context, d *Disease) error {
	hosts, err := json.Marshal(d.Hosts)
	if err != nil {
		return fmt.Errorf("encode hosts: %w", err)
	}

	// created_at is set once on insert; the conflict branch leaves it alone.
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO diseases (id, name, causal_agent, created_at, search_count, hosts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			causal_agent = EXCLUDED.causal_agent,
			search_count = EXCLUDED.search_count,
			hosts = EXCLUDED.hosts,
			updated_at = NOW()`,
		d.ID, d.Name, d.CausalAgent, d.CreatedAt, d.SearchCount, hosts)
	return err
}

func (r *diseaseRepoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM diseases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *diseaseRepoPG) IncrementSearchCount(ctx context.Context, id string) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE diseases SET search_count = search_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING search_count`, id).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return count, err
}
