package exchange

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/vetpath/vetpath/internal/domain/disease"
)

// TxRunner executes fn inside a single transaction. Everything the
// callback writes through the repository commits or rolls back together.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Service wires the flat codec to the registry store.
type Service struct {
	repo   disease.Repository
	inTx   TxRunner
	logger zerolog.Logger
}

func NewService(repo disease.Repository, inTx TxRunner, logger zerolog.Logger) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{repo: repo, inTx: inTx, logger: logger}
}

// Import parses a CSV stream and stores the rebuilt records as one batch.
// A file-level parse failure aborts before anything is written; row-level
// problems degrade and are reported in the returned stats.
func (s *Service) Import(ctx context.Context, r io.Reader) (Stats, error) {
	rows, err := ReadCSV(r)
	if err != nil {
		return Stats{}, fmt.Errorf("parse import file: %w", err)
	}

	records, stats := Unflatten(rows)

	err = s.inTx(ctx, func(ctx context.Context) error {
		for _, d := range records {
			if err := s.repo.Upsert(ctx, d); err != nil {
				return fmt.Errorf("store disease %s: %w", d.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	s.logger.Info().
		Int("rows", len(rows)).
		Int("diseases", stats.Diseases).
		Int("hosts", stats.Hosts).
		Int("conflicts", stats.Conflicts).
		Msg("import complete")
	return stats, nil
}

// Export writes the whole registry as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list diseases: %w", err)
	}
	rows := Flatten(records)
	if err := WriteCSV(w, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
