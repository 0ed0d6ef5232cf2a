package inference

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of rows sent to the model per run.
const DefaultBatchSize = 256

// Scorer runs batches of feature rows through a session pool in parallel.
type Scorer struct {
	pool      *Pool
	batchSize int
}

// NewScorer creates a Scorer over pool. A batchSize <= 0 selects
// DefaultBatchSize.
func NewScorer(pool *Pool, batchSize int) *Scorer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Scorer{pool: pool, batchSize: batchSize}
}

// Score returns the positive-class score for each row, in input order.
func (s *Scorer) Score(ctx context.Context, rows [][]float64) ([]float64, error) {
	features, cols, err := Flatten(rows)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pool.Size())

	for _, b := range Batches(len(rows), s.batchSize) {
		g.Go(func() error {
			scores, err := s.pool.Run(ctx, features, cols, b)
			if err != nil {
				return err
			}
			for i, v := range scores {
				out[b.Start+i] = float64(v)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Flatten packs rows into a row-major float32 matrix and returns its width.
func Flatten(rows [][]float64) ([]float32, int, error) {
	if len(rows) == 0 {
		return nil, 0, nil
	}
	cols := len(rows[0])
	out := make([]float32, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, 0, fmt.Errorf("%w: row %d has %d values, want %d", ErrRaggedFeatures, i, len(row), cols)
		}
		for _, v := range row {
			out = append(out, float32(v))
		}
	}
	return out, cols, nil
}
