package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Pool holds a fixed number of sessions over one classifier. Each Run
// borrows a session for a single batch of rows.
type Pool struct {
	idle chan *Session
	size int

	mu     sync.Mutex
	closed bool
}

// NewPool opens size sessions on the model at modelPath. A size <= 0
// opens one.
func NewPool(modelPath string, size int, opts ...SessionOption) (*Pool, error) {
	size = max(size, 1)
	p := &Pool{
		idle: make(chan *Session, size),
		size: size,
	}

	for i := range size {
		s, err := NewSession(modelPath, opts...)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("opening session %d of %d: %w", i+1, size, err), p.Close())
		}
		p.idle <- s
	}
	return p, nil
}

// Run scores rows [b.Start, b.End) of a row-major matrix that is cols
// values wide, on a session borrowed for the duration of the call.
func (p *Pool) Run(ctx context.Context, features []float32, cols int, b Batch) ([]float32, error) {
	if b.Start < 0 || b.End < b.Start || b.End*cols > len(features) {
		return nil, fmt.Errorf("%w: rows %d-%d of %d values at width %d",
			ErrRaggedFeatures, b.Start, b.End, len(features), cols)
	}

	s, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(s)

	scores, err := s.Infer(ctx, features[b.Start*cols:b.End*cols], b.Len(), cols)
	if err != nil {
		return nil, fmt.Errorf("rows %d-%d: %w", b.Start, b.End, err)
	}
	return scores, nil
}

// Acquire takes an idle session, waiting until one is free, ctx is done or
// the pool is closed.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case s, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release hands a session back. Sessions released after Close, or beyond
// the pool's size, are closed instead.
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}

	// Held across the send so Close cannot close idle underneath it.
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		select {
		case p.idle <- s:
			return
		default:
		}
	}
	_ = s.Close()
}

// Close shuts every idle session. Sessions still borrowed are closed when
// they are released. Calling Close again is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.idle)
	p.mu.Unlock()

	var errs []error
	for s := range p.idle {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// Size is the number of sessions the pool was opened with.
func (p *Pool) Size() int {
	return p.size
}

// Batch is a half-open row range [Start, End).
type Batch struct {
	Start, End int
}

// Len is the number of rows in the batch.
func (b Batch) Len() int {
	return b.End - b.Start
}

// Batches splits n rows into consecutive ranges of at most size rows.
func Batches(n, size int) []Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out []Batch
	for start := 0; start < n; start += size {
		out = append(out, Batch{Start: start, End: min(start+size, n)})
	}
	return out
}
