package inference

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func openPool(t *testing.T, size int) *Pool {
	t.Helper()

	pool, err := NewPool(writeModel(t), size)
	if err != nil {
		if isORTUnavailableError(err) {
			t.Skipf("Skipping: ONNX runtime not available: %v", err)
		}
		t.Fatalf("NewPool failed: %v", err)
	}
	return pool
}

func TestNewPool_Size(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, 1},
		{-5, 1},
		{1, 1},
		{3, 3},
	}

	for _, tt := range tests {
		pool := openPool(t, tt.size)
		if got := pool.Size(); got != tt.want {
			t.Errorf("NewPool(%d).Size() = %d, want %d", tt.size, got, tt.want)
		}
		_ = pool.Close()
	}
}

func TestNewPool_ModelNotFound(t *testing.T) {
	_, err := NewPool("../testdata/nonexistent.onnx", 2)
	if err == nil {
		t.Error("expected error for non-existent model file")
	}
}

func TestPool_AcquireRelease(t *testing.T) {
	pool := openPool(t, 2)
	defer func() { _ = pool.Close() }()

	ctx := context.Background()

	s1, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 1 failed: %v", err)
	}
	s2, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 2 failed: %v", err)
	}

	// Third acquire should block - test with timeout
	ctx3, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = pool.Acquire(ctx3)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}

	pool.Release(s1)

	s3, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 3 failed: %v", err)
	}

	pool.Release(s2)
	pool.Release(s3)

	// Should not panic when releasing nil
	pool.Release(nil)
}

func TestPool_Close(t *testing.T) {
	pool := openPool(t, 1)

	session, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if err := pool.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	// Release after close closes the session instead of pooling it
	pool.Release(session)

	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPool_ConcurrentAccess(t *testing.T) {
	pool := openPool(t, 3)
	defer func() { _ = pool.Close() }()

	ctx := context.Background()
	numGoroutines := 10
	numIterations := 5

	var wg sync.WaitGroup
	var successCount int64
	var errCount int64

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				acquireCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
				session, err := pool.Acquire(acquireCtx)
				cancel()

				if err != nil {
					atomic.AddInt64(&errCount, 1)
					continue
				}

				if _, err := session.Infer(ctx, []float32{0.5, 0.5}, 1, 2); err != nil {
					t.Errorf("Infer failed: %v", err)
				}

				pool.Release(session)
				atomic.AddInt64(&successCount, 1)
			}
		}()
	}

	wg.Wait()

	if successCount == 0 {
		t.Error("expected at least some successful acquire/release cycles")
	}

	t.Logf("Concurrent test completed: %d successes, %d timeouts", successCount, errCount)
}

func TestPool_Run(t *testing.T) {
	pool := openPool(t, 2)
	defer func() { _ = pool.Close() }()

	features := []float32{
		0, 0,
		1, 0,
		0, 1,
		2, 1,
	}
	scores, err := pool.Run(context.Background(), features, 2, Batch{Start: 1, End: 3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("len(scores) = %d, want 2", len(scores))
	}
	for i, want := range []float64{sigmoid(1), sigmoid(-1)} {
		if math.Abs(float64(scores[i])-want) > 1e-5 {
			t.Errorf("scores[%d] = %v, want %v", i, scores[i], want)
		}
	}

	// The borrowed session went back to the pool.
	for range pool.Size() {
		s, err := pool.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire after Run failed: %v", err)
		}
		defer pool.Release(s)
	}
}

func TestPool_RunOutOfRange(t *testing.T) {
	// No sessions are needed: the range is checked before borrowing one.
	pool := &Pool{idle: make(chan *Session), size: 1}
	features := make([]float32, 6)

	tests := []struct {
		name string
		b    Batch
	}{
		{"past end", Batch{Start: 2, End: 4}},
		{"reversed", Batch{Start: 2, End: 1}},
		{"negative", Batch{Start: -1, End: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pool.Run(context.Background(), features, 2, tt.b)
			if !errors.Is(err, ErrRaggedFeatures) {
				t.Errorf("expected ErrRaggedFeatures, got: %v", err)
			}
		})
	}
}

func TestBatch_Len(t *testing.T) {
	if got := (Batch{Start: 4, End: 9}).Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}
}
