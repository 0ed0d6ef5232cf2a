package inference

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/go-rabbits/internal/onnxgen"
)

// testWeights and testBias define the logistic model used by model tests.
var (
	testWeights = []float32{1, -1}
	testBias    = float32(0)
)

// writeModel writes a two-feature logistic classifier and returns its path.
func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classifier.onnx")
	if err := os.WriteFile(path, onnxgen.Logistic(testWeights, testBias), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func openSession(t *testing.T) *Session {
	t.Helper()

	session, err := NewSession(writeModel(t))
	if err != nil {
		// Skip if ONNX runtime is not available
		if isORTUnavailableError(err) {
			t.Skipf("Skipping: ONNX runtime not available: %v", err)
		}
		t.Fatalf("NewSession failed: %v", err)
	}
	return session
}

func TestNewSession_FileNotFound(t *testing.T) {
	_, err := NewSession("../testdata/nonexistent.onnx")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got: %v", err)
	}
}

func TestNewSession_InvalidModel(t *testing.T) {
	path := t.TempDir() + "/junk.onnx"
	if err := os.WriteFile(path, []byte{0xff, 0xff, 0xff}, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewSession(path)
	if !errors.Is(err, ErrInvalidModel) {
		t.Errorf("expected ErrInvalidModel, got: %v", err)
	}
}

func TestSession_Infer(t *testing.T) {
	session := openSession(t)
	defer func() { _ = session.Close() }()

	features := []float32{
		0.1, 0.2,
		0.9, 0.8,
		0.5, 0.5,
	}

	scores, err := session.Infer(context.Background(), features, 3, 2)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	// One positive-class probability per row
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}
	for i := range scores {
		x0, x1 := float64(features[2*i]), float64(features[2*i+1])
		want := sigmoid(x0*float64(testWeights[0]) + x1*float64(testWeights[1]) + float64(testBias))
		if math.Abs(float64(scores[i])-want) > 1e-5 {
			t.Errorf("score[%d] = %v, want %v", i, scores[i], want)
		}
	}
}

func TestSession_OutputSelection(t *testing.T) {
	session := openSession(t)
	defer func() { _ = session.Close() }()

	if session.input != onnxgen.InputName {
		t.Errorf("input = %q, want %q", session.input, onnxgen.InputName)
	}
	if session.output != onnxgen.ProbsName {
		t.Errorf("output = %q, want %q", session.output, onnxgen.ProbsName)
	}
}

func TestSession_Infer_RaggedInput(t *testing.T) {
	session := openSession(t)
	defer func() { _ = session.Close() }()

	_, err := session.Infer(context.Background(), []float32{1, 2, 3}, 2, 2)
	if !errors.Is(err, ErrRaggedFeatures) {
		t.Errorf("expected ErrRaggedFeatures, got: %v", err)
	}
}

func TestSession_Infer_ContextCancellation(t *testing.T) {
	session := openSession(t)
	defer func() { _ = session.Close() }()

	// Create an already-cancelled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Infer(ctx, []float32{0.1, 0.2}, 1, 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled error, got: %v", err)
	}
}

func TestSession_Infer_ContextTimeout(t *testing.T) {
	session := openSession(t)
	defer func() { _ = session.Close() }()

	// Create an already-expired context
	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	_, err := session.Infer(ctx, []float32{0.1, 0.2}, 1, 2)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded error, got: %v", err)
	}
}

func TestSession_Close_Idempotent(t *testing.T) {
	session := openSession(t)

	if err := session.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestSession_Infer_AfterClose(t *testing.T) {
	session := openSession(t)

	if err := session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err := session.Infer(context.Background(), []float32{0.1, 0.2}, 1, 2)
	if err == nil {
		t.Error("expected error when calling Infer on closed session")
	}
}

func TestPositiveScores(t *testing.T) {
	tests := []struct {
		name    string
		data    []float32
		rows    int
		want    []float32
		wantErr bool
	}{
		{"single column", []float32{0.1, 0.7}, 2, []float32{0.1, 0.7}, false},
		{"two columns", []float32{0.9, 0.1, 0.3, 0.7}, 2, []float32{0.1, 0.7}, false},
		{"three columns", []float32{1, 2, 3, 4, 5, 6}, 2, nil, true},
		{"empty", nil, 0, []float32{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PositiveScores(tt.data, tt.rows)
			if tt.wantErr {
				if !errors.Is(err, ErrUnexpectedOutput) {
					t.Errorf("expected ErrUnexpectedOutput, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PositiveScores() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("score[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolveNames(t *testing.T) {
	info := ModelInfo{Inputs: []string{"float_input"}, Outputs: []string{"label", "probabilities"}}

	cfg := resolveNames(info, nil)
	if cfg.input != "float_input" || cfg.output != "probabilities" {
		t.Errorf("resolveNames() = %+v, want float_input/probabilities", cfg)
	}

	cfg = resolveNames(info, []SessionOption{WithOutput("label"), WithInput("x")})
	if cfg.input != "x" || cfg.output != "label" {
		t.Errorf("resolveNames() with options = %+v, want x/label", cfg)
	}

	cfg = resolveNames(ModelInfo{Inputs: []string{"x"}, Outputs: []string{"y"}}, nil)
	if cfg.output != "y" {
		t.Errorf("fallback output = %q, want y", cfg.output)
	}
}

// isORTUnavailableError checks if the error indicates ONNX runtime is not available.
func isORTUnavailableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// Common ONNX runtime unavailability indicators
	return strings.Contains(errStr, "onnxruntime") ||
		strings.Contains(errStr, "shared library") ||
		strings.Contains(errStr, "dylib") ||
		strings.Contains(errStr, ".so") ||
		strings.Contains(errStr, ".dll") ||
		strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "cannot open") ||
		strings.Contains(errStr, "initializing ONNX runtime")
}
