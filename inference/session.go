// Package inference scores feature rows with an ONNX binary classifier.
package inference

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortEnvOnce sync.Once
	ortEnvErr  error
	ortLibPath string
)

// SetLibraryPath points ONNX Runtime at a specific shared library. It must
// be called before the first session is created.
func SetLibraryPath(path string) {
	ortLibPath = path
}

// initORT initializes ONNX Runtime environment once.
func initORT() error {
	ortEnvOnce.Do(func() {
		if ortLibPath != "" {
			ort.SetSharedLibraryPath(ortLibPath)
		}
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	input  string
	output string
}

// WithInput names the feature tensor input (default: the model's first input).
func WithInput(name string) SessionOption {
	return func(c *sessionConfig) { c.input = name }
}

// WithOutput names the score output (default: the first output whose name
// mentions "prob", else the first output).
func WithOutput(name string) SessionOption {
	return func(c *sessionConfig) { c.output = name }
}

// Session wraps an ONNX Runtime session for classifier inference.
type Session struct {
	session *ort.DynamicAdvancedSession
	input   string
	output  string
	mu      sync.Mutex
	closed  bool
}

// NewSession creates a new ONNX session from a model file.
func NewSession(modelPath string, opts ...SessionOption) (*Session, error) {
	// Check file exists
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	info, err := ReadModelInfo(modelPath)
	if err != nil {
		return nil, err
	}
	cfg := resolveNames(info, opts)

	if err := initORT(); err != nil {
		return nil, fmt.Errorf("initializing ONNX runtime: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer func() { _ = options.Destroy() }() // Cleanup error doesn't affect success

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{cfg.input},
		[]string{cfg.output},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Session{session: session, input: cfg.input, output: cfg.output}, nil
}

func resolveNames(info ModelInfo, opts []SessionOption) sessionConfig {
	cfg := sessionConfig{input: info.Inputs[0], output: info.Outputs[0]}
	for _, name := range info.Outputs {
		if strings.Contains(strings.ToLower(name), "prob") {
			cfg.output = name
			break
		}
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Infer runs the model on a row-major feature matrix and returns one
// positive-class score per row.
func (s *Session) Infer(ctx context.Context, features []float32, rows, cols int) ([]float32, error) {
	// Check context before expensive operation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if rows*cols != len(features) {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrRaggedFeatures, len(features), rows, cols)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("session is closed")
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(int64(rows), int64(cols)), features)
	if err != nil {
		return nil, fmt.Errorf("creating %s tensor: %w", s.input, err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	// nil entries are allocated by Run
	outputs := []ort.Value{nil}

	if err := s.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("no output produced")
	}
	defer func() { _ = outputs[0].Destroy() }()

	scores, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: output %s is not a float32 tensor", ErrUnexpectedOutput, s.output)
	}

	return PositiveScores(scores.GetData(), rows)
}

// PositiveScores extracts one score per row from a [rows], [rows,1] or
// [rows,2] output; for two columns the second is the positive class.
func PositiveScores(data []float32, rows int) ([]float32, error) {
	out := make([]float32, rows)
	switch len(data) {
	case rows:
		copy(out, data)
	case 2 * rows:
		for i := range out {
			out[i] = data[2*i+1]
		}
	default:
		return nil, fmt.Errorf("%w: %d values for %d rows", ErrUnexpectedOutput, len(data), rows)
	}
	return out, nil
}

// Close releases ONNX resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}
