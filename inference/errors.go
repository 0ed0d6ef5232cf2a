package inference

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrPoolClosed indicates an Acquire on a closed pool.
	ErrPoolClosed = errors.New("inference: pool is closed")

	// ErrInvalidModel indicates the model file exists but is malformed.
	ErrInvalidModel = errors.New("inference: invalid model format")

	// ErrUnexpectedOutput indicates an output tensor that is not one or two
	// scores per row.
	ErrUnexpectedOutput = errors.New("inference: unexpected output shape")

	// ErrRaggedFeatures indicates feature rows of different widths.
	ErrRaggedFeatures = errors.New("inference: feature rows differ in width")
)
