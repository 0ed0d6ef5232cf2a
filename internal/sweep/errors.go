package sweep

import "errors"

// ErrUnknownObjective indicates an objective that is not a metric key.
var ErrUnknownObjective = errors.New("sweep: unknown objective metric")
