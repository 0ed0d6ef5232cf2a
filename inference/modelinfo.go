package inference

import (
	"fmt"
	"os"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
)

// ONNX protobuf field numbers used when reading model metadata.
const (
	modelProducerName = 2  // ModelProto.producer_name
	modelGraph        = 7  // ModelProto.graph
	graphInitializer  = 5  // GraphProto.initializer
	graphInput        = 11 // GraphProto.input
	graphOutput       = 12 // GraphProto.output
	valueInfoName     = 1  // ValueInfoProto.name
	tensorName        = 8  // TensorProto.name
)

// ModelInfo describes the graph interface of an ONNX model.
type ModelInfo struct {
	Producer string
	Inputs   []string // graph inputs that are not initializers
	Outputs  []string
}

// ReadModelInfo reads the input and output names of an ONNX model file.
func ReadModelInfo(path string) (ModelInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("model file: %w", err)
	}
	return ParseModelInfo(data)
}

// ParseModelInfo decodes the wire format of a serialized ModelProto without
// generated code, keeping only the fields needed to wire a session.
func ParseModelInfo(data []byte) (ModelInfo, error) {
	var info ModelInfo
	var graph []byte

	err := walk(data, func(num protowire.Number, v []byte) error {
		switch num {
		case modelProducerName:
			info.Producer = string(v)
		case modelGraph:
			graph = v
		}
		return nil
	})
	if err != nil {
		return ModelInfo{}, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if graph == nil {
		return ModelInfo{}, fmt.Errorf("%w: no graph", ErrInvalidModel)
	}

	var inputs, initializers []string
	err = walk(graph, func(num protowire.Number, v []byte) error {
		switch num {
		case graphInput, graphOutput:
			name, err := stringField(v, valueInfoName)
			if err != nil {
				return err
			}
			if num == graphInput {
				inputs = append(inputs, name)
			} else {
				info.Outputs = append(info.Outputs, name)
			}
		case graphInitializer:
			name, err := stringField(v, tensorName)
			if err != nil {
				return err
			}
			initializers = append(initializers, name)
		}
		return nil
	})
	if err != nil {
		return ModelInfo{}, fmt.Errorf("%w: graph: %w", ErrInvalidModel, err)
	}

	for _, in := range inputs {
		if !slices.Contains(initializers, in) {
			info.Inputs = append(info.Inputs, in)
		}
	}
	if len(info.Inputs) == 0 || len(info.Outputs) == 0 {
		return ModelInfo{}, fmt.Errorf("%w: graph has no inputs or outputs", ErrInvalidModel)
	}
	return info, nil
}

// walk calls fn for each length-delimited field of a message and skips
// every other wire type.
func walk(b []byte, fn func(num protowire.Number, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if err := fn(num, v); err != nil {
				return err
			}
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func stringField(msg []byte, field protowire.Number) (string, error) {
	var out string
	err := walk(msg, func(num protowire.Number, v []byte) error {
		if num == field {
			out = string(v)
		}
		return nil
	})
	return out, err
}
