// Package onnxgen writes small ONNX classifier models for tests and demos.
//
// Models are encoded directly with protowire; only the ModelProto fields
// ONNX Runtime needs to load and run a graph are emitted.
package onnxgen

import (
	"encoding/binary"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Names of the graph inputs and outputs produced by Logistic.
const (
	InputName  = "features"
	LogitName  = "logit"
	ProbsName  = "probabilities"
	irVersion  = 8
	opsetLevel = 13
)

// ONNX enum values.
const (
	tensorFloat  = 1 // TensorProto.DataType.FLOAT
	attributeInt = 2 // AttributeProto.AttributeType.INT
)

// Logistic returns a serialized ModelProto computing
//
//	logit = features · weights + bias
//	probabilities = [1 - sigmoid(logit), sigmoid(logit)]
//
// for a float input of shape [N, len(weights)].
func Logistic(weights []float32, bias float32) []byte {
	f := int64(len(weights))

	graph := concat(
		node("matmul", "MatMul", []string{InputName, "W"}, "xw"),
		node("add", "Add", []string{"xw", "B"}, LogitName),
		node("sigmoid", "Sigmoid", []string{LogitName}, "p"),
		node("complement", "Sub", []string{"one", "p"}, "q"),
		node("concat", "Concat", []string{"q", "p"}, ProbsName, intAttr("axis", 1)),
		bytesField(2, []byte("logistic")), // GraphProto.name
		bytesField(5, tensor("W", []int64{f, 1}, weights)),
		bytesField(5, tensor("B", []int64{1}, []float32{bias})),
		bytesField(5, tensor("one", []int64{1}, []float32{1})),
		bytesField(11, valueInfo(InputName, "N", f)),
		bytesField(12, valueInfo(LogitName, "N", 1)),
		bytesField(12, valueInfo(ProbsName, "N", 2)),
	)

	opset := concat(
		bytesField(1, nil), // default domain
		varintField(2, opsetLevel),
	)

	return concat(
		varintField(1, irVersion),
		bytesField(2, []byte("go-rabbits")),
		bytesField(7, graph),
		bytesField(8, opset),
	)
}

// node encodes a GraphProto.node entry.
func node(name, op string, inputs []string, output string, attrs ...[]byte) []byte {
	var b []byte
	for _, in := range inputs {
		b = append(b, bytesField(1, []byte(in))...)
	}
	b = append(b, bytesField(2, []byte(output))...)
	b = append(b, bytesField(3, []byte(name))...)
	b = append(b, bytesField(4, []byte(op))...)
	for _, a := range attrs {
		b = append(b, bytesField(5, a)...)
	}
	return bytesField(1, b)
}

func intAttr(name string, v int64) []byte {
	return concat(
		bytesField(1, []byte(name)),
		varintField(3, uint64(v)),
		varintField(20, attributeInt),
	)
}

// tensor encodes a float TensorProto with little-endian raw data.
func tensor(name string, dims []int64, data []float32) []byte {
	var b []byte
	for _, d := range dims {
		b = append(b, varintField(1, uint64(d))...)
	}
	b = append(b, varintField(2, tensorFloat)...)
	b = append(b, bytesField(8, []byte(name))...)

	raw := make([]byte, 0, 4*len(data))
	for _, v := range data {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
	}
	return append(b, bytesField(9, raw)...)
}

// valueInfo encodes a float tensor ValueInfoProto of shape [batch, cols].
func valueInfo(name, batch string, cols int64) []byte {
	shape := concat(
		bytesField(1, bytesField(2, []byte(batch))), // dim_param
		bytesField(1, varintField(1, uint64(cols))), // dim_value
	)
	tensorType := concat(
		varintField(1, tensorFloat),
		bytesField(2, shape),
	)
	return concat(
		bytesField(1, []byte(name)),
		bytesField(2, bytesField(1, tensorType)),
	)
}

func bytesField(num protowire.Number, v []byte) []byte {
	b := protowire.AppendTag(nil, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func varintField(num protowire.Number, v uint64) []byte {
	b := protowire.AppendTag(nil, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func concat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
