//go:build ignore

// Write a demo logistic classifier and a labelled feature file to testdata/.
// Usage: go run ./scripts/make-classifier.go
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jamesainslie/go-rabbits/internal/onnxgen"
	"github.com/jamesainslie/go-rabbits/loader"
	"github.com/jamesainslie/go-rabbits/saver"
)

const (
	outDir = "testdata"
	rows   = 2000
	noise  = 0.25
)

func main() {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", outDir, err)
		os.Exit(1)
	}

	modelPath := filepath.Join(outDir, "classifier.onnx")
	if err := os.WriteFile(modelPath, onnxgen.Logistic([]float32{4, -4}, 0), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing model: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  -> %s\n", modelPath)

	dataPath := filepath.Join(outDir, "rows.csv")
	if err := writeRows(dataPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing rows: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  -> %s (%d rows)\n", dataPath, rows)
}

// writeRows samples two uniform features; the label is positive when
// a - b plus gaussian noise is above zero, so the model is good but not perfect.
func writeRows(path string) error {
	rng := rand.New(rand.NewPCG(1, 2))

	records := make([][]string, rows)
	for i := range records {
		a, b := rng.Float64(), rng.Float64()
		truth := 0
		if a-b+rng.NormFloat64()*noise > 0 {
			truth = 1
		}
		records[i] = []string{
			strconv.FormatFloat(a, 'f', 4, 64),
			strconv.FormatFloat(b, 'f', 4, 64),
			strconv.Itoa(truth),
		}
	}

	f, err := loader.NewFrame([]string{"a", "b", "truth"}, records)
	if err != nil {
		return err
	}
	return saver.SaveFrame(path, f)
}
