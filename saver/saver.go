// Package saver persists JSON logs and tables with atomic replacement:
// readers see either the old file or the new one, never a partial write.
package saver

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/renameio/v2"

	"github.com/jamesainslie/go-rabbits/loader"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrNotArray indicates an existing file that is not a JSON array.
	ErrNotArray = errors.New("saver: existing file is not a JSON array")

	// ErrUnsupportedType indicates a table extension SaveFrame cannot write.
	ErrUnsupportedType = errors.New("saver: unsupported file type")
)

// FileMode is the permission used for new files.
const FileMode os.FileMode = 0o644

// mu serializes read-modify-write cycles within this process.
var mu sync.Mutex

// Append adds one item to the JSON array stored at path, creating the file
// when it does not exist.
func Append(path string, item any) error {
	return Extend(path, item)
}

// Extend adds items to the JSON array stored at path, creating the file
// when it does not exist.
func Extend(path string, items ...any) error {
	mu.Lock()
	defer mu.Unlock()

	existing, err := readArray(path)
	if err != nil {
		return err
	}

	for i, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode item %d: %w", i, err)
		}
		existing = append(existing, raw)
	}

	data, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("encode array: %w", err)
	}
	return write(path, data)
}

// readArray returns the elements of the JSON array at path, or none when
// the file does not exist.
func readArray(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: %s", ErrNotArray, path)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if elems == nil {
		elems = []json.RawMessage{}
	}
	return elems, nil
}

// SaveFrame writes a table as csv, tsv or a JSON array of records, chosen
// by the path extension.
func SaveFrame(path string, f *loader.Frame) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		data, err = encodeDelimited(f, ',')
	case ".tsv":
		data, err = encodeDelimited(f, '\t')
	case ".json":
		data, err = encodeRecords(f)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	if err != nil {
		return err
	}
	return write(path, data)
}

func encodeDelimited(f *loader.Frame, comma rune) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma
	if err := w.Write(f.Columns()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(f.Records()); err != nil {
		return nil, fmt.Errorf("write records: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeRecords writes canonical numeric cells as JSON numbers, empty cells
// as null and everything else as strings.
func encodeRecords(f *loader.Frame) ([]byte, error) {
	columns := f.Columns()
	records := f.Records()

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, name := range columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(name)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')

			val, err := cellJSON(rec[j])
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func cellJSON(cell string) ([]byte, error) {
	if cell == "" {
		return []byte("null"), nil
	}
	// Only cells already in canonical number form are written bare, so "007"
	// and "1e3" stay strings.
	if v, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		if num := strconv.FormatFloat(v, 'g', -1, 64); num == cell {
			return []byte(num), nil
		}
	}
	return json.Marshal(cell)
}

func write(path string, data []byte) error {
	if err := renameio.WriteFile(path, data, FileMode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
