package loader

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Extensions lists the file types Load accepts.
var Extensions = []string{".zip", ".csv", ".tsv", ".json", ".parquet"}

// zipExtensions lists the file types accepted inside a zip archive.
var zipExtensions = []string{".csv", ".tsv", ".json"}

// Load reads a table, choosing the format from the file extension.
// A .zip archive must hold exactly one csv, tsv or json file.
func Load(path string) (*Frame, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(Extensions, ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	switch ext {
	case ".zip":
		return loadZip(path)
	case ".parquet":
		return loadParquet(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	f, err := Read(file, ext)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return f, nil
}

// Read parses a csv, tsv or json stream.
func Read(r io.Reader, ext string) (*Frame, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return readDelimited(r, ',')
	case ".tsv":
		return readDelimited(r, '\t')
	case ".json":
		return readJSON(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
}

// LoadAll loads many files concurrently. Frames are returned in path order;
// the first failure cancels the rest.
func LoadAll(ctx context.Context, paths []string) ([]*Frame, error) {
	frames := make([]*Frame, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := Load(path)
			if err != nil {
				return err
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

// LoadJSON decodes a whole JSON file into v.
func LoadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func loadZip(path string) (*Frame, error) {
	z, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer func() { _ = z.Close() }()

	files := lo.Filter(z.File, func(f *zip.File, _ int) bool {
		return !f.FileInfo().IsDir()
	})
	if len(files) != 1 {
		return nil, fmt.Errorf("%w: %s has %d", ErrMultipleEntries, path, len(files))
	}

	inner := files[0]
	ext := strings.ToLower(filepath.Ext(inner.Name))
	if !slices.Contains(zipExtensions, ext) {
		return nil, fmt.Errorf("%w: %q inside %s", ErrUnsupportedType, ext, path)
	}

	rc, err := inner.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", inner.Name, err)
	}
	defer func() { _ = rc.Close() }()

	f, err := Read(rc, ext)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", inner.Name, err)
	}
	return f, nil
}

func readDelimited(r io.Reader, comma rune) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	if comma == '\t' {
		cr.LazyQuotes = true
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse delimited: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	return NewFrame(records[0], records[1:])
}

// readJSON reads an array of flat records. Columns are the sorted union of
// record keys; a key missing from a record is an empty cell.
func readJSON(r io.Reader) (*Frame, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var objects []map[string]any
	if err := dec.Decode(&objects); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	columns := lo.Uniq(lo.FlatMap(objects, func(o map[string]any, _ int) []string {
		return lo.Keys(o)
	}))
	slices.Sort(columns)

	records := make([][]string, len(objects))
	for i, o := range objects {
		rec := make([]string, len(columns))
		for j, name := range columns {
			cell, err := jsonCell(o[name])
			if err != nil {
				return nil, fmt.Errorf("record %d field %q: %w", i, name, err)
			}
			rec[j] = cell
		}
		records[i] = rec
	}
	return NewFrame(columns, records)
}

func jsonCell(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func loadParquet(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	columns := lo.Map(pf.Schema().Columns(), func(p []string, _ int) string {
		return strings.Join(p, ".")
	})

	var records [][]string
	buf := make([]parquet.Row, 128)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				rec := make([]string, len(columns))
				for _, v := range row {
					if c := v.Column(); c >= 0 && c < len(rec) {
						rec[c] = parquetCell(v)
					}
				}
				records = append(records, rec)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("read parquet rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("close parquet rows: %w", err)
		}
	}

	return NewFrame(columns, records)
}

func parquetCell(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
