// Package datefile selects and orders files by a date embedded in their paths.
//
// Names are expected to look like {date}_anything_else.ext, with the date
// in YYYY-MM-DD form either in the file name or in one of its folders.
package datefile

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Layout is the date format used in file names.
const Layout = "2006-01-02"

// Sentinel errors for conditions callers may need to handle differently.
var (
	ErrNoDate             = errors.New("datefile: no YYYY-MM-DD date in path")
	ErrNegativePosition   = errors.New("datefile: position must not be negative")
	ErrPositionOutOfRange = errors.New("datefile: position beyond filesystem root")
)

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// SortByDate orders paths by the first date found anywhere in the path,
// latest first when reverse is true. Paths with equal dates keep their order.
func SortByDate(paths []string, reverse bool) ([]string, error) {
	keys := make(map[string]string, len(paths))
	for _, p := range paths {
		d := datePattern.FindString(p)
		if d == "" {
			return nil, fmt.Errorf("%w: %s", ErrNoDate, p)
		}
		keys[p] = d
	}

	sorted := slices.Clone(paths)
	slices.SortStableFunc(sorted, func(a, b string) int {
		if reverse {
			return strings.Compare(keys[b], keys[a])
		}
		return strings.Compare(keys[a], keys[b])
	})
	return sorted, nil
}

// ExtractDate returns the leading "_"-separated field of one element of
// the absolute path. Position 0 is the file name without extension, 1 its
// folder, 2 the folder above, and so on.
func ExtractDate(path string, position int) (string, error) {
	if position < 0 {
		return "", ErrNegativePosition
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	parts := elements(abs)
	if position >= len(parts) {
		return "", fmt.Errorf("%w: %d for %s", ErrPositionOutOfRange, position, abs)
	}

	name, _, _ := strings.Cut(parts[position], "_")
	return name, nil
}

// elements lists the stem of abs followed by each ancestor's name, ending
// with the root's empty name.
func elements(abs string) []string {
	base := filepath.Base(abs)
	parts := []string{strings.TrimSuffix(base, filepath.Ext(base))}

	dir := filepath.Dir(abs)
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		parts = append(parts, filepath.Base(dir))
		dir = parent
	}
	return append(parts, "")
}

// Cutoff keeps the paths whose date d satisfies after < d <= through.
// Either bound may be empty to leave that side open.
func Cutoff(paths []string, after, through string, position int) ([]string, error) {
	if position < 0 {
		return nil, ErrNegativePosition
	}

	start, err := parseBound(after)
	if err != nil {
		return nil, fmt.Errorf("cutoff start: %w", err)
	}
	end, err := parseBound(through)
	if err != nil {
		return nil, fmt.Errorf("cutoff end: %w", err)
	}

	dates := make([]time.Time, len(paths))
	for i, p := range paths {
		raw, err := ExtractDate(p, position)
		if err != nil {
			return nil, err
		}
		d, err := time.Parse(Layout, raw)
		if err != nil {
			return nil, fmt.Errorf("parse date of %s: %w", p, err)
		}
		dates[i] = d
	}

	return lo.Filter(paths, func(_ string, i int) bool {
		d := dates[i]
		return (start.IsZero() || d.After(start)) && (end.IsZero() || !d.After(end))
	}), nil
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(Layout, s)
}
