package loader

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrUnsupportedType indicates a file extension the loader cannot read.
	ErrUnsupportedType = errors.New("loader: unsupported file type")

	// ErrMultipleEntries indicates a zip archive holding more than one file.
	ErrMultipleEntries = errors.New("loader: zip must contain exactly one file")

	// ErrColumnNotFound indicates a column name missing from the frame.
	ErrColumnNotFound = errors.New("loader: column not found")

	// ErrDuplicateColumn indicates two columns with the same name.
	ErrDuplicateColumn = errors.New("loader: duplicate column")

	// ErrRaggedRecord indicates a row whose cell count differs from the header.
	ErrRaggedRecord = errors.New("loader: record length does not match header")

	// ErrNotNumeric indicates a cell that does not parse as a number.
	ErrNotNumeric = errors.New("loader: cell is not numeric")

	// ErrLengthMismatch indicates a new column of the wrong length.
	ErrLengthMismatch = errors.New("loader: column length does not match row count")

	// ErrEmptyFile indicates a delimited file without a header row.
	ErrEmptyFile = errors.New("loader: file has no header")
)
