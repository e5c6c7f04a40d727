package extract

import "errors"

// Common errors returned by the extract package.
var (
	// ErrUnsupportedFormat is returned when a file's extension matches no
	// known extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when a single file exceeds the size ceiling.
	ErrFileTooLarge = errors.New("file exceeds size ceiling")

	// ErrArchiveTooLarge is returned when an archive's cumulative
	// uncompressed size exceeds the ceiling.
	ErrArchiveTooLarge = errors.New("archive exceeds size ceiling")

	// ErrTooManyFiles is returned when an archive or folder holds more
	// supported files than the ceiling allows.
	ErrTooManyFiles = errors.New("too many files")

	// ErrNoContent is returned when nothing textual could be extracted
	// from any unit of any input file.
	ErrNoContent = errors.New("no text could be extracted")
)
