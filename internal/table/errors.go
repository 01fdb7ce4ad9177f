package table

import "errors"

// Sentinel errors. Callers wrap them with file context and compare with
// errors.Is.
var (
	ErrUnsupportedFormat   = errors.New("unsupported file type")
	ErrEmptyFile           = errors.New("empty file")
	ErrInvalidCSV          = errors.New("invalid csv")
	ErrInvalidWorkbook     = errors.New("invalid workbook")
	ErrUnknownColumn       = errors.New("column not found")
	ErrDuplicateColumn     = errors.New("column selected more than once")
	ErrIncompleteRename    = errors.New("rename map incomplete")
	ErrDuplicateTargetName = errors.New("duplicate target name")
	ErrUnknownFormat       = errors.New("unknown export format")
)
