package extractor

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Error kinds returned by Extract. Match them with errors.Is.
var (
	ErrInvalidOptions = errors.New("invalid options")
	ErrFileNotFound   = errors.New("file not found")
	ErrMalformedData  = errors.New("malformed data")
	ErrColumnNotFound = errors.New("column not found")
	ErrProcessing     = errors.New("processing failed")
)

// Error describes a failed extraction. Kind is one of the Err* values above;
// Err is the underlying cause, if any.
type Error struct {
	Kind      error
	Path      string
	Column    string
	Available []string
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInvalidOptions:
		return fmt.Sprintf("cannot read '%s': %v", e.Path, e.Err)
	case ErrFileNotFound:
		return fmt.Sprintf("file '%s' was not found", e.Path)
	case ErrMalformedData:
		return fmt.Sprintf("error reading CSV file '%s': %v", e.Path, e.Err)
	case ErrColumnNotFound:
		return fmt.Sprintf("column '%s' not found in the CSV file. Available columns are: %s",
			e.Column, strings.Join(e.Available, ", "))
	case ErrProcessing:
		return fmt.Sprintf("error processing data from '%s': %v", e.Path, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "extractor: unknown error"
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func invalidOptions(path string, err error) *Error {
	return &Error{Kind: ErrInvalidOptions, Path: path, Err: err}
}

func fileNotFound(path string, err error) *Error {
	return &Error{Kind: ErrFileNotFound, Path: path, Err: err}
}

func malformed(path string, err error) *Error {
	return &Error{Kind: ErrMalformedData, Path: path, Err: err}
}

func columnNotFound(path, column string, available []string) *Error {
	return &Error{
		Kind:      ErrColumnNotFound,
		Path:      path,
		Column:    column,
		Available: append([]string(nil), available...),
	}
}

func processing(path string, err error) *Error {
	return &Error{Kind: ErrProcessing, Path: path, Err: err}
}

// IsNotFound reports whether err means the input file does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound) || errors.Is(err, fs.ErrNotExist)
}
