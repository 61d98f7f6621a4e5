// Package extractor reads ticker symbols out of one column of a CSV file.
//
// The result holds each distinct, non-empty, whitespace-trimmed value of the
// column once, in the order it first appears in the file.
package extractor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultColumn is the column read when none is given.
const DefaultColumn = "Ticker"

// Options tune how the file is read. The zero value reads the "Ticker"
// column of a comma separated file with DefaultNullMarkers.
type Options struct {
	Column string
	Comma  rune
	// NullMarkers replaces DefaultNullMarkers when non-nil. Empty fields and
	// fields missing from short rows are always null.
	NullMarkers []string
}

func (o Options) withDefaults() Options {
	if o.Column == "" {
		o.Column = DefaultColumn
	}
	if o.Comma == 0 {
		o.Comma = ','
	}
	if o.NullMarkers == nil {
		o.NullMarkers = DefaultNullMarkers
	}
	return o
}

func (o Options) nullSet() map[string]struct{} {
	set := make(map[string]struct{}, len(o.NullMarkers))
	for _, m := range o.NullMarkers {
		set[m] = struct{}{}
	}
	return set
}

// ExtractUniqueTickers returns the unique tickers of column in the CSV file at
// path. An empty column means DefaultColumn.
func ExtractUniqueTickers(path, column string) ([]string, error) {
	return Extract(path, Options{Column: column})
}

// Extract returns the unique tickers of the file at path, in first-appearance
// order. A file with no content at all yields an empty result, not an error.
// Failures are *Error values whose Kind is one of ErrInvalidOptions,
// ErrFileNotFound, ErrMalformedData, ErrColumnNotFound or ErrProcessing.
func Extract(path string, opts Options) ([]string, error) {
	opts = opts.withDefaults()
	if !validComma(opts.Comma) {
		return nil, invalidOptions(path, fmt.Errorf("invalid delimiter %q", opts.Comma))
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fileNotFound(path, err)
		}
		return nil, malformed(path, err)
	}
	defer file.Close()

	tbl, err := readTable(file, opts.Comma)
	if err != nil {
		return nil, malformed(path, err)
	}

	// No header at all: nothing to look up, nothing to return.
	if len(tbl.columns) == 0 {
		return []string{}, nil
	}

	idx := indexOf(tbl.columns, opts.Column)
	if idx < 0 {
		return nil, columnNotFound(path, opts.Column, tbl.columns)
	}

	raw, present := tbl.column(idx)
	tickers, err := unique(typeColumn(raw, present, opts.nullSet()))
	if err != nil {
		return nil, processing(path, err)
	}
	return tickers, nil
}

type table struct {
	columns []string
	rows    [][]string
}

func (t *table) column(idx int) (raw []string, present []bool) {
	raw = make([]string, len(t.rows))
	present = make([]bool, len(t.rows))
	for i, row := range t.rows {
		if idx < len(row) {
			raw[i] = row[idx]
			present[i] = true
		}
	}
	return raw, present
}

// readTable parses the whole file. The first record that is not blank or
// whitespace-only is the header; a leading byte order mark is dropped.
func readTable(r io.Reader, comma rune) (*table, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	tbl := &table{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		for i, field := range record {
			if !utf8.ValidString(field) {
				_, col := reader.FieldPos(i)
				return nil, fmt.Errorf("invalid UTF-8 on line %d, column %d", line, col)
			}
		}

		if tbl.columns == nil {
			if isBlank(record) {
				continue
			}
			tbl.columns = columnNames(record)
			continue
		}
		if len(record) > len(tbl.columns) {
			return nil, &csv.ParseError{
				StartLine: line,
				Line:      line,
				Column:    1,
				Err: fmt.Errorf("%w: expected %d fields, saw %d",
					csv.ErrFieldCount, len(tbl.columns), len(record)),
			}
		}
		tbl.rows = append(tbl.rows, record)
	}
	return tbl, nil
}

// unique coerces and trims each cell, drops nulls and empty values, and keeps
// the first occurrence of each remaining value.
func unique(cells []Cell) ([]string, error) {
	seen := make(map[string]struct{}, len(cells))
	tickers := make([]string, 0, len(cells))
	for _, c := range cells {
		s, ok, err := c.Text()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		tickers = append(tickers, s)
	}
	return tickers, nil
}

func isBlank(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}

func validComma(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}
