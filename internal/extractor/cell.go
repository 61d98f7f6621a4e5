package extractor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the variant of a cell value.
type Kind int

const (
	Null Kind = iota
	String
	Number
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case String:
		return "string"
	case Number:
		return "number"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// DefaultNullMarkers are the raw field values read as a missing cell.
// Matching is exact and happens before any trimming.
var DefaultNullMarkers = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Cell is a single value of the ticker column.
type Cell struct {
	Kind Kind
	Raw  string
}

// Text coerces the cell to its string form. ok is false for Null cells.
func (c Cell) Text() (s string, ok bool, err error) {
	switch c.Kind {
	case Null:
		return "", false, nil
	case String:
		return c.Raw, true, nil
	case Number:
		if hasExponent(c.Raw) {
			return "", false, fmt.Errorf("coerce %q to number: exponent notation is not expanded", c.Raw)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(c.Raw))
		if err != nil {
			return "", false, fmt.Errorf("coerce %q to number: %w", c.Raw, err)
		}
		return d.String(), true, nil
	}
	return "", false, fmt.Errorf("cannot convert cell of %s to string", c.Kind)
}

// typeColumn turns raw fields into cells. present[i] is false when row i had
// no field for the column at all. A column whose non-null values all parse as
// numbers is typed Number; anything else is String.
func typeColumn(raw []string, present []bool, nulls map[string]struct{}) []Cell {
	cells := make([]Cell, len(raw))
	numeric, seen := true, false
	for i, v := range raw {
		if !present[i] {
			cells[i] = Cell{Kind: Null}
			continue
		}
		if _, isNull := nulls[v]; isNull || v == "" {
			cells[i] = Cell{Kind: Null, Raw: v}
			continue
		}
		cells[i] = Cell{Kind: String, Raw: v}
		seen = true
		if numeric && !isNumber(v) {
			numeric = false
		}
	}
	if !numeric || !seen {
		return cells
	}
	for i := range cells {
		if cells[i].Kind == String {
			cells[i].Kind = Number
		}
	}
	return cells
}

// isNumber reports whether v is plain decimal text. Exponent forms such as
// "1e5" are never numbers, so they keep their raw text.
func isNumber(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || hasExponent(v) {
		return false
	}
	_, err := decimal.NewFromString(v)
	return err == nil
}

func hasExponent(v string) bool {
	return strings.ContainsAny(v, "eE")
}
