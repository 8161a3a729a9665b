package dataset

import (
	"strconv"
	"strings"
	"time"
)

// missingTokens are the raw values treated as missing on ingest, matched
// case-insensitively after trimming.
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
}

// timeLayouts are the datetime formats recognized during inference, tried in
// order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
}

// IsMissing reports whether a raw string value counts as missing.
func IsMissing(s string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ParseNumber parses a numeric cell value, accepting thousands separators.
func ParseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// ParseTime parses a datetime cell value against the known layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			return v, true
		}
	}
	return time.Time{}, false
}

// ParseCell converts a raw string into a typed cell: missing token, number,
// datetime, or plain string, in that order.
func ParseCell(s string) Cell {
	if IsMissing(s) {
		return Null()
	}
	if v, ok := ParseNumber(s); ok {
		return Number(v)
	}
	if v, ok := ParseTime(s); ok {
		return Time(v)
	}
	return String(strings.TrimSpace(s))
}

// NormalizeColumns demotes mixed columns to categorical after ingest.
// Cell-level parsing types each value independently, so a column holding
// both "12" and "twelve" would end up mixed; here every cell of such a
// column is rendered back to a string so the column behaves as one type.
func NormalizeColumns(t *Table) {
	for _, col := range t.Columns {
		numbers, times, present := 0, 0, 0
		for _, cell := range col.Cells {
			switch cell.Kind {
			case KindNull:
				continue
			case KindNumber:
				numbers++
			case KindTime:
				times++
			}
			present++
		}
		if present == 0 || numbers == present || times == present {
			continue
		}
		for i, cell := range col.Cells {
			if !cell.IsNull() && cell.Kind != KindString {
				col.Cells[i] = String(cell.Render())
			}
		}
	}
}

// CoerceColumn attempts to convert a categorical column to numeric, then
// datetime. A conversion applies only when every non-missing cell converts;
// otherwise the column is left unchanged. It returns the resulting kind and
// whether a conversion happened.
func CoerceColumn(col *Column) (ColumnKind, bool) {
	if col.Kind() != ColumnCategorical {
		return col.Kind(), false
	}

	numbers := make([]Cell, len(col.Cells))
	ok := false
	for i, cell := range col.Cells {
		if cell.IsNull() {
			numbers[i] = Null()
			continue
		}
		v, valid := ParseNumber(cell.Render())
		if !valid {
			ok = false
			break
		}
		numbers[i] = Number(v)
		ok = true
	}
	if ok {
		col.Cells = numbers
		return ColumnNumeric, true
	}

	times := make([]Cell, len(col.Cells))
	ok = false
	for i, cell := range col.Cells {
		if cell.IsNull() {
			times[i] = Null()
			continue
		}
		v, valid := ParseTime(cell.Render())
		if !valid {
			return ColumnCategorical, false
		}
		times[i] = Time(v)
		ok = true
	}
	if ok {
		col.Cells = times
		return ColumnDatetime, true
	}
	return ColumnCategorical, false
}
