package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseError wraps a decoder failure so transport code can map malformed
// uploads to a client error instead of a server fault.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s input: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SupportedExtensions lists the upload formats the reader accepts.
var SupportedExtensions = []string{".csv", ".json", ".xlsx"}

// Read loads a tabular file into a Table, dispatching on the filename
// extension. Unsupported extensions return an error naming the extension.
func Read(filename string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(r)
	case ".json":
		return ReadJSON(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported file type %q: expected one of %s",
			filepath.Ext(filename), strings.Join(SupportedExtensions, ", "))
	}
}

// ReadCSV reads a CSV stream whose first record is the header row. Cell
// values go through type inference; mixed columns are demoted to
// categorical afterwards.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Ragged rows happen in hand-edited files; short rows are padded with
	// missing cells and long rows are truncated to the header width.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Format: "csv", Err: fmt.Errorf("empty file")}
	}
	if err != nil {
		return nil, &ParseError{Format: "csv", Err: err}
	}

	names := make([]string, len(header))
	for i, name := range header {
		names[i] = strings.TrimSpace(name)
	}
	t := NewTable(names...)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: "csv", Err: err}
		}
		cells := make([]Cell, len(names))
		for i := range names {
			if i < len(record) {
				cells[i] = ParseCell(record[i])
			} else {
				cells[i] = Null()
			}
		}
		if err := t.AppendRow(cells); err != nil {
			return nil, &ParseError{Format: "csv", Err: err}
		}
	}

	NormalizeColumns(t)
	return t, nil
}

// ReadJSON reads a JSON array of flat objects. Columns are the union of the
// object keys in document order; keys absent from a row become missing
// cells. Decoding into maps would lose the key order, so the objects are
// walked token by token.
func ReadJSON(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, &ParseError{Format: "json", Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, &ParseError{Format: "json", Err: fmt.Errorf("expected an array of objects")}
	}

	var names []string
	seen := make(map[string]bool)
	var rows []map[string]Cell

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &ParseError{Format: "json", Err: err}
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return nil, &ParseError{Format: "json", Err: fmt.Errorf("array element is not an object")}
		}

		row := make(map[string]Cell)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, &ParseError{Format: "json", Err: err}
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, &ParseError{Format: "json", Err: fmt.Errorf("object key is not a string")}
			}
			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, &ParseError{Format: "json", Err: err}
			}
			if !seen[key] {
				seen[key] = true
				names = append(names, key)
			}
			row[key] = jsonCell(value)
		}
		if _, err := dec.Token(); err != nil { // closing brace
			return nil, &ParseError{Format: "json", Err: err}
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil { // closing bracket
		return nil, &ParseError{Format: "json", Err: err}
	}

	t := NewTable(names...)
	for _, row := range rows {
		cells := make([]Cell, len(names))
		for i, name := range names {
			cell, ok := row[name]
			if !ok {
				cells[i] = Null()
				continue
			}
			cells[i] = cell
		}
		if err := t.AppendRow(cells); err != nil {
			return nil, &ParseError{Format: "json", Err: err}
		}
	}

	NormalizeColumns(t)
	return t, nil
}

// jsonCell converts a decoded JSON value into a cell.
func jsonCell(v any) Cell {
	switch value := v.(type) {
	case nil:
		return Null()
	case float64:
		return Number(value)
	case bool:
		if value {
			return String("true")
		}
		return String("false")
	case string:
		return ParseCell(value)
	default:
		// Nested arrays/objects are kept as their JSON text.
		raw, err := json.Marshal(value)
		if err != nil {
			return Null()
		}
		return String(string(raw))
	}
}

// ReadXLSX reads the first sheet of an Excel workbook, treating the first
// row as the header, with the same inference as CSV.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Format: "xlsx", Err: fmt.Errorf("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Format: "xlsx", Err: fmt.Errorf("sheet %q is empty", sheets[0])}
	}

	names := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		names[i] = strings.TrimSpace(name)
	}
	t := NewTable(names...)

	for _, row := range rows[1:] {
		cells := make([]Cell, len(names))
		for i := range names {
			if i < len(row) {
				cells[i] = ParseCell(row[i])
			} else {
				cells[i] = Null()
			}
		}
		if err := t.AppendRow(cells); err != nil {
			return nil, &ParseError{Format: "xlsx", Err: err}
		}
	}

	NormalizeColumns(t)
	return t, nil
}
