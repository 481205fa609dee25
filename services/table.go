// Package services implements the quotation pipeline: table normalization,
// numeric coercion, markup and totals, and the PDF and Excel renderers that
// present the same numbers.
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonical line-item column labels.
const (
	ColDescription = "Description"
	ColQuantity    = "Quantity"
	ColUnitPrice   = "Unit Price"
	ColTotal       = "Total"
)

// CanonicalColumns is the fixed output order of the column normalizer.
var CanonicalColumns = []string{ColDescription, ColQuantity, ColUnitPrice, ColTotal}

// Table is an ordered set of rows sharing one header. Cells are stored
// positionally so repeated labels survive; a cell holds a string, a number,
// or nil for an empty value.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTable builds a table from a header and rows, padding or truncating every
// row to the header width.
func NewTable(columns []string, rows [][]any) Table {
	t := Table{
		Columns: append([]string(nil), columns...),
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, fitRow(r, len(columns)))
	}
	return t
}

// TableFromRecords builds a table from label→value mappings using the given
// column order. Labels missing from a record become empty cells.
func TableFromRecords(columns []string, records []map[string]any) Table {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = rec[c]
		}
		rows = append(rows, row)
	}
	return NewTable(columns, rows)
}

// Clone returns a deep copy of the table's header and row slices.
func (t Table) Clone() Table {
	return NewTable(t.Columns, t.Rows)
}

// ColumnIndex returns the index of the first column with the given label, or -1.
func (t Table) ColumnIndex(label string) int {
	for i, c := range t.Columns {
		if c == label {
			return i
		}
	}
	return -1
}

// HasColumns reports whether every label is present in the header.
func (t Table) HasColumns(labels ...string) bool {
	for _, l := range labels {
		if t.ColumnIndex(l) < 0 {
			return false
		}
	}
	return true
}

// Row returns row i as a label→value mapping. With repeated labels the first
// occurrence wins.
func (t Table) Row(i int) map[string]any {
	out := make(map[string]any, len(t.Columns))
	row := t.Rows[i]
	for j := len(t.Columns) - 1; j >= 0; j-- {
		var v any
		if j < len(row) {
			v = row[j]
		}
		out[t.Columns[j]] = v
	}
	return out
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Records is the JSON-friendly form used by the API: a header plus
// label→value rows.
type Records struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// MarshalJSON encodes rows as label→value objects so clients can edit them
// by name. Repeated labels keep their first value.
func (t Table) MarshalJSON() ([]byte, error) {
	rec := Records{Columns: t.Columns, Rows: make([]map[string]any, 0, len(t.Rows))}
	if rec.Columns == nil {
		rec.Columns = []string{}
	}
	for i := range t.Rows {
		rec.Rows = append(rec.Rows, t.Row(i))
	}
	return json.Marshal(rec)
}

// UnmarshalJSON accepts either the object-row form produced by MarshalJSON or
// positional array rows. When "columns" is omitted the header is taken from
// the keys of the first object row in the order they appear; positional rows
// without a header are rejected.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw struct {
		Columns []string          `json:"columns"`
		Rows    []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode table: %w", err)
	}

	columns := raw.Columns
	rows := make([][]any, 0, len(raw.Rows))
	for i, r := range raw.Rows {
		var positional []any
		if err := json.Unmarshal(r, &positional); err == nil {
			if columns == nil {
				return fmt.Errorf("decode table row %d: positional rows need a \"columns\" header", i)
			}
			rows = append(rows, positional)
			continue
		}
		keys, rec, err := decodeOrderedObject(r)
		if err != nil {
			return fmt.Errorf("decode table row %d: %w", i, err)
		}
		if columns == nil {
			columns = keys
		}
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = rec[c]
		}
		rows = append(rows, row)
	}

	*t = NewTable(columns, rows)
	return nil
}

// decodeOrderedObject decodes a JSON object keeping its key order.
func decodeOrderedObject(data []byte) ([]string, map[string]any, error) {
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	keys := make([]string, 0, len(rec))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected key token %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, nil, err
		}
	}
	return keys, rec, nil
}

// cellAt returns row[i], or nil when the row is shorter than i.
func cellAt(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func fitRow(r []any, width int) []any {
	row := make([]any, width)
	copy(row, r)
	return row
}
