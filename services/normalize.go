package services

import "strings"

// headerRule maps a header to a canonical column when its lower-cased form
// contains any of the keywords.
type headerRule struct {
	target   string
	keywords []string
}

// headerRules are evaluated in order; the first match wins.
var headerRules = []headerRule{
	{ColTotal, []string{"total", "amount"}},
	{ColUnitPrice, []string{"price", "unit", "cost"}},
	{ColQuantity, []string{"qty", "quant"}},
	{ColDescription, []string{"desc", "item"}},
}

// ClassifyHeader returns the canonical column a header maps to, or "" when
// no rule matches.
func ClassifyHeader(header string) string {
	h := strings.ToLower(header)
	for _, rule := range headerRules {
		for _, kw := range rule.keywords {
			if strings.Contains(h, kw) {
				return rule.target
			}
		}
	}
	return ""
}

// ColumnMap records, for each canonical column, the index of the source
// column it was taken from, or -1 when the source had none.
type ColumnMap map[string]int

// Source returns the source index for a canonical column, or -1.
func (m ColumnMap) Source(canonical string) int {
	if idx, ok := m[canonical]; ok {
		return idx
	}
	return -1
}

// Matched reports whether any header was recognized.
func (m ColumnMap) Matched() bool {
	for _, idx := range m {
		if idx >= 0 {
			return true
		}
	}
	return false
}

// MapColumns classifies every header left to right. When several headers map
// to the same canonical column only the first is kept.
func MapColumns(columns []string) ColumnMap {
	m := ColumnMap{}
	for _, c := range CanonicalColumns {
		m[c] = -1
	}
	for i, h := range columns {
		target := ClassifyHeader(h)
		if target == "" || m[target] >= 0 {
			continue
		}
		m[target] = i
	}
	return m
}

// NormalizeTable projects a table onto [Description, Quantity, Unit Price,
// Total]. Unrecognized columns are dropped and canonical columns the source
// lacks are filled with empty cells. When no header is recognized the table
// is returned unchanged, since its shape is not understood.
func NormalizeTable(t Table) (Table, ColumnMap) {
	m := MapColumns(t.Columns)
	if !m.Matched() {
		return t.Clone(), m
	}

	rows := make([][]any, 0, len(t.Rows))
	for _, src := range t.Rows {
		row := make([]any, len(CanonicalColumns))
		for i, c := range CanonicalColumns {
			idx := m.Source(c)
			if idx < 0 || idx >= len(src) {
				continue
			}
			row[i] = blankIfAbsent(src[idx])
		}
		rows = append(rows, row)
	}
	return NewTable(CanonicalColumns, rows), m
}

// NormalizeTables normalizes each table independently.
func NormalizeTables(tables []Table) ([]Table, []ColumnMap) {
	out := make([]Table, 0, len(tables))
	maps := make([]ColumnMap, 0, len(tables))
	for _, t := range tables {
		nt, m := NormalizeTable(t)
		out = append(out, nt)
		maps = append(maps, m)
	}
	return out, maps
}

// RecalculateTotals sets Total = Quantity × Unit Price on every row of a table
// carrying the exact canonical labels. A non-numeric quantity counts as 1 and
// a non-numeric price as 0; when the product is 0 the entered Total is kept
// so hand-entered rows such as "Shipping" survive.
func RecalculateTotals(t Table) Table {
	out := t.Clone()
	qi, pi, ti := t.ColumnIndex(ColQuantity), t.ColumnIndex(ColUnitPrice), t.ColumnIndex(ColTotal)
	if qi < 0 || pi < 0 || ti < 0 {
		return out
	}
	for _, row := range out.Rows {
		qty, ok := NumericValue(row[qi])
		if !ok {
			qty = 1
		}
		price := NumberOrZero(row[pi])
		if product := qty * price; product != 0 {
			row[ti] = product
			continue
		}
		if c := CoerceCell(row[ti]); c.Kind == KindAbsent {
			row[ti] = nil
		}
	}
	return out
}

func blankIfAbsent(v any) any {
	if CoerceCell(v).Kind == KindAbsent {
		return ""
	}
	return v
}
