package services

import "time"

// QuoteDocument holds everything both renderers need for one quote.
type QuoteDocument struct {
	Config    QuoteConfig
	Generated time.Time

	// RawTables are the tables as entered or extracted, after Total
	// recalculation and before normalization. The workbook shows them with
	// every original column.
	RawTables []Table
	// ColumnMaps[i] is the normalizer's mapping for RawTables[i].
	ColumnMaps []ColumnMap

	// LineItems are the canonical, marked-up tables printed in the PDF.
	LineItems []Table
	Totals    QuoteTotals
}

// GeneratedDate formats the generation date as "October 14, 2026".
func (d QuoteDocument) GeneratedDate() string {
	ts := d.Generated
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.Format("January 02, 2006")
}

// columnMap returns the mapping for raw table i, computing it when the caller
// did not supply one.
func (d QuoteDocument) columnMap(i int) ColumnMap {
	if i < len(d.ColumnMaps) && d.ColumnMaps[i] != nil {
		return d.ColumnMaps[i]
	}
	return MapColumns(d.RawTables[i].Columns)
}

// markupSource returns the 0-based raw column whose values the workbook
// marks up, and whether that column counts toward the subtotal.
func (d QuoteDocument) markupSource(i int) (int, bool) {
	if idx := d.columnMap(i).Source(ColTotal); idx >= 0 {
		return idx, true
	}
	return len(d.RawTables[i].Columns) - 1, false
}
