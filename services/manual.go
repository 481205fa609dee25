package services

// NewManualTable is the starting point for manual entry: the canonical
// columns with one blank row.
func NewManualTable() Table {
	return NewTable(CanonicalColumns, [][]any{{"", 1, 0.0, 0.0}})
}
