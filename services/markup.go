package services

// MarkupMultiplier returns 1 + pct/100.
func MarkupMultiplier(pct float64) float64 {
	return 1 + pct/100
}

// MarkupColumn resolves the column markup applies to: the Total column when
// the normalizer mapped one, otherwise the last column of the table.
func MarkupColumn(cm ColumnMap, t Table) int {
	if cm != nil && cm.Source(ColTotal) >= 0 {
		if idx := t.ColumnIndex(ColTotal); idx >= 0 {
			return idx
		}
	}
	return len(t.Columns) - 1
}

// ApplyMarkup returns a copy of t whose column col has every numeric cell
// multiplied by 1 + pct/100 and rendered as a dollar amount. Text cells pass
// through unchanged and absent cells stay empty. A column outside the table
// leaves it unchanged.
func ApplyMarkup(t Table, col int, pct float64) Table {
	out := t.Clone()
	if col < 0 || col >= len(out.Columns) {
		return out
	}
	mult := MarkupMultiplier(pct)
	for _, row := range out.Rows {
		c := CoerceCell(row[col])
		switch c.Kind {
		case KindNumber:
			row[col] = FormatUSD(c.Value * mult)
		case KindAbsent:
			row[col] = ""
		}
	}
	return out
}

// ApplyMarkupAll marks up every table on the column its map resolves to.
func ApplyMarkupAll(tables []Table, maps []ColumnMap, pct float64) []Table {
	out := make([]Table, 0, len(tables))
	for i, t := range tables {
		var cm ColumnMap
		if i < len(maps) {
			cm = maps[i]
		}
		out = append(out, ApplyMarkup(t, MarkupColumn(cm, t), pct))
	}
	return out
}
