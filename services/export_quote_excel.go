package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// QuoteSheetName is the name of the single worksheet in a quote workbook.
const QuoteSheetName = "Marked Up Quotation"

// MarkedUpColumn is the header of the formula column appended to each table.
const MarkedUpColumn = "Marked Up Total"

const moneyFormat = "#,##0.00"

// quoteStyles are the style IDs used by the quote workbook.
type quoteStyles struct {
	title, subtitle, label, header, cell, money, markup, discount, grand int
}

func newQuoteStyles(f *excelize.File) (quoteStyles, error) {
	var s quoteStyles
	numFmt := moneyFormat
	defs := []struct {
		name  string
		dst   *int
		style *excelize.Style
	}{
		{"title", &s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{"subtitle", &s.subtitle, &excelize.Style{Font: &excelize.Font{Italic: true, Color: "#64748B"}}},
		{"label", &s.label, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{"header", &s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
			Border:    thinBorders(),
		}},
		{"cell", &s.cell, &excelize.Style{Border: thinBorders()}},
		{"money", &s.money, &excelize.Style{Border: thinBorders(), CustomNumFmt: &numFmt}},
		{"markup", &s.markup, &excelize.Style{
			Font:         &excelize.Font{Bold: true},
			Border:       thinBorders(),
			CustomNumFmt: &numFmt,
		}},
		{"discount", &s.discount, &excelize.Style{
			Font:         &excelize.Font{Bold: true, Color: "#FF0000"},
			Border:       thinBorders(),
			CustomNumFmt: &numFmt,
		}},
		{"grand", &s.grand, &excelize.Style{
			Font:         &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill:         excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
			Border:       thinBorders(),
			CustomNumFmt: &numFmt,
		}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("create %s style: %w", d.name, err)
		}
		*d.dst = id
	}
	return s, nil
}

// sheetWriter writes cells to one worksheet, tracks the widest content per
// column and keeps the first error.
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	widths map[int]int
	err    error
}

func (w *sheetWriter) value(col, row int, v any, style int) {
	if w.err != nil {
		return
	}
	ref := CellRef{Col: col, Row: row}.String()
	if err := w.f.SetCellValue(w.sheet, ref, v); err != nil {
		w.err = fmt.Errorf("set %s: %w", ref, err)
		return
	}
	w.track(col, displayWidth(v))
	w.style(ref, style)
}

func (w *sheetWriter) formula(col, row int, e Expr, style int) {
	if w.err != nil {
		return
	}
	ref := CellRef{Col: col, Row: row}.String()
	text := e.Formula()
	if err := w.f.SetCellFormula(w.sheet, ref, text); err != nil {
		w.err = fmt.Errorf("set formula %s: %w", ref, err)
		return
	}
	w.track(col, len(text))
	w.style(ref, style)
}

func (w *sheetWriter) style(ref string, style int) {
	if style == 0 || w.err != nil {
		return
	}
	if err := w.f.SetCellStyle(w.sheet, ref, ref, style); err != nil {
		w.err = fmt.Errorf("style %s: %w", ref, err)
	}
}

func (w *sheetWriter) track(col, n int) {
	if n > w.widths[col] {
		w.widths[col] = n
	}
}

// autoFit sets every written column to its widest content plus 2.
func (w *sheetWriter) autoFit() {
	for col, n := range w.widths {
		if w.err != nil {
			return
		}
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			w.err = err
			return
		}
		width := float64(n + 2)
		if width > 255 {
			width = 255
		}
		if err := w.f.SetColWidth(w.sheet, name, name, width); err != nil {
			w.err = fmt.Errorf("set col width %s: %w", name, err)
		}
	}
}

func displayWidth(v any) int {
	switch n := v.(type) {
	case string:
		return len([]rune(n))
	case float64:
		return len(formatPlainNumber(n))
	default:
		return len(fmt.Sprint(v))
	}
}

// GenerateQuoteExcel builds the marked-up quotation workbook. Each raw table
// keeps its original columns and gains a "Marked Up Total" formula column
// (an existing one is refilled with formulas);
// the totals block below the tables is wired to those cells by reference so
// the sheet recomputes when a value is edited.
func GenerateQuoteExcel(doc QuoteDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), QuoteSheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	styles, err := newQuoteStyles(f)
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, sheet: QuoteSheetName, widths: map[int]int{}}
	cur := NewSheetCursor()
	cfg := doc.Config

	// ── Document header ─────────────────────────────────────────────────

	w.value(1, cur.Next(), "QUOTATION", styles.title)
	w.value(1, cur.Next(), "Generated: "+doc.GeneratedDate(), styles.subtitle)
	cur.Skip(1)

	labelled := func(label, value string) {
		row := cur.Next()
		w.value(1, row, label, styles.label)
		if value != "" {
			w.value(2, row, sanitizeExcelCell(value), 0)
		}
	}
	addressLines := func(addr string) {
		if strings.TrimSpace(addr) == "" {
			return
		}
		labelled("Address:", "")
		for _, line := range splitLines(addr) {
			w.value(2, cur.Next(), sanitizeExcelCell(line), 0)
		}
	}

	labelled("From:", cfg.SenderName)
	if cfg.SenderPhone != "" {
		labelled("Phone:", cfg.SenderPhone)
	}
	if cfg.SenderEmail != "" {
		labelled("Email:", cfg.SenderEmail)
	}
	addressLines(cfg.SenderAddress)
	cur.Skip(1)

	labelled("To:", cfg.RecipientName)
	if cfg.RecipientContact != "" {
		labelled("Contact:", cfg.RecipientContact)
	}
	addressLines(cfg.RecipientAddress)
	cur.Skip(1)

	if cfg.JobDescription != "" {
		w.value(1, cur.Next(), "Job Description/Notes:", styles.label)
		for _, line := range strings.Split(strings.ReplaceAll(cfg.JobDescription, "\r\n", "\n"), "\n") {
			row := cur.Next()
			if line != "" {
				w.value(1, row, sanitizeExcelCell(line), 0)
			}
		}
		cur.Skip(1)
	}

	// ── Line item tables ────────────────────────────────────────────────

	mult := MarkupMultiplier(cfg.MarkupPercent)
	var subtotalRanges RangeSet
	totalsCol := 0

	for i, t := range doc.RawTables {
		if len(t.Columns) == 0 {
			continue
		}
		srcIdx, counts := doc.markupSource(i)
		srcCol := srcIdx + 1
		lastCol := len(t.Columns)

		// A table that already carries a marked-up column has it recomputed
		// in place, unless that column is itself the markup source.
		markCol, addMarkup := lastCol+1, true
		if idx := t.ColumnIndex(MarkedUpColumn); idx >= 0 && idx != srcIdx {
			markCol, addMarkup = idx+1, false
		}

		headerRow := cur.Next()
		for c, h := range t.Columns {
			w.value(c+1, headerRow, sanitizeExcelCell(h), styles.header)
		}
		if addMarkup {
			w.value(markCol, headerRow, MarkedUpColumn, styles.header)
		}

		first := cur.Row()
		for _, r := range t.Rows {
			row := cur.Next()
			for c := range t.Columns {
				if c+1 == markCol {
					continue
				}
				style := styles.cell
				cell := CoerceCell(cellAt(r, c))
				switch cell.Kind {
				case KindAbsent:
					w.value(c+1, row, "", style)
				case KindNumber:
					if c+1 == lastCol || c+1 == srcCol {
						style = styles.money
					}
					w.value(c+1, row, cell.Value, style)
				default:
					w.value(c+1, row, sanitizeExcelCell(cell.Text), style)
				}
			}
			// Each line is rounded to cents so SUM adds the same amounts
			// the printed quote shows.
			if CoerceCell(cellAt(r, srcIdx)).Kind == KindNumber {
				w.formula(markCol, row, Round(Product(CellRef{Col: srcCol, Row: row}, mult), 2), styles.markup)
			} else {
				w.value(markCol, row, 0, styles.markup)
			}
		}
		last := cur.Row() - 1

		if counts && first <= last {
			subtotalRanges.Add(ColumnRange(markCol, first, last))
			if markCol > totalsCol {
				totalsCol = markCol
			}
		}
		cur.Skip(2)
	}

	// ── Totals block ────────────────────────────────────────────────────

	if len(subtotalRanges) > 0 {
		labelCol := totalsCol - 1

		subRef := CellRef{Col: totalsCol, Row: cur.Next()}
		w.value(labelCol, subRef.Row, "SUBTOTAL", styles.label)
		w.formula(totalsCol, subRef.Row, Sum(subtotalRanges...), styles.markup)

		base := Ref(subRef)
		var discRef *CellRef
		if cfg.DiscountFlat > 0 {
			ref := CellRef{Col: totalsCol, Row: cur.Next()}
			discRef = &ref
			w.value(labelCol, ref.Row, "DISCOUNT", styles.label)
			w.value(totalsCol, ref.Row, -cfg.DiscountFlat, styles.discount)
			base = MaxZero(subRef, ref)
		}

		var taxRef *CellRef
		if cfg.TaxApplies() {
			ref := CellRef{Col: totalsCol, Row: cur.Next()}
			taxRef = &ref
			w.value(labelCol, ref.Row, cfg.TaxLabel(), styles.label)
			if cfg.TaxMode == TaxFlat {
				w.value(totalsCol, ref.Row, cfg.SalesTaxFlat, styles.markup)
			} else {
				w.formula(totalsCol, ref.Row, Percent(base, cfg.SalesTaxPct), styles.markup)
			}
		}

		grandRow := cur.Next()
		w.value(labelCol, grandRow, "GRAND TOTAL", styles.label)
		w.formula(totalsCol, grandRow, grandTotalExpr(subRef, discRef, taxRef), styles.grand)
	}

	w.autoFit()
	if w.err != nil {
		return nil, w.err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// grandTotalExpr adds the totals rows by reference. With a discount row the
// discounted subtotal is clamped at zero, matching CalcQuoteTotals.
func grandTotalExpr(sub CellRef, disc, tax *CellRef) Expr {
	if disc == nil {
		if tax == nil {
			return SumOf(sub)
		}
		return SumOf(sub, *tax)
	}
	base := MaxZero(sub, *disc)
	if tax == nil {
		return base
	}
	return Expr(string(base) + " + " + tax.String())
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
