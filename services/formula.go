package services

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellRef addresses a single cell with 1-based column and row numbers.
type CellRef struct {
	Col int
	Row int
}

func (c CellRef) String() string {
	name, err := excelize.CoordinatesToCellName(c.Col, c.Row)
	if err != nil {
		return "#REF!"
	}
	return name
}

// RangeRef is a rectangular block of cells, inclusive on both ends.
type RangeRef struct {
	From CellRef
	To   CellRef
}

// ColumnRange covers rows first..last of one column.
func ColumnRange(col, first, last int) RangeRef {
	return RangeRef{From: CellRef{Col: col, Row: first}, To: CellRef{Col: col, Row: last}}
}

func (r RangeRef) String() string {
	return r.From.String() + ":" + r.To.String()
}

// RangeSet accumulates ranges that are summed together.
type RangeSet []RangeRef

// Add appends a range.
func (s *RangeSet) Add(r RangeRef) {
	*s = append(*s, r)
}

// SheetCursor hands out worksheet rows top to bottom.
type SheetCursor struct {
	row int
}

// NewSheetCursor starts at row 1.
func NewSheetCursor() *SheetCursor {
	return &SheetCursor{row: 1}
}

// Row is the next row that will be written.
func (c *SheetCursor) Row() int {
	return c.row
}

// Next returns the current row and advances past it.
func (c *SheetCursor) Next() int {
	r := c.row
	c.row++
	return r
}

// Skip leaves n blank rows.
func (c *SheetCursor) Skip(n int) {
	c.row += n
}

// Expr is a spreadsheet expression without the leading "=".
type Expr string

// Formula returns the cell formula text for e.
func (e Expr) Formula() string {
	return "=" + string(e)
}

// Ref is a bare cell reference.
func Ref(c CellRef) Expr {
	return Expr(c.String())
}

// Product multiplies a cell by a constant factor: B5*1.1.
func Product(c CellRef, factor float64) Expr {
	return Expr(c.String() + "*" + formatFactor(factor))
}

// Round rounds e to the given number of decimal places: ROUND(D9*1.1,2).
// Spreadsheet ROUND goes half away from zero, as RoundCents does.
func Round(e Expr, places int) Expr {
	return Expr("ROUND(" + string(e) + "," + strconv.Itoa(places) + ")")
}

// Sum adds every range: SUM(E9:E11,E15:E16).
func Sum(ranges ...RangeRef) Expr {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return Expr("SUM(" + strings.Join(parts, ",") + ")")
}

// SumOf adds individual cells by reference: E20 + E21 + E22.
func SumOf(refs ...CellRef) Expr {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return Expr(strings.Join(parts, " + "))
}

// MaxZero clamps the sum of two cells at zero: MAX(0, E20+E21).
func MaxZero(a, b CellRef) Expr {
	return Expr("MAX(0, " + a.String() + "+" + b.String() + ")")
}

// Percent takes pct percent of base: E20*(8.25/100).
func Percent(base Expr, pct float64) Expr {
	return Expr(string(base) + "*(" + formatFactor(pct) + "/100)")
}

func formatFactor(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
