package services

import "testing"

func TestCellRefString(t *testing.T) {
	tests := []struct {
		ref  CellRef
		want string
	}{
		{CellRef{1, 1}, "A1"},
		{CellRef{5, 12}, "E12"},
		{CellRef{26, 3}, "Z3"},
		{CellRef{27, 3}, "AA3"},
		{CellRef{0, 3}, "#REF!"},
	}
	for _, tt := range tests {
		if got := tt.ref.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestColumnRange(t *testing.T) {
	if got := ColumnRange(5, 9, 11).String(); got != "E9:E11" {
		t.Errorf("ColumnRange = %q, want E9:E11", got)
	}
}

func TestSheetCursor(t *testing.T) {
	c := NewSheetCursor()
	if c.Row() != 1 {
		t.Fatalf("start row = %d, want 1", c.Row())
	}
	if got := c.Next(); got != 1 {
		t.Errorf("Next() = %d, want 1", got)
	}
	if got := c.Next(); got != 2 {
		t.Errorf("Next() = %d, want 2", got)
	}
	c.Skip(2)
	if c.Row() != 5 {
		t.Errorf("after Skip(2) row = %d, want 5", c.Row())
	}
}

func TestFormulaExpressions(t *testing.T) {
	var ranges RangeSet
	ranges.Add(ColumnRange(5, 9, 11))
	ranges.Add(ColumnRange(5, 15, 16))

	sub := CellRef{5, 20}
	disc := CellRef{5, 21}
	tax := CellRef{5, 22}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"product", Product(CellRef{4, 9}, 1.1), "=D9*1.1"},
		{"product whole factor", Product(CellRef{4, 9}, 2), "=D9*2"},
		{"rounded product", Round(Product(CellRef{4, 9}, 1.15), 2), "=ROUND(D9*1.15,2)"},
		{"sum of ranges", Sum(ranges...), "=SUM(E9:E11,E15:E16)"},
		{"sum of single range", Sum(ColumnRange(3, 2, 2)), "=SUM(C2:C2)"},
		{"sum by reference", SumOf(sub, disc, tax), "=E20 + E21 + E22"},
		{"grand total without extras", SumOf(sub), "=E20"},
		{"percent of subtotal", Percent(Ref(sub), 8.25), "=E20*(8.25/100)"},
		{"percent of clamped base", Percent(MaxZero(sub, disc), 10), "=MAX(0, E20+E21)*(10/100)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.Formula(); got != tt.want {
				t.Errorf("Formula() = %q, want %q", got, tt.want)
			}
		})
	}
}
