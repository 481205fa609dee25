package services

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// CellKind classifies a coerced cell.
type CellKind int

const (
	// KindAbsent is an empty cell: blank, "nan" or "none".
	KindAbsent CellKind = iota
	// KindNumber is a cell that parsed as a decimal number.
	KindNumber
	// KindText is any other value; it is passed through unchanged.
	KindText
)

func (k CellKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Coerced is the numeric interpretation of a single cell.
type Coerced struct {
	Kind  CellKind
	Value float64
	// Text is the trimmed string form of the original value.
	Text string
}

// currencyStripper removes currency symbols, thousands separators and spaces.
var currencyStripper = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

// CoerceCell interprets a cell value as a number without ever failing.
// Numbers pass through, strings are stripped of $ € £ , and spaces before
// parsing, and "", "nan" and "none" (any case) are absent.
func CoerceCell(v any) Coerced {
	if v == nil {
		return Coerced{Kind: KindAbsent}
	}

	switch n := v.(type) {
	case float64:
		return numberOrAbsent(n, v)
	case float32:
		return numberOrAbsent(float64(n), v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Coerced{Kind: KindNumber, Value: cast.ToFloat64(n), Text: cast.ToString(n)}
	case decimal.Decimal:
		f, _ := n.Float64()
		return Coerced{Kind: KindNumber, Value: f, Text: n.String()}
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return Coerced{Kind: KindText}
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "none":
		return Coerced{Kind: KindAbsent}
	}

	clean := currencyStripper.Replace(s)
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return Coerced{Kind: KindText, Text: s}
	}
	f, _ := d.Float64()
	return Coerced{Kind: KindNumber, Value: f, Text: s}
}

func numberOrAbsent(f float64, v any) Coerced {
	if math.IsNaN(f) {
		return Coerced{Kind: KindAbsent}
	}
	return Coerced{Kind: KindNumber, Value: f, Text: cast.ToString(v)}
}

// NumericValue returns the cell's numeric value and whether it had one.
func NumericValue(v any) (float64, bool) {
	c := CoerceCell(v)
	return c.Value, c.Kind == KindNumber
}

// NumberOrZero returns the cell's numeric value, treating anything
// non-numeric as 0.
func NumberOrZero(v any) float64 {
	f, _ := NumericValue(v)
	return f
}

// DisplayCell renders a cell for printing: absent cells are empty strings,
// never "NaN" or "None"; integral numbers print without decimals.
func DisplayCell(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		c := CoerceCell(n)
		if c.Kind == KindAbsent {
			return ""
		}
		return strings.TrimSpace(n)
	}
	c := CoerceCell(v)
	switch c.Kind {
	case KindAbsent:
		return ""
	case KindNumber:
		return formatPlainNumber(c.Value)
	default:
		return c.Text
	}
}
