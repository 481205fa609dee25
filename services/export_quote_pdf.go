package services

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// PrintTable is a line item table as printed: every cell already formatted.
type PrintTable struct {
	Columns []string
	Rows    [][]string
}

// SummaryLine is one row of the totals footer.
type SummaryLine struct {
	Label    string
	Value    string
	Emphasis bool
}

// PrintableTables formats line item tables for print. Quantities drop
// trailing zeros, unit prices are shown as dollars, and absent cells are
// blank.
func PrintableTables(tables []Table) []PrintTable {
	out := make([]PrintTable, 0, len(tables))
	for _, t := range tables {
		pt := PrintTable{Columns: append([]string(nil), t.Columns...)}
		for _, r := range t.Rows {
			cells := make([]string, len(t.Columns))
			for i, c := range t.Columns {
				cells[i] = printCell(c, cellAt(r, i))
			}
			pt.Rows = append(pt.Rows, cells)
		}
		out = append(out, pt)
	}
	return out
}

func printCell(column string, v any) string {
	c := CoerceCell(v)
	if c.Kind == KindNumber {
		switch column {
		case ColQuantity:
			return formatQty(c.Value)
		case ColUnitPrice:
			return FormatUSD(c.Value)
		}
	}
	return DisplayCell(v)
}

// SummaryLines lists the totals footer: Subtotal, the markup share when
// markup applies, Discount and Sales Tax when non-zero, then Grand Total.
func SummaryLines(totals QuoteTotals, cfg QuoteConfig) []SummaryLine {
	lines := []SummaryLine{{Label: "Subtotal", Value: FormatUSD(totals.Subtotal)}}
	if totals.MarkupAmount > 0 {
		lines = append(lines, SummaryLine{
			Label: fmt.Sprintf("Includes Markup (%s%%)", formatPercent(cfg.MarkupPercent)),
			Value: FormatUSD(totals.MarkupAmount),
		})
	}
	if totals.Discount > 0 {
		lines = append(lines, SummaryLine{Label: "Discount", Value: FormatUSD(-totals.Discount)})
	}
	if totals.Tax > 0 {
		label := "Sales Tax (" + formatPercent(cfg.SalesTaxPct) + "%)"
		if cfg.TaxMode == TaxFlat {
			label = "Sales Tax (Flat)"
		}
		lines = append(lines, SummaryLine{Label: label, Value: FormatUSD(totals.Tax)})
	}
	lines = append(lines, SummaryLine{Label: "Grand Total", Value: FormatUSD(totals.GrandTotal), Emphasis: true})
	return lines
}

// ValidityNote is the closing line of the document.
func ValidityNote(days int) string {
	if days <= 0 {
		days = DefaultValidDays
	}
	return fmt.Sprintf("Thank you for your business. This quotation is valid for %d days. Please contact us with any questions.", days)
}

var (
	mutedText  = &props.Color{Red: 100, Green: 116, Blue: 139}
	headerFill = &props.Color{Red: 30, Green: 41, Blue: 59}
	zebraFill  = &props.Color{Red: 248, Green: 250, Blue: 252}
	totalFill  = &props.Color{Red: 241, Green: 245, Blue: 249}
	white      = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// GenerateQuotePDF renders the client-facing quotation with maroto/v2.
func GenerateQuotePDF(doc QuoteDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	if err := addQuoteHeader(m, doc); err != nil {
		return nil, err
	}
	addQuoteParties(m, doc.Config)
	addQuoteJobDescription(m, doc.Config)
	addQuoteLineItems(m, PrintableTables(doc.LineItems))
	addQuoteSummary(m, SummaryLines(doc.Totals, doc.Config))
	addQuoteSignature(m, doc.Config)
	addQuoteFooter(m, doc.Config)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate quote PDF: %w", err)
	}
	return out.GetBytes(), nil
}

// addQuoteHeader adds the optional logo, the QUOTATION title and the date.
func addQuoteHeader(m core.Maroto, doc QuoteDocument) error {
	titleCols := []core.Col{}
	titleSize := 12
	if len(doc.Config.Logo) > 0 {
		ext, err := logoExtension(doc.Config.LogoMIME)
		if err != nil {
			return err
		}
		titleCols = append(titleCols, col.New(3).Add(
			image.NewFromBytes(doc.Config.Logo, ext, props.Rect{Percent: 90}),
		))
		titleSize = 9
	}
	titleCols = append(titleCols, col.New(titleSize).Add(
		text.New("QUOTATION", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
		text.New("Generated: "+doc.GeneratedDate(), props.Text{
			Top:   10,
			Size:  9,
			Align: align.Right,
			Color: mutedText,
		}),
	))
	m.AddRows(row.New(18).Add(titleCols...))
	m.AddRow(4, line.NewCol(12))
	return nil
}

func logoExtension(mime string) (extension.Type, error) {
	switch mime {
	case LogoPNG:
		return extension.Png, nil
	case LogoJPEG:
		return extension.Jpg, nil
	}
	return "", fmt.Errorf("unsupported logo type %q", mime)
}

// addQuoteParties adds the From and Quotation For blocks side by side.
func addQuoteParties(m core.Maroto, c QuoteConfig) {
	sectionLabel := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: mutedText,
	}
	nameStyle := props.Text{
		Size:  10,
		Style: fontstyle.Bold,
		Align: align.Left,
	}
	valueStyle := props.Text{
		Size:  8,
		Align: align.Left,
	}

	sender := orDefault(c.SenderName, "Default Sender")
	recipient := orDefault(c.RecipientName, "Client")

	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(text.New("FROM", sectionLabel)),
			col.New(6).Add(text.New("QUOTATION FOR", sectionLabel)),
		),
		row.New(7).Add(
			col.New(6).Add(text.New(sender, nameStyle)),
			col.New(6).Add(text.New(recipient, nameStyle)),
		),
	)

	left := append([]string{c.SenderPhone, c.SenderEmail}, splitLines(c.SenderAddress)...)
	right := append([]string{c.RecipientContact}, splitLines(c.RecipientAddress)...)
	left, right = compact(left), compact(right)
	for i := 0; i < len(left) || i < len(right); i++ {
		m.AddRows(row.New(5).Add(
			col.New(6).Add(text.New(lineAt(left, i), valueStyle)),
			col.New(6).Add(text.New(lineAt(right, i), valueStyle)),
		))
	}

	m.AddRows(row.New(5))
}

// addQuoteJobDescription adds the notes block when a job description is set.
func addQuoteJobDescription(m core.Maroto, c QuoteConfig) {
	if strings.TrimSpace(c.JobDescription) == "" {
		return
	}
	m.AddRows(row.New(7).Add(
		col.New(12).Add(text.New("Job Description / Notes", props.Text{
			Size:  9,
			Style: fontstyle.Bold,
			Align: align.Left,
		})),
	))
	m.AddAutoRow(
		col.New(12).Add(text.New(c.JobDescription, props.Text{
			Size:  8,
			Align: align.Left,
		})),
	)
	m.AddRows(row.New(5))
}

// addQuoteLineItems adds the "Line Items" heading and one table per input table.
func addQuoteLineItems(m core.Maroto, tables []PrintTable) {
	m.AddRows(row.New(9).Add(
		col.New(12).Add(text.New("Line Items", props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Left,
		})),
	))

	var blocks []PrintTable
	for _, t := range tables {
		blocks = append(blocks, wrapColumns(t, gridColumns)...)
	}

	for _, t := range blocks {
		if len(t.Columns) == 0 {
			continue
		}
		sizes := columnSizes(t.Columns)

		headerText := props.Text{
			Size:  8,
			Style: fontstyle.Bold,
			Align: align.Right,
			Color: white,
		}
		headerCell := &props.Cell{BackgroundColor: headerFill}

		cols := make([]core.Col, len(sizes))
		for i := range sizes {
			style := headerText
			if i == 0 {
				style.Align = align.Left
			}
			cols[i] = col.New(sizes[i]).Add(text.New(t.Columns[i], style)).WithStyle(headerCell)
		}
		m.AddRows(row.New(8).Add(cols...))

		for r, cells := range t.Rows {
			var zebra *props.Cell
			if r%2 == 1 {
				zebra = &props.Cell{BackgroundColor: zebraFill}
			}
			cols := make([]core.Col, len(sizes))
			for i := range sizes {
				style := props.Text{Size: 8, Align: align.Right, Top: 1.5}
				if i == 0 {
					style.Align = align.Left
				}
				c := col.New(sizes[i]).Add(text.New(cells[i], style))
				if zebra != nil {
					c = c.WithStyle(zebra)
				}
				cols[i] = c
			}
			m.AddAutoRow(cols...)
		}
		m.AddRows(row.New(6))
	}
}

// gridColumns is the width of maroto's row grid.
const gridColumns = 12

// wrapColumns splits a table wider than width into consecutive blocks of at
// most width columns, each carrying its slice of every row.
func wrapColumns(t PrintTable, width int) []PrintTable {
	if len(t.Columns) <= width {
		return []PrintTable{t}
	}
	var out []PrintTable
	for start := 0; start < len(t.Columns); start += width {
		end := min(start+width, len(t.Columns))
		block := PrintTable{Columns: t.Columns[start:end]}
		for _, r := range t.Rows {
			block.Rows = append(block.Rows, r[start:end])
		}
		out = append(out, block)
	}
	return out
}

// columnSizes splits the 12-unit grid: the first column gets the remainder.
// Canonical tables give Description half the width. Callers wrap tables
// wider than the grid first.
func columnSizes(columns []string) []int {
	n := len(columns)
	if n == len(CanonicalColumns) && columns[0] == ColDescription {
		return []int{6, 2, 2, 2}
	}
	if n > gridColumns {
		n = gridColumns
	}
	sizes := make([]int, n)
	base := gridColumns / n
	for i := range sizes {
		sizes[i] = base
	}
	sizes[0] += gridColumns - base*n
	return sizes
}

// addQuoteSummary adds the totals footer aligned to the right.
func addQuoteSummary(m core.Maroto, lines []SummaryLine) {
	m.AddRows(row.New(2))
	for _, l := range lines {
		labelStyle := props.Text{Size: 9, Align: align.Right, Top: 1.5}
		valueStyle := props.Text{Size: 9, Align: align.Right, Top: 1.5}
		var cell *props.Cell
		height := 7.0
		if l.Emphasis {
			labelStyle.Style, valueStyle.Style = fontstyle.Bold, fontstyle.Bold
			labelStyle.Size, valueStyle.Size = 11, 11
			cell = &props.Cell{BackgroundColor: totalFill}
			height = 9
		}
		labelCol := col.New(3).Add(text.New(l.Label, labelStyle))
		valueCol := col.New(3).Add(text.New(l.Value, valueStyle))
		if cell != nil {
			labelCol, valueCol = labelCol.WithStyle(cell), valueCol.WithStyle(cell)
		}
		m.AddRows(row.New(height).Add(col.New(6), labelCol, valueCol))
	}
}

// addQuoteSignature adds a signature line when a signer is named.
func addQuoteSignature(m core.Maroto, c QuoteConfig) {
	if strings.TrimSpace(c.SignerName) == "" {
		return
	}
	lineStyle := props.Text{
		Size:  8,
		Align: align.Center,
		Color: mutedText,
	}
	m.AddRows(
		row.New(14),
		row.New(6).Add(
			col.New(8),
			col.New(4).Add(text.New("____________________________", lineStyle)),
		),
		row.New(6).Add(
			col.New(8),
			col.New(4).Add(text.New(c.SignerName, props.Text{
				Size:  9,
				Style: fontstyle.Bold,
				Align: align.Center,
			})),
		),
		row.New(5).Add(
			col.New(8),
			col.New(4).Add(text.New("Authorized Signature", lineStyle)),
		),
	)
}

// addQuoteFooter adds the validity note.
func addQuoteFooter(m core.Maroto, c QuoteConfig) {
	m.AddRows(row.New(8))
	m.AddRow(3, line.NewCol(12))
	m.AddRows(row.New(8).Add(
		col.New(12).Add(text.New(ValidityNote(c.ValidDays), props.Text{
			Size:  8,
			Align: align.Center,
			Color: &props.Color{Red: 148, Green: 163, Blue: 184},
		})),
	))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func compact(lines []string) []string {
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
