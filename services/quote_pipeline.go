package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidQuoteConfig marks a generation failure caused by the pricing or
// party configuration rather than by a renderer.
var ErrInvalidQuoteConfig = errors.New("invalid quote configuration")

// GenerationError reports why a quote could not be produced. No artifact is
// returned alongside it.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error { return e.Err }

// QuoteResult is a generated quote: both artifacts plus the figures shown in them.
type QuoteResult struct {
	PDF       []byte
	Excel     []byte
	LineItems []Table
	Totals    QuoteTotals
	Document  QuoteDocument
}

// BuildQuoteDocument runs every stage before rendering: Total recalculation
// on the raw tables, normalization, markup of the resolved column and the
// totals. The input tables are not modified.
func BuildQuoteDocument(tables []Table, cfg QuoteConfig, now time.Time) (QuoteDocument, error) {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return QuoteDocument{}, &GenerationError{
			Message: "invalid configuration",
			Err:     errors.Join(ErrInvalidQuoteConfig, err),
		}
	}

	raw := make([]Table, len(tables))
	for i, t := range tables {
		raw[i] = RecalculateTotals(t)
	}
	canonical, maps := NormalizeTables(raw)
	items := ApplyMarkupAll(canonical, maps, cfg.MarkupPercent)

	return QuoteDocument{
		Config:     cfg,
		Generated:  now,
		RawTables:  raw,
		ColumnMaps: maps,
		LineItems:  items,
		Totals:     CalcQuoteTotals(items, cfg),
	}, nil
}

// GenerateQuote produces the printable quote and the formula-driven workbook
// from the same document. Either both artifacts are returned or neither is.
func GenerateQuote(ctx context.Context, tables []Table, cfg QuoteConfig) (*QuoteResult, error) {
	doc, err := BuildQuoteDocument(tables, cfg, time.Now())
	if err != nil {
		return nil, err
	}
	return RenderQuote(ctx, doc)
}

// RenderQuote renders an already built document.
func RenderQuote(ctx context.Context, doc QuoteDocument) (*QuoteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &GenerationError{Message: "generation cancelled", Err: err}
	}
	pdf, err := GenerateQuotePDF(doc)
	if err != nil {
		return nil, &GenerationError{Message: "failed to render PDF", Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &GenerationError{Message: "generation cancelled", Err: err}
	}
	xlsx, err := GenerateQuoteExcel(doc)
	if err != nil {
		return nil, &GenerationError{Message: "failed to render workbook", Err: err}
	}

	return &QuoteResult{
		PDF:       pdf,
		Excel:     xlsx,
		LineItems: doc.LineItems,
		Totals:    doc.Totals,
		Document:  doc,
	}, nil
}
