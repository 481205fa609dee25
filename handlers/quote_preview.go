package handlers

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoter/collections"
	"quoter/services"
)

// quoteDocumentFromRecord rebuilds the printable document of a stored quote.
// The raw tables are not needed for the preview and are left empty.
func quoteDocumentFromRecord(record *core.Record) (services.QuoteDocument, error) {
	doc := services.QuoteDocument{Config: services.DefaultQuoteConfig()}
	if err := record.UnmarshalJSONField("config", &doc.Config); err != nil {
		return doc, fmt.Errorf("decode config: %w", err)
	}
	if err := record.UnmarshalJSONField("line_items", &doc.LineItems); err != nil {
		return doc, fmt.Errorf("decode line items: %w", err)
	}
	if err := record.UnmarshalJSONField("totals", &doc.Totals); err != nil {
		return doc, fmt.Errorf("decode totals: %w", err)
	}
	if dt := record.GetDateTime("created"); !dt.IsZero() {
		doc.Generated = dt.Time()
	}
	return doc, nil
}

// HandleQuotePreview renders a stored quote as an HTML page.
func HandleQuotePreview(app *pocketbase.PocketBase, deps QuoteDeps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		if quoteID == "" {
			return e.String(http.StatusBadRequest, "Missing quote ID")
		}

		record, err := app.FindRecordById(collections.Quotes, quoteID)
		if err != nil {
			return e.String(http.StatusNotFound, "Quote not found")
		}

		doc, err := quoteDocumentFromRecord(record)
		if err != nil {
			deps.Log.Error().Err(err).Str("id", quoteID).Msg("preview failed")
			return e.String(http.StatusInternalServerError, "Failed to load quote")
		}

		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(e.Response, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>Quotation %s</title></head><body>",
			templ.EscapeString(record.GetString("number")))
		if err := services.QuotePreview(doc).Render(e.Request.Context(), e.Response); err != nil {
			deps.Log.Error().Err(err).Str("id", quoteID).Msg("preview render failed")
			return err
		}
		fmt.Fprint(e.Response, "</body></html>")
		return nil
	}
}
