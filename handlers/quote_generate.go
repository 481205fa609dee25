package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"
	"github.com/rs/zerolog"

	"quoter/collections"
	"quoter/services"
)

// maxNumberAttempts bounds how often a save is retried when a concurrent
// generation took the same quote number.
const maxNumberAttempts = 3

// generateRequest is the body of POST /quotes/generate. Tables and
// ExtractionID are alternatives; Tables wins when both are sent.
type generateRequest struct {
	Tables       []services.Table     `json:"tables"`
	ExtractionID string               `json:"extraction_id"`
	Config       services.QuoteConfig `json:"config"`
}

// HandleQuoteGenerate runs the quote pipeline and stores both artifacts in a
// single quotes record.
func HandleQuoteGenerate(app *pocketbase.PocketBase, deps QuoteDeps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		log := requestLog(e, deps.Log, "quote_generate")

		req := generateRequest{Config: services.DefaultQuoteConfig()}
		if err := e.BindBody(&req); err != nil {
			return e.JSON(http.StatusBadRequest, errorBody{Error: "Invalid request body: " + err.Error()})
		}
		if req.Config.ValidDays == 0 {
			req.Config.ValidDays = deps.Config.QuoteValidDays
		}

		tables := req.Tables
		var extractionID string
		if tables == nil && req.ExtractionID != "" {
			stored, _, err := loadExtractionTables(app, req.ExtractionID)
			if err != nil {
				log.Warn().Err(err).Str("extraction", req.ExtractionID).Msg("extraction lookup failed")
				return e.JSON(http.StatusNotFound, errorBody{Error: "Extraction not found"})
			}
			tables, extractionID = stored, req.ExtractionID
		}

		res, err := services.GenerateQuote(e.Request.Context(), tables, req.Config)
		if err != nil {
			return generationFailure(e, log, err)
		}

		var (
			number string
			record *core.Record
		)
		for attempt := 1; ; attempt++ {
			number, err = services.NextQuoteNumber(app, time.Now())
			if err != nil {
				log.Error().Err(err).Msg("failed to allocate quote number")
				return e.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to save quote"})
			}
			record, err = saveQuote(app, number, extractionID, tables, res)
			if err == nil {
				break
			}
			if !duplicateNumber(err) || attempt == maxNumberAttempts {
				log.Error().Err(err).Str("number", number).Msg("failed to save quote")
				return e.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to save quote"})
			}
			log.Warn().Str("number", number).Int("attempt", attempt).Msg("quote number taken, allocating again")
		}

		log.Info().
			Str("id", record.Id).
			Str("number", number).
			Int("tables", len(res.LineItems)).
			Float64("grand_total", res.Totals.GrandTotal).
			Msg("quote generated")

		return e.JSON(http.StatusOK, map[string]any{
			"id":          record.Id,
			"number":      number,
			"totals":      res.Totals,
			"line_items":  res.LineItems,
			"pdf_url":     fmt.Sprintf("/quotes/%s/pdf", record.Id),
			"excel_url":   fmt.Sprintf("/quotes/%s/excel", record.Id),
			"preview_url": fmt.Sprintf("/quotes/%s/preview", record.Id),
		})
	}
}

// duplicateNumber reports whether a save failed on the unique quote number.
func duplicateNumber(err error) bool {
	var verrs validation.Errors
	return errors.As(err, &verrs) && verrs["number"] != nil
}

func generationFailure(e *core.RequestEvent, log zerolog.Logger, err error) error {
	if errors.Is(err, services.ErrInvalidQuoteConfig) {
		body := errorBody{Error: "Invalid quote configuration"}
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			body.Fields = verrs
		}
		return e.JSON(http.StatusUnprocessableEntity, body)
	}
	log.Error().Err(err).Msg("quote generation failed")
	return e.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
}

// saveQuote writes the quote and both artifacts in one record save, so a
// failure leaves no partial quote behind.
func saveQuote(app *pocketbase.PocketBase, number, extractionID string, raw []services.Table, res *services.QuoteResult) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId(collections.Quotes)
	if err != nil {
		return nil, fmt.Errorf("collection not found: %w", err)
	}

	pdfFile, err := filesystem.NewFileFromBytes(res.PDF, quoteFilename(number, "pdf"))
	if err != nil {
		return nil, fmt.Errorf("prepare pdf: %w", err)
	}
	xlsxFile, err := filesystem.NewFileFromBytes(res.Excel, quoteFilename(number, "xlsx"))
	if err != nil {
		return nil, fmt.Errorf("prepare workbook: %w", err)
	}

	cfg := res.Document.Config
	cfg.Logo = nil

	record := core.NewRecord(col)
	record.Set("number", number)
	if extractionID != "" {
		record.Set("extraction", extractionID)
	}
	record.Set("recipient_name", cfg.RecipientName)
	record.Set("config", cfg)
	record.Set("raw_tables", raw)
	record.Set("line_items", res.LineItems)
	record.Set("totals", res.Totals)
	record.Set("grand_total", res.Totals.GrandTotal)
	record.Set("pdf", pdfFile)
	record.Set("excel", xlsxFile)

	if err := app.Save(record); err != nil {
		return nil, err
	}
	return record, nil
}
