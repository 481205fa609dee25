package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoter/collections"
	"quoter/config"
	"quoter/services"
)

const noItemsMessage = "No line items were found in the document."

// HandleQuoteExtract accepts a multipart "file" upload. PDFs go through the
// document extractor; .xlsx and .csv files are read directly. The resulting
// tables are stored as an extractions record for later generation.
func HandleQuoteExtract(app *pocketbase.PocketBase, deps QuoteDeps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		log := requestLog(e, deps.Log, "quote_extract")

		maxBytes := deps.Config.MaxUploadBytes
		tooLarge := errorBody{Error: fmt.Sprintf("File exceeds the %d MB upload limit", maxBytes>>20)}
		if e.Request.ContentLength > maxBytes {
			return e.JSON(http.StatusRequestEntityTooLarge, tooLarge)
		}
		e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, maxBytes)
		if err := e.Request.ParseMultipartForm(maxBytes); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return e.JSON(http.StatusRequestEntityTooLarge, tooLarge)
			}
			return e.JSON(http.StatusBadRequest, errorBody{Error: "Expected a multipart form with a file"})
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return e.JSON(http.StatusBadRequest, errorBody{Error: "Missing file upload"})
		}
		defer file.Close()

		kind, err := services.DetectSource(header.Filename)
		if err != nil {
			return e.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		}

		data, err := io.ReadAll(file)
		if err != nil {
			log.Error().Err(err).Msg("failed to read upload")
			return e.JSON(http.StatusBadRequest, errorBody{Error: "Failed to read uploaded file"})
		}

		var tables []services.Table
		switch kind {
		case services.SourcePDF:
			tables, err = deps.Extractor.Extract(e.Request.Context(), data)
			if err != nil {
				return extractionFailure(e, err)
			}
		default:
			t, err := services.ImportSheet(bytes.NewReader(data), kind)
			if err != nil {
				log.Warn().Err(err).Str("file", header.Filename).Msg("sheet import failed")
				return e.JSON(http.StatusBadRequest, errorBody{Error: fmt.Sprintf("Could not read %s: %v", header.Filename, err)})
			}
			tables = []services.Table{t}
		}
		if tables == nil {
			tables = []services.Table{}
		}

		record, err := saveExtraction(app, header.Filename, kind, tables)
		if err != nil {
			log.Error().Err(err).Msg("failed to save extraction")
			return e.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to save extracted tables"})
		}

		log.Info().
			Str("id", record.Id).
			Str("kind", string(kind)).
			Int("tables", len(tables)).
			Msg("extraction stored")

		resp := map[string]any{
			"id":          record.Id,
			"source_kind": kind,
			"tables":      tables,
		}
		if len(tables) == 0 {
			resp["message"] = noItemsMessage
		}
		return e.JSON(http.StatusOK, resp)
	}
}

// extractionFailure maps extractor errors to a status: a missing credential
// is a server configuration problem, a failed service call is a bad gateway.
func extractionFailure(e *core.RequestEvent, err error) error {
	var extErr *services.ExtractionError
	switch {
	case errors.Is(err, config.ErrMissingCredential):
		return e.JSON(http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	case errors.As(err, &extErr):
		return e.JSON(http.StatusBadGateway, errorBody{Error: extErr.Error()})
	}
	return e.JSON(http.StatusInternalServerError, errorBody{Error: "Extraction failed"})
}

func saveExtraction(app *pocketbase.PocketBase, name string, kind services.SourceKind, tables []services.Table) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId(collections.Extractions)
	if err != nil {
		return nil, fmt.Errorf("collection not found: %w", err)
	}

	record := core.NewRecord(col)
	record.Set("source_name", name)
	record.Set("source_kind", string(kind))
	record.Set("tables", tables)
	record.Set("table_count", len(tables))
	if err := app.Save(record); err != nil {
		return nil, err
	}
	return record, nil
}

// loadExtractionTables decodes the tables stored on an extractions record.
func loadExtractionTables(app *pocketbase.PocketBase, id string) ([]services.Table, *core.Record, error) {
	record, err := app.FindRecordById(collections.Extractions, id)
	if err != nil {
		return nil, nil, fmt.Errorf("extraction not found: %w", err)
	}
	var tables []services.Table
	if err := record.UnmarshalJSONField("tables", &tables); err != nil {
		return nil, nil, fmt.Errorf("decode stored tables: %w", err)
	}
	return tables, record, nil
}
