package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoter/collections"
)

const (
	pdfContentType   = "application/pdf"
	excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}

// quoteFilename is the download name of a stored artifact.
func quoteFilename(number, ext string) string {
	return fmt.Sprintf("Quotation_MarkedUp_%s.%s", sanitizeFilename(number), ext)
}

// readQuoteArtifact loads the bytes of the file stored in a quotes record field.
func readQuoteArtifact(app *pocketbase.PocketBase, record *core.Record, field string) ([]byte, error) {
	name := record.GetString(field)
	if name == "" {
		return nil, fmt.Errorf("quote %s has no %s file", record.Id, field)
	}

	fsys, err := app.NewFilesystem()
	if err != nil {
		return nil, fmt.Errorf("open filesystem: %w", err)
	}
	defer fsys.Close()

	r, err := fsys.GetReader(record.BaseFilesPath() + "/" + name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

// HandleQuoteDownload returns a handler that downloads one stored artifact of
// a quote. field is "pdf" or "excel".
func HandleQuoteDownload(app *pocketbase.PocketBase, deps QuoteDeps, field string) func(*core.RequestEvent) error {
	contentType, ext := pdfContentType, "pdf"
	if field == "excel" {
		contentType, ext = excelContentType, "xlsx"
	}

	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		if quoteID == "" {
			return e.String(http.StatusBadRequest, "Missing quote ID")
		}

		record, err := app.FindRecordById(collections.Quotes, quoteID)
		if err != nil {
			return e.String(http.StatusNotFound, "Quote not found")
		}

		data, err := readQuoteArtifact(app, record, field)
		if err != nil {
			deps.Log.Error().Err(err).Str("id", quoteID).Str("field", field).Msg("download failed")
			return e.String(http.StatusNotFound, "File not found")
		}

		filename := quoteFilename(record.GetString("number"), ext)

		e.Response.Header().Set("Content-Type", contentType)
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(data)
		return nil
	}
}
