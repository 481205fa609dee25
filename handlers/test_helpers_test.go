package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog"

	"quoter/config"
	"quoter/services"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// fakeExtractor returns canned tables or an error.
type fakeExtractor struct {
	tables []services.Table
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte) ([]services.Table, error) {
	f.calls++
	return f.tables, f.err
}

func newTestDeps(ex services.Extractor) QuoteDeps {
	return QuoteDeps{
		Config:    config.Default(),
		Extractor: ex,
		Log:       zerolog.New(io.Discard),
	}
}

// newUploadRequest builds a multipart POST with content under the "file" field.
func newUploadRequest(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return out
}

const sampleGenerateBody = `{
	"tables": [{"columns": ["Description", "Quantity", "Unit Price", "Total"],
	            "rows": [["Widget", 2, 5, 0], ["Labor", 1, 80, 80]]}],
	"config": {"markup_percentage": 10, "discount_flat": 0, "tax_type": "percentage",
	           "sales_tax_percentage": 0, "sender_name": "Acme Supply", "recipient_name": "Jordan Client"}
}`

// generateTestQuote stores a quote through the generate handler and returns its id.
func generateTestQuote(t *testing.T, app *pocketbase.PocketBase) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, newJSONRequest(http.MethodPost, "/quotes/generate", sampleGenerateBody), rec)
	if err := HandleQuoteGenerate(app, newTestDeps(&fakeExtractor{}))(e); err != nil {
		t.Fatalf("generate handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	id, _ := decodeBody(t, rec)["id"].(string)
	if id == "" {
		t.Fatal("generate: response has no id")
	}
	return id
}
