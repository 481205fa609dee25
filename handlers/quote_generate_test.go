package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"quoter/collections"
	"quoter/testhelpers"
)

func TestHandleQuoteGenerate_Tables(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	id := generateTestQuote(t, app)

	record, err := app.FindRecordById(collections.Quotes, id)
	if err != nil {
		t.Fatalf("quote record not stored: %v", err)
	}
	if !strings.HasPrefix(record.GetString("number"), "Q-") {
		t.Errorf("number = %q", record.GetString("number"))
	}
	if record.GetString("pdf") == "" || record.GetString("excel") == "" {
		t.Errorf("both artifacts should be stored, got pdf=%q excel=%q", record.GetString("pdf"), record.GetString("excel"))
	}
	// (2 x 5 + 80) marked up 10%.
	if got := record.GetFloat("grand_total"); got < 98.999 || got > 99.001 {
		t.Errorf("grand_total = %v, want 99", got)
	}
	if record.GetString("recipient_name") != "Jordan Client" {
		t.Errorf("recipient_name = %q", record.GetString("recipient_name"))
	}
}

func TestHandleQuoteGenerate_Response(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, newJSONRequest(http.MethodPost, "/quotes/generate", sampleGenerateBody), rec)
	if err := HandleQuoteGenerate(app, newTestDeps(&fakeExtractor{}))(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	id := body["id"].(string)
	if body["pdf_url"] != fmt.Sprintf("/quotes/%s/pdf", id) {
		t.Errorf("pdf_url = %v", body["pdf_url"])
	}
	if body["excel_url"] != fmt.Sprintf("/quotes/%s/excel", id) {
		t.Errorf("excel_url = %v", body["excel_url"])
	}
	totals := body["totals"].(map[string]any)
	if totals["subtotal"] != 99.0 {
		t.Errorf("subtotal = %v, want 99", totals["subtotal"])
	}
	items := body["line_items"].([]any)
	rows := items[0].(map[string]any)["rows"].([]any)
	if got := rows[0].(map[string]any)["Total"]; got != "$11.00" {
		t.Errorf("first marked-up total = %v, want $11.00", got)
	}
}

func TestHandleQuoteGenerate_FromExtraction(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	ext := testhelpers.CreateTestExtraction(t, app, "quote.pdf", "pdf")
	handler := HandleQuoteGenerate(app, newTestDeps(&fakeExtractor{}))

	body := fmt.Sprintf(`{"extraction_id": %q, "config": {"markup_percentage": 20}}`, ext.Id)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, newJSONRequest(http.MethodPost, "/quotes/generate", body), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	id := decodeBody(t, rec)["id"].(string)
	record, err := app.FindRecordById(collections.Quotes, id)
	if err != nil {
		t.Fatal(err)
	}
	if record.GetString("extraction") != ext.Id {
		t.Errorf("extraction = %q, want %q", record.GetString("extraction"), ext.Id)
	}
	// (10 + 80) x 1.2
	if got := record.GetFloat("grand_total"); got < 107.999 || got > 108.001 {
		t.Errorf("grand_total = %v, want 108", got)
	}
}

func TestHandleQuoteGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
		frag string
	}{
		{"invalid config", `{"tables": [], "config": {"markup_percentage": -1}}`, http.StatusUnprocessableEntity, "markup_percentage"},
		{"unknown tax type", `{"tables": [], "config": {"tax_type": "compound"}}`, http.StatusUnprocessableEntity, "tax_type"},
		{"unknown extraction", `{"extraction_id": "missing123"}`, http.StatusNotFound, "Extraction not found"},
		{"malformed body", `{"tables": [`, http.StatusBadRequest, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testhelpers.NewTestApp(t)
			handler := HandleQuoteGenerate(app, newTestDeps(&fakeExtractor{}))

			rec := httptest.NewRecorder()
			if err := handler(newTestRequestEvent(app, newJSONRequest(http.MethodPost, "/quotes/generate", tt.body), rec)); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.frag) {
				t.Errorf("body should mention %q: %s", tt.frag, rec.Body.String())
			}

			stored, err := app.FindAllRecords(collections.Quotes)
			if err != nil {
				t.Fatal(err)
			}
			if len(stored) != 0 {
				t.Errorf("failed generation stored %d quotes", len(stored))
			}
		})
	}
}

func TestHandleQuoteGenerate_SequentialNumbers(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	first, _ := app.FindRecordById(collections.Quotes, generateTestQuote(t, app))
	second, _ := app.FindRecordById(collections.Quotes, generateTestQuote(t, app))

	if first.GetString("number") == second.GetString("number") {
		t.Errorf("quote numbers should differ, both %q", first.GetString("number"))
	}
	if !strings.HasSuffix(second.GetString("number"), "-0002") {
		t.Errorf("second number = %q", second.GetString("number"))
	}
}

func TestDuplicateNumber(t *testing.T) {
	taken := validation.Errors{"number": validation.NewError("validation_not_unique", "Value must be unique")}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", taken, true},
		{"wrapped violation", fmt.Errorf("save: %w", taken), true},
		{"other field", validation.Errors{"recipient_name": errors.New("too long")}, false},
		{"plain error", errors.New("disk full"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := duplicateNumber(tt.err); got != tt.want {
				t.Errorf("duplicateNumber(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
