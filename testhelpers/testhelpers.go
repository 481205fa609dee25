// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoter/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// SampleTables is one canonical line item table in its stored JSON form:
// Widget 2 x $5 and Labor 1 x $80.
func SampleTables() []map[string]any {
	return []map[string]any{{
		"columns": []string{"Description", "Quantity", "Unit Price", "Total"},
		"rows": []map[string]any{
			{"Description": "Widget", "Quantity": 2, "Unit Price": 5, "Total": 10},
			{"Description": "Labor", "Quantity": 1, "Unit Price": 80, "Total": 80},
		},
	}}
}

// CreateTestExtraction stores an extractions record holding SampleTables and returns it.
func CreateTestExtraction(t *testing.T, app *pocketbase.PocketBase, sourceName, kind string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.Extractions)
	if err != nil {
		t.Fatalf("failed to find extractions collection: %v", err)
	}

	tables := SampleTables()
	record := core.NewRecord(col)
	record.Set("source_name", sourceName)
	record.Set("source_kind", kind)
	record.Set("tables", tables)
	record.Set("table_count", len(tables))

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test extraction: %v", err)
	}

	return record
}

// CreateTestQuote stores a quotes record without artifacts and returns it.
// extractionID may be empty.
func CreateTestQuote(t *testing.T, app *pocketbase.PocketBase, extractionID, number string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.Quotes)
	if err != nil {
		t.Fatalf("failed to find quotes collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("number", number)
	if extractionID != "" {
		record.Set("extraction", extractionID)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quote: %v", err)
	}

	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, body:\n%s", frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
