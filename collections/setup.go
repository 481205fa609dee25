package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Collection names.
const (
	Extractions = "extractions"
	Quotes      = "quotes"
)

// Source kinds accepted by the extractions collection.
var SourceKinds = []string{"pdf", "xlsx", "csv", "manual"}

// QuoteNumberIndex is the unique index on quotes.number.
const QuoteNumberIndex = "idx_quotes_number"

const (
	maxTablesJSON   = 5 << 20
	maxArtifactSize = 20 << 20
)

// Setup programmatically creates/ensures the extractions and quotes
// collections exist.
func Setup(app *pocketbase.PocketBase) {
	extractions := ensureCollection(app, Extractions, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "source_name", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "source_kind",
			Required:  true,
			Values:    SourceKinds,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.JSONField{Name: "tables", MaxSize: maxTablesJSON})
		c.Fields.Add(&core.NumberField{Name: "table_count", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, Quotes, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "number", Required: true})
		c.Fields.Add(&core.RelationField{
			Name:          "extraction",
			Required:      false,
			CollectionId:  extractions.Id,
			CascadeDelete: false,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "recipient_name", Required: false})
		c.Fields.Add(&core.JSONField{Name: "config", MaxSize: maxTablesJSON})
		c.Fields.Add(&core.JSONField{Name: "raw_tables", MaxSize: maxTablesJSON})
		c.Fields.Add(&core.JSONField{Name: "line_items", MaxSize: maxTablesJSON})
		c.Fields.Add(&core.JSONField{Name: "totals"})
		c.Fields.Add(&core.NumberField{Name: "grand_total", Required: false})
		c.Fields.Add(&core.FileField{Name: "pdf", MaxSelect: 1, MaxSize: maxArtifactSize})
		c.Fields.Add(&core.FileField{Name: "excel", MaxSelect: 1, MaxSize: maxArtifactSize})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex(QuoteNumberIndex, true, "number", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
