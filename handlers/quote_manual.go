package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"quoter/services"
)

// HandleQuoteManual returns the starting table for manual line item entry.
func HandleQuoteManual() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, map[string]any{
			"tables": []services.Table{services.NewManualTable()},
		})
	}
}
