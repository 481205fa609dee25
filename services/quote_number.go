package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
)

// formatQuoteNumber constructs the quote number string from components.
func formatQuoteNumber(year, sequence int) string {
	return fmt.Sprintf("Q-%d-%04d", year, sequence)
}

// NextQuoteNumber returns the number for the next stored quote.
// Format: Q-{year}-{sequence}
// - year: calendar year of now
// - sequence: 4-digit zero-padded, one past the highest used this year
//
// Two callers can still get the same number; the unique index on
// quotes.number rejects the second save and the caller allocates again.
func NextQuoteNumber(app *pocketbase.PocketBase, now time.Time) (string, error) {
	year := now.Year()
	prefix := fmt.Sprintf("Q-%d-", year)

	existing, err := app.FindRecordsByFilter(
		"quotes",
		"number ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{"prefix": prefix + "%"},
	)
	if err != nil {
		return "", fmt.Errorf("list quotes: %w", err)
	}

	highest := 0
	for _, r := range existing {
		seq, err := strconv.Atoi(strings.TrimPrefix(r.GetString("number"), prefix))
		if err == nil && seq > highest {
			highest = seq
		}
	}
	return formatQuoteNumber(year, highest+1), nil
}
