package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"quoter/config"
)

// ExtractionPrompt is the fixed instruction sent with every document.
const ExtractionPrompt = `You are a highly accurate data extraction tool.
I am providing you with a PDF document that contains quotation/invoice data.
Your objective is to extract ALL of the main tabular items/products data (e.g. description, quantity, unit price, total).
CRITICAL: You must extract EVERY SINGLE ROW across ALL PAGES of the document. Do NOT summarize. Do NOT omit any items.
Output the extracted table strictly in valid CSV format.
Do NOT wrap the output in markdown blocks (e.g. ` + "```csv" + `). Send back ONLY the raw CSV text.
The first row must contain the column headers.`

// Extractor turns a PDF into raw tables. An empty result is valid and means
// no line items were found.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) ([]Table, error)
}

// ExtractionError reports a failed or unusable response from the
// document-understanding service.
type ExtractionError struct {
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Message, e.Err)
	}
	return "extraction failed: " + e.Message
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// contentGenerator is the part of the genai client the extractor uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor sends the PDF inline to a Gemini model and parses the CSV
// it answers with. Requests are made once; failures are not retried.
type GeminiExtractor struct {
	cfg *config.Config
	log zerolog.Logger

	mu     sync.Mutex
	models contentGenerator
}

// NewGeminiExtractor returns an extractor bound to cfg. The API client is
// created on first use so a missing key only affects extraction.
func NewGeminiExtractor(cfg *config.Config, log zerolog.Logger) *GeminiExtractor {
	return &GeminiExtractor{cfg: cfg, log: log.With().Str("component", "extractor").Logger()}
}

var _ Extractor = (*GeminiExtractor)(nil)

// client returns the shared API client, creating it on first use. A missing
// key is reported on every call until one is configured.
func (g *GeminiExtractor) client(ctx context.Context) (contentGenerator, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.models != nil {
		return g.models, nil
	}
	key, err := g.cfg.RequireGeminiKey()
	if err != nil {
		return nil, err
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ExtractionError{Message: "create client", Err: err}
	}
	g.models = c.Models
	return g.models, nil
}

// Extract implements Extractor.
func (g *GeminiExtractor) Extract(ctx context.Context, pdf []byte) ([]Table, error) {
	if len(pdf) == 0 {
		return nil, &ExtractionError{Message: "empty document"}
	}
	models, err := g.client(ctx)
	if err != nil {
		return nil, err
	}

	timeout := g.cfg.ExtractTimeout
	if timeout <= 0 {
		timeout = config.DefaultExtractTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(ExtractionPrompt),
			genai.NewPartFromBytes(pdf, "application/pdf"),
		}, genai.RoleUser),
	}

	start := time.Now()
	resp, err := models.GenerateContent(ctx, g.cfg.GeminiModel, contents, nil)
	if err != nil {
		g.log.Error().Err(err).Str("model", g.cfg.GeminiModel).Dur("elapsed", time.Since(start)).Msg("gemini request failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &ExtractionError{Message: fmt.Sprintf("no response within %s", timeout), Err: err}
		}
		return nil, &ExtractionError{Message: "gemini request", Err: err}
	}

	tables, err := ParseExtractedCSV(resp.Text())
	if err != nil {
		return nil, &ExtractionError{Message: "malformed CSV response", Err: err}
	}
	g.log.Info().
		Str("model", g.cfg.GeminiModel).
		Int("tables", len(tables)).
		Int("bytes", len(pdf)).
		Dur("elapsed", time.Since(start)).
		Msg("document extracted")
	return tables, nil
}

// StripCodeFence removes a surrounding ```csv / ``` markdown fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```csv")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseExtractedCSV parses a model response into at most one table. An empty
// response yields no tables. Records with more fields than the header are
// skipped and shorter records are padded with empty cells.
func ParseExtractedCSV(text string) ([]Table, error) {
	body := StripCodeFence(text)
	if body == "" {
		return nil, nil
	}

	headers, rows, err := readCSVRecords(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, nil
	}
	return []Table{tableFromStrings(headers, rows)}, nil
}

// readCSVRecords reads a header and the data records that fit under it,
// skipping lines the parser rejects.
func readCSVRecords(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var headers []string
	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		if headers == nil {
			headers = trimAll(rec)
			continue
		}
		if len(rec) > len(headers) || blankRecord(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return headers, rows, nil
}

func tableFromStrings(headers []string, rows [][]string) Table {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		row := make([]any, len(headers))
		for i := range headers {
			if i < len(r) {
				row[i] = strings.TrimSpace(r[i])
			}
		}
		out = append(out, row)
	}
	return NewTable(headers, out)
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func blankRecord(rec []string) bool {
	for _, s := range rec {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
