package services

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"quoter/config"
)

type fakeGenerator struct {
	text     string
	err      error
	calls    int
	model    string
	contents []*genai.Content
	deadline bool
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(f.text, genai.RoleModel),
		}},
	}, nil
}

func newTestExtractor(gen *fakeGenerator) *GeminiExtractor {
	cfg := config.Default()
	cfg.GeminiAPIKey = "test-key"
	g := NewGeminiExtractor(cfg, zerolog.New(io.Discard))
	g.models = gen
	return g
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a,b\n1,2", "a,b\n1,2"},
		{"```csv\na,b\n1,2\n```", "a,b\n1,2"},
		{"```\na,b\n```", "a,b"},
		{"  \n```csv\n```  ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseExtractedCSV(t *testing.T) {
	text := "```csv\n" +
		"Description, Qty, Unit Price, Amount\n" +
		"Widget,2,\"$1,250.00\",\"$2,500.00\"\n" +
		"Short row,1\n" +
		"Too,many,fields,here,extra\n" +
		",,,\n" +
		"Bolt \"large\",10,0.5,5\n" +
		"```"

	tables, err := ParseExtractedCSV(text)
	if err != nil {
		t.Fatalf("ParseExtractedCSV() error = %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	got := tables[0]

	wantCols := []string{"Description", "Qty", "Unit Price", "Amount"}
	if !reflect.DeepEqual(got.Columns, wantCols) {
		t.Errorf("columns = %q, want %q", got.Columns, wantCols)
	}
	wantRows := [][]any{
		{"Widget", "2", "$1,250.00", "$2,500.00"},
		{"Short row", "1", nil, nil},
		{`Bolt "large"`, "10", "0.5", "5"},
	}
	if !reflect.DeepEqual(got.Rows, wantRows) {
		t.Errorf("rows =\n %#v\nwant\n %#v", got.Rows, wantRows)
	}
}

func TestParseExtractedCSV_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "```csv\n```"} {
		tables, err := ParseExtractedCSV(in)
		if err != nil {
			t.Errorf("ParseExtractedCSV(%q) error = %v", in, err)
		}
		if len(tables) != 0 {
			t.Errorf("ParseExtractedCSV(%q) = %d tables, want 0", in, len(tables))
		}
	}
}

func TestGeminiExtractor_Extract(t *testing.T) {
	gen := &fakeGenerator{text: "Item,Total\nWidget,10\n"}
	ex := newTestExtractor(gen)

	tables, err := ex.Extract(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(tables) != 1 || len(tables[0].Rows) != 1 {
		t.Fatalf("unexpected tables: %+v", tables)
	}
	if gen.calls != 1 {
		t.Errorf("GenerateContent called %d times, want 1", gen.calls)
	}
	if gen.model != "gemini-2.5-flash" {
		t.Errorf("model = %q", gen.model)
	}
	if !gen.deadline {
		t.Error("request context has no deadline")
	}
	parts := gen.contents[0].Parts
	if len(parts) != 2 || parts[0].Text != ExtractionPrompt {
		t.Fatalf("first part should be the extraction prompt, got %+v", parts)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "application/pdf" {
		t.Errorf("second part should be the inline PDF, got %+v", parts[1])
	}
}

func TestGeminiExtractor_EmptyResponse(t *testing.T) {
	ex := newTestExtractor(&fakeGenerator{text: "  "})

	tables, err := ex.Extract(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(tables) != 0 {
		t.Errorf("expected no tables, got %d", len(tables))
	}
}

func TestGeminiExtractor_ServiceFailureNotRetried(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("503 unavailable")}
	ex := newTestExtractor(gen)

	_, err := ex.Extract(context.Background(), []byte("%PDF"))

	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %T: %v", err, err)
	}
	if gen.calls != 1 {
		t.Errorf("GenerateContent called %d times, want 1", gen.calls)
	}
}

func TestGeminiExtractor_Timeout(t *testing.T) {
	gen := &fakeGenerator{err: context.DeadlineExceeded}
	ex := newTestExtractor(gen)
	ex.cfg.ExtractTimeout = 5 * time.Second

	_, err := ex.Extract(context.Background(), []byte("%PDF"))

	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error should wrap the deadline: %v", err)
	}
}

func TestGeminiExtractor_MissingKey(t *testing.T) {
	ex := NewGeminiExtractor(config.Default(), zerolog.New(io.Discard))

	_, err := ex.Extract(context.Background(), []byte("%PDF"))

	if !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Key != "GEMINI_API_KEY" {
		t.Errorf("expected ConfigError for GEMINI_API_KEY, got %v", err)
	}
}

func TestGeminiExtractor_EmptyDocument(t *testing.T) {
	gen := &fakeGenerator{}
	ex := newTestExtractor(gen)

	_, err := ex.Extract(context.Background(), nil)

	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("service should not be called for an empty document")
	}
}

func TestGeminiExtractor_ClientSharedAcrossRequests(t *testing.T) {
	cfg := config.Default()
	cfg.GeminiAPIKey = "test-key"
	ex := NewGeminiExtractor(cfg, zerolog.New(io.Discard))

	const workers = 8
	got := make([]contentGenerator, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = ex.client(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if got[i] == nil || got[i] != got[0] {
			t.Errorf("worker %d got a different client", i)
		}
	}
}
