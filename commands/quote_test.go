package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"quoter/config"
	"quoter/services"
)

func TestQuoteCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "items.csv")
	require.NoError(t, os.WriteFile(in, []byte("Description,Quantity,Unit Price,Total\nWidget,2,5,\nLabor,1,80,80\n"), 0o644))
	out := filepath.Join(dir, "out")

	cmd := NewQuoteCommand(config.Default(), zerolog.New(io.Discard))
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--in", in, "--out", out, "--markup", "20", "--discount", "8", "--tax", "10", "--sender", "Acme"})
	require.NoError(t, cmd.Execute())

	pdfPath := filepath.Join(out, "Quotation_MarkedUp_items.pdf")
	xlsxPath := filepath.Join(out, "Quotation_MarkedUp_items.xlsx")
	assert.Equal(t, pdfPath+"\n"+xlsxPath+"\n", stdout.String())

	pdf, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, services.QuoteSheetName, f.GetSheetName(0))
	sender, err := f.GetCellValue(services.QuoteSheetName, "B4")
	require.NoError(t, err)
	assert.Equal(t, "Acme", sender)
}

func TestQuoteCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "scan.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644))
	csv := filepath.Join(dir, "items.csv")
	require.NoError(t, os.WriteFile(csv, []byte("Description,Total\nWidget,10\n"), 0o644))

	tests := []struct {
		name string
		args []string
		frag string
	}{
		{"missing input flag", []string{}, "required flag"},
		{"pdf input", []string{"--in", pdf}, "needs the server"},
		{"unsupported extension", []string{"--in", filepath.Join(dir, "notes.txt")}, "unsupported file format"},
		{"missing file", []string{"--in", filepath.Join(dir, "absent.csv")}, "open input"},
		{"negative markup", []string{"--in", csv, "--out", dir, "--markup=-1"}, "invalid configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewQuoteCommand(config.Default(), zerolog.New(io.Discard))
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.frag), "error %q should contain %q", err, tt.frag)
		})
	}
}

func TestRunQuote_InvalidConfigIsTyped(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "items.csv")
	require.NoError(t, os.WriteFile(in, []byte("Description,Total\nWidget,10\n"), 0o644))

	cfg := services.DefaultQuoteConfig()
	cfg.TaxMode = "compound"
	_, err := runQuote(context.Background(), in, dir, cfg)
	assert.True(t, errors.Is(err, services.ErrInvalidQuoteConfig))
}

func TestQuoteCommand_ValidDaysDefault(t *testing.T) {
	cmd := NewQuoteCommand(config.Default(), zerolog.New(io.Discard))
	assert.Equal(t, strconv.Itoa(services.DefaultValidDays), cmd.Flags().Lookup("valid-days").DefValue)

	cfg := config.Default()
	cfg.QuoteValidDays = 21
	cmd = NewQuoteCommand(cfg, zerolog.New(io.Discard))
	assert.Equal(t, "21", cmd.Flags().Lookup("valid-days").DefValue, "follows QUOTER_VALID_DAYS like the server")
}
