// Package commands holds the CLI subcommands attached to the pocketbase root command.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quoter/config"
	"quoter/services"
)

// NewQuoteCommand returns the "quote" subcommand: it reads an .xlsx or .csv
// line item sheet and writes the marked-up PDF and workbook without touching
// the database. Flag defaults that the server also uses come from appCfg.
func NewQuoteCommand(appCfg *config.Config, log zerolog.Logger) *cobra.Command {
	cfg := services.DefaultQuoteConfig()
	var (
		in      string
		outDir  string
		taxType string
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Generate a marked-up quotation from a spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.TaxMode = services.TaxMode(taxType)
			written, err := runQuote(cmd.Context(), in, outDir, cfg)
			if err != nil {
				return err
			}
			for _, p := range written {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			log.Info().Str("in", in).Strs("out", written).Msg("quote written")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in, "in", "", "line item sheet (.xlsx or .csv)")
	f.StringVar(&outDir, "out", ".", "output directory")
	f.Float64Var(&cfg.MarkupPercent, "markup", services.DefaultMarkupPercent, "markup percentage")
	f.Float64Var(&cfg.DiscountFlat, "discount", 0, "flat discount")
	f.StringVar(&taxType, "tax-type", string(services.TaxPercentage), "sales tax mode: percentage or flat")
	f.Float64Var(&cfg.SalesTaxPct, "tax", 0, "sales tax percentage")
	f.Float64Var(&cfg.SalesTaxFlat, "tax-flat", 0, "flat sales tax amount")
	f.StringVar(&cfg.SenderName, "sender", "", "sender company name")
	f.StringVar(&cfg.RecipientName, "recipient", "", "recipient name")
	f.StringVar(&cfg.JobDescription, "job", "", "job description / notes")
	f.IntVar(&cfg.ValidDays, "valid-days", appCfg.QuoteValidDays, "days the quotation stays valid")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func runQuote(ctx context.Context, in, outDir string, cfg services.QuoteConfig) ([]string, error) {
	kind, err := services.DetectSource(in)
	if err != nil {
		return nil, err
	}
	if kind == services.SourcePDF {
		return nil, fmt.Errorf("%s: PDF extraction needs the server; upload it to /quotes/extract", in)
	}

	src, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	table, err := services.ImportSheet(src, kind)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in, err)
	}

	res, err := services.GenerateQuote(ctx, []services.Table{table}, cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	base := "Quotation_MarkedUp_" + strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	pdfPath := filepath.Join(outDir, base+".pdf")
	xlsxPath := filepath.Join(outDir, base+".xlsx")
	if err := os.WriteFile(pdfPath, res.PDF, 0o644); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	if err := os.WriteFile(xlsxPath, res.Excel, 0o644); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return []string{pdfPath, xlsxPath}, nil
}
