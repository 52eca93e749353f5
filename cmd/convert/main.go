// Command convert turns a bank statement PDF into JSON, Excel or CSV.
//
// Usage:
//
//	convert -in statement.pdf [-out transactions.xlsx] [-format excel]
//
// Extraction settings come from the same environment variables as the API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/docintel"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/export"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/service"
	"github.com/FACorreiaa/statement-converter/pkg/config"
	"github.com/FACorreiaa/statement-converter/pkg/pdftext"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "convert:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		in      = fs.String("in", "", "Path to the statement PDF (required)")
		out     = fs.String("out", "", "Output file (default: stdout)")
		format  = fs.String("format", "", "Output format: json, excel or csv (default: from -out extension, else json)")
		verbose = fs.Bool("v", false, "Log pipeline details")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		fs.Usage()
		return errors.New("-in is required")
	}

	outFormat, err := resolveFormat(*format, *out)
	if err != nil {
		return err
	}
	if outFormat == export.FormatExcel && *out == "" {
		return errors.New("excel output needs -out")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	svc, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	result, err := svc.Convert(ctx, filepath.Base(*in), data)
	if err != nil {
		return err
	}
	if result.Empty() {
		return service.ErrNoTransactions
	}

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, outFormat, result.Transactions, result.Summary); err != nil {
		return fmt.Errorf("failed to write %s: %w", outFormat, err)
	}

	if *out != "" {
		printSummary(stdout, result, *out)
	}
	return nil
}

func newService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*service.Service, error) {
	extractor := pdftext.NewExtractor(cfg.Extraction.MaxPages, logger)
	if cfg.OCR.Enabled {
		ocr := pdftext.NewTesseractOCR(cfg.OCR.Language)
		if err := ocr.Available(); err != nil {
			logger.Warn("OCR unavailable", slog.Any("error", err))
		} else {
			extractor.WithOCR(ocr)
		}
	}

	svc := service.NewService(extractor, service.Options{
		MaxPages:      cfg.Extraction.MaxPages,
		Currency:      cfg.Extraction.Currency,
		NoiseKeywords: cfg.Extraction.NoiseKeywords,
	}, logger)

	if cfg.Gemini.StructuredEnabled() {
		source, err := docintel.NewGeminiSource(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			return nil, err
		}
		svc.WithItemSource(source)
	}
	return svc, nil
}

// resolveFormat prefers the explicit flag, then the output extension.
func resolveFormat(flagValue, out string) (export.Format, error) {
	if flagValue != "" {
		return export.ParseFormat(flagValue)
	}
	switch strings.ToLower(filepath.Ext(out)) {
	case ".xlsx":
		return export.FormatExcel, nil
	case ".csv":
		return export.FormatCSV, nil
	default:
		return export.FormatJSON, nil
	}
}

func printSummary(w io.Writer, result *service.Result, out string) {
	s := result.Summary
	fmt.Fprintf(w, "%d transactions (%s, %d pages) written to %s\n", s.TotalTransactions, result.Method, result.Pages, out)
	fmt.Fprintf(w, "  debits:  %s\n", s.TotalDebits)
	fmt.Fprintf(w, "  credits: %s\n", s.TotalCredits)
	if s.DateRange != nil {
		fmt.Fprintf(w, "  period:  %s\n", *s.DateRange)
	}
	if result.Unparseable > 0 {
		fmt.Fprintf(w, "  %d fields could not be parsed\n", result.Unparseable)
	}
}
