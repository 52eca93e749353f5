// Package service orchestrates statement extraction: it pulls pages from a
// text/geometry provider (or rows from a structured producer), runs both
// row parsers, merges their output and turns the survivors into normalized
// transactions with a summary.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/normalizer"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/parser"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/sniffer"
	"github.com/FACorreiaa/statement-converter/pkg/money"
)

const tracerName = "github.com/FACorreiaa/statement-converter/internal/domain/extract/service"

// Extraction methods reported in Result.Method.
const (
	MethodHeuristic  = "heuristic"
	MethodStructured = "structured"
)

var (
	// ErrNoPages is wrapped in an ExtractionError when a document has no pages.
	ErrNoPages = errors.New("document has no pages")
	// ErrNoTransactions is what callers report for an empty result.
	ErrNoTransactions = errors.New("no transactions found in document")
)

// PageSource extracts per-page text and word geometry from a document.
type PageSource interface {
	Pages(ctx context.Context, data []byte) ([]model.Page, error)
}

// PageCounter is implemented by page sources that can count the pages of a
// document without extracting them. The structured path uses it to apply
// the page limit before sending a document out.
type PageCounter interface {
	PageCount(ctx context.Context, data []byte) (int, error)
}

// ItemSource extracts table rows from a document with a structured
// document model.
type ItemSource interface {
	Items(ctx context.Context, data []byte) ([]model.Item, error)
}

// Recorder receives pipeline measurements.
type Recorder interface {
	DocumentProcessed(method string, pages, transactions int, elapsed time.Duration)
	CandidatesParsed(parser string, n int)
	FieldUnparseable(field string)
	StructuredFallback()
}

type nopRecorder struct{}

func (nopRecorder) DocumentProcessed(string, int, int, time.Duration) {}
func (nopRecorder) CandidatesParsed(string, int) {}
func (nopRecorder) FieldUnparseable(string) {}
func (nopRecorder) StructuredFallback() {}

// Options configures a Service.
type Options struct {
	// MaxPages rejects larger documents. Zero means no limit.
	MaxPages int
	// Currency is the ISO-4217 code used for summary totals.
	Currency string
	// NoiseKeywords replaces the default boilerplate keyword list when set.
	NoiseKeywords []string
	// Now returns the reference time for year inference. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxPages: 100,
		Currency: money.ZAR,
	}
}

// Result is the outcome of one conversion.
type Result struct {
	ID           uuid.UUID           `json:"id"`
	Source       string              `json:"source"`
	Method       string              `json:"method"`
	Pages        int                 `json:"pages"`
	Scanned      bool                `json:"scanned"`
	Transactions []model.Transaction `json:"transactions"`
	Summary      model.Summary       `json:"summary"`
	Unparseable  int                 `json:"unparseable_fields"`
}

// Empty reports whether no transaction was found.
func (r *Result) Empty() bool {
	return r == nil || len(r.Transactions) == 0
}

// Service converts statements into transactions.
type Service struct {
	pages      PageSource
	items      ItemSource // Optional: nil disables the structured path
	noise      *normalizer.NoiseFilter
	normalizer *normalizer.Normalizer
	recorder   Recorder
	tracer     trace.Tracer
	opts       Options
	logger     *slog.Logger
}

// NewService creates a new extraction service
func NewService(pages PageSource, opts Options, logger *slog.Logger) *Service {
	if opts.Currency == "" {
		opts.Currency = money.ZAR
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	keywords := opts.NoiseKeywords
	if len(keywords) == 0 {
		keywords = normalizer.DefaultNoiseKeywords()
	}

	return &Service{
		pages:      pages,
		noise:      normalizer.NewNoiseFilter(keywords),
		normalizer: normalizer.NewNormalizer(),
		recorder:   nopRecorder{},
		tracer:     otel.Tracer(tracerName),
		opts:       opts,
		logger:     logger,
	}
}

// WithItemSource enables the structured path. It is tried first and the
// heuristic path runs when it fails.
func (s *Service) WithItemSource(items ItemSource) *Service {
	s.items = items
	return s
}

// WithRecorder attaches a metrics recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Convert extracts, normalizes and summarizes the transactions of a document.
// A document without transactions yields an empty result, not an error.
func (s *Service) Convert(ctx context.Context, name string, data []byte) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "extract.Convert",
		trace.WithAttributes(attribute.String("document.name", name), attribute.Int("document.bytes", len(data))))
	defer span.End()

	start := time.Now()
	result, err := s.convert(ctx, name, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversion failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("extract.method", result.Method),
		attribute.Int("extract.transactions", len(result.Transactions)),
	)
	s.recorder.DocumentProcessed(result.Method, result.Pages, len(result.Transactions), time.Since(start))
	s.logger.Info("statement converted",
		slog.String("id", result.ID.String()),
		slog.String("source", name),
		slog.String("method", result.Method),
		slog.Int("pages", result.Pages),
		slog.Int("transactions", len(result.Transactions)),
		slog.Int("unparseable_fields", result.Unparseable),
	)
	return result, nil
}

func (s *Service) convert(ctx context.Context, name string, data []byte) (*Result, error) {
	if s.items != nil {
		result, err := s.ExtractItems(ctx, data)
		if err == nil {
			result.Source = name
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, model.ErrTooManyPages) {
			return nil, err
		}
		s.recorder.StructuredFallback()
		s.logger.Warn("structured extraction failed, falling back to heuristic parsers",
			slog.String("source", name), slog.Any("error", err))
	}

	pages, err := s.pages.Pages(ctx, data)
	if err != nil {
		var extErr *model.ExtractionError
		if errors.As(err, &extErr) || errors.Is(err, model.ErrTooManyPages) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &model.ExtractionError{Source: name, Err: err}
	}
	if len(pages) == 0 {
		return nil, &model.ExtractionError{Source: name, Err: ErrNoPages}
	}

	result, err := s.Extract(ctx, pages)
	if err != nil {
		return nil, err
	}
	result.Source = name
	return result, nil
}

// Extract runs the heuristic path over already extracted pages.
func (s *Service) Extract(ctx context.Context, pages []model.Page) (*Result, error) {
	if s.opts.MaxPages > 0 && len(pages) > s.opts.MaxPages {
		return nil, fmt.Errorf("%w: %d pages, limit %d", model.ErrTooManyPages, len(pages), s.opts.MaxPages)
	}

	_, span := s.tracer.Start(ctx, "extract.Parse", trace.WithAttributes(attribute.Int("document.pages", len(pages))))
	year := parser.InferYear(model.JoinText(pages), s.opts.Now())
	var columns sniffer.ColumnMap
	if len(pages) > 0 {
		columns = sniffer.DetectColumns(pages[0].Words, pages[0].Width)
	} else {
		columns = sniffer.DefaultColumns()
	}

	// The parsers only read their input, so they run side by side.
	var (
		wg             sync.WaitGroup
		visual, byText []model.Candidate
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		visual = parser.ParseVisual(pages, columns, year)
	}()
	go func() {
		defer wg.Done()
		byText = parser.ParseText(model.JoinText(pages), year)
	}()
	wg.Wait()
	span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.recorder.CandidatesParsed("visual", len(visual))
	s.recorder.CandidatesParsed("text", len(byText))
	s.logger.Debug("candidates parsed",
		slog.Int("year", year),
		slog.Bool("headers_found", columns.FromHeaders),
		slog.Int("visual", len(visual)),
		slog.Int("text", len(byText)),
	)

	candidates := s.noise.Filter(Merge(visual, byText))

	result := s.finish(candidates)
	result.Method = MethodHeuristic
	result.Pages = len(pages)
	for _, p := range pages {
		result.Scanned = result.Scanned || p.Scanned
	}
	return result, nil
}

// ExtractItems runs the structured path: the item source reads the table
// rows and the result goes through the same normalization as parsed rows.
func (s *Service) ExtractItems(ctx context.Context, data []byte) (*Result, error) {
	if s.items == nil {
		return nil, errors.New("no structured item source configured")
	}

	ctx, span := s.tracer.Start(ctx, "extract.Items")
	defer span.End()

	pages, err := s.countPages(ctx, data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	items, err := s.items.Items(ctx, data)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read structured items: %w", err)
	}

	year := parser.InferYear(itemText(items), s.opts.Now())
	candidates := AssembleItems(items, year)
	s.recorder.CandidatesParsed("structured", len(candidates))

	result := s.finish(candidates)
	result.Method = MethodStructured
	result.Pages = pages
	return result, nil
}

// countPages applies the page limit when the page source can count pages.
// A document the counter cannot open is left to the item source, so the
// count is zero then.
func (s *Service) countPages(ctx context.Context, data []byte) (int, error) {
	counter, ok := s.pages.(PageCounter)
	if !ok {
		return 0, nil
	}
	n, err := counter.PageCount(ctx, data)
	if err != nil {
		s.logger.Debug("page count unavailable", slog.Any("error", err))
		return 0, nil
	}
	if s.opts.MaxPages > 0 && n > s.opts.MaxPages {
		return 0, fmt.Errorf("%w: %d pages, limit %d", model.ErrTooManyPages, n, s.opts.MaxPages)
	}
	return n, nil
}

func itemText(items []model.Item) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(it.Date)
		b.WriteByte(' ')
		b.WriteString(it.Description)
		b.WriteByte('\n')
	}
	return b.String()
}

// finish normalizes and validates candidates and builds the result.
func (s *Service) finish(candidates []model.Candidate) *Result {
	result := &Result{
		ID:           uuid.New(),
		Transactions: make([]model.Transaction, 0, len(candidates)),
	}

	for _, c := range candidates {
		tx, fieldErrs := s.normalizer.Normalize(c)
		for _, fe := range fieldErrs {
			result.Unparseable++
			s.recorder.FieldUnparseable(fe.Field)
			s.logger.Debug("field could not be normalized",
				slog.String("field", fe.Field),
				slog.String("value", fe.Value),
				slog.Any("error", fe.Err),
			)
		}
		if normalizer.Valid(tx) {
			result.Transactions = append(result.Transactions, tx)
		}
	}

	result.Summary = Summarize(result.Transactions, s.opts.Currency)
	return result
}
