// Package pdftext reads per-page text and word geometry out of PDF documents.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

const (
	// Pages with less extracted text than this are treated as scanned images.
	minTextChars = 50

	// US Letter, used when a page carries no usable MediaBox.
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0

	// rowTolerance is the largest baseline difference between glyphs of one row.
	rowTolerance = 2.0
	// Glyphs closer than this fraction of the font size belong to one word.
	wordGapRatio = 0.25
	// wordGapFallback applies when a glyph carries no font size.
	wordGapFallback = 1.0
)

// ErrEmptyDocument is returned for zero-length input.
var ErrEmptyDocument = errors.New("empty document")

// OCR recognizes the text of a single page, numbered from 1.
type OCR interface {
	PageText(ctx context.Context, data []byte, page int) (string, error)
}

// Extractor implements the page provider of the extraction pipeline.
type Extractor struct {
	ocr      OCR // Optional
	maxPages int
	logger   *slog.Logger
}

// NewExtractor creates an extractor. maxPages of zero means no limit.
func NewExtractor(maxPages int, logger *slog.Logger) *Extractor {
	return &Extractor{maxPages: maxPages, logger: logger}
}

// WithOCR substitutes recognized text for pages without a text layer.
func (e *Extractor) WithOCR(ocr OCR) *Extractor {
	e.ocr = ocr
	return e
}

// PageCount opens a PDF document and returns its number of pages.
func (e *Extractor) PageCount(ctx context.Context, data []byte) (n int, err error) {
	if len(data) == 0 {
		return 0, ErrEmptyDocument
	}

	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("pdf reader crashed: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	return reader.NumPage(), nil
}

// Pages returns the text and words of every page of a PDF document.
func (e *Extractor) Pages(ctx context.Context, data []byte) (pages []model.Page, err error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	// The PDF reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf reader crashed: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	total := reader.NumPage()
	if e.maxPages > 0 && total > e.maxPages {
		return nil, fmt.Errorf("%w: %d pages, limit %d", model.ErrTooManyPages, total, e.maxPages)
	}

	pages = make([]model.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}

		width, height := mediaBox(p)
		words := BuildWords(p.Content().Text, height)
		page := model.Page{
			Number: i,
			Words:  words,
			Text:   PageText(words),
			Width:  width,
		}
		page.Text, page.Scanned = e.recognize(ctx, data, i, page.Text)
		pages = append(pages, page)
	}

	return pages, nil
}

// recognize replaces the text of a page that looks scanned when an OCR
// engine is available. The original text is kept when OCR fails.
func (e *Extractor) recognize(ctx context.Context, data []byte, number int, text string) (string, bool) {
	if len(strings.TrimSpace(text)) >= minTextChars || e.ocr == nil {
		return text, false
	}

	recognized, err := e.ocr.PageText(ctx, data, number)
	if err != nil {
		e.logger.Warn("ocr failed, keeping extracted text",
			slog.Int("page", number), slog.Any("error", err))
		return text, false
	}
	recognized = norm.NFKC.String(recognized)
	if strings.TrimSpace(recognized) == "" {
		return text, false
	}

	e.logger.Debug("page text replaced by ocr", slog.Int("page", number), slog.Int("chars", len(recognized)))
	return recognized, true
}

func mediaBox(p pdf.Page) (width, height float64) {
	box := p.V.Key("MediaBox")
	if box.Kind() != pdf.Array || box.Len() != 4 {
		return defaultPageWidth, defaultPageHeight
	}
	width = box.Index(2).Float64() - box.Index(0).Float64()
	height = box.Index(3).Float64() - box.Index(1).Float64()
	if width <= 0 || height <= 0 {
		return defaultPageWidth, defaultPageHeight
	}
	return width, height
}

// BuildWords merges positioned glyphs into words. PDF coordinates grow
// upwards, so each word's Top is measured from the top edge of a page of
// the given height. Words are returned top to bottom, left to right, with
// their text NFKC-normalized.
func BuildWords(glyphs []pdf.Text, pageHeight float64) []model.Word {
	visible := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			visible = append(visible, g)
		}
	}
	if len(visible) == 0 {
		return nil
	}

	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Y > visible[j].Y })

	var words []model.Word
	for _, row := range glyphRows(visible) {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
		words = append(words, rowWords(row, pageHeight)...)
	}
	return words
}

func glyphRows(sorted []pdf.Text) [][]pdf.Text {
	var rows [][]pdf.Text
	current := []pdf.Text{sorted[0]}
	for _, g := range sorted[1:] {
		if math.Abs(g.Y-current[0].Y) <= rowTolerance {
			current = append(current, g)
			continue
		}
		rows = append(rows, current)
		current = []pdf.Text{g}
	}
	return append(rows, current)
}

type wordBuilder struct {
	text     strings.Builder
	x0, x1   float64
	top      float64
	fontSize float64
	open     bool
}

func rowWords(row []pdf.Text, pageHeight float64) []model.Word {
	var (
		words []model.Word
		cur   wordBuilder
	)

	flush := func() {
		if !cur.open {
			return
		}
		text := strings.TrimSpace(norm.NFKC.String(cur.text.String()))
		if text != "" {
			words = append(words, model.Word{Text: text, X0: cur.x0, X1: cur.x1, Top: cur.top})
		}
		cur = wordBuilder{}
	}

	for _, g := range row {
		for _, piece := range splitGlyph(g) {
			if strings.TrimSpace(piece.S) == "" {
				flush()
				continue
			}

			gap := wordGapFallback
			if cur.fontSize > 0 {
				gap = wordGapRatio * cur.fontSize
			}
			if cur.open && piece.X-cur.x1 > gap {
				flush()
			}
			if !cur.open {
				cur.open = true
				cur.x0 = piece.X
				cur.fontSize = piece.FontSize
				cur.top = pageHeight - piece.Y - piece.FontSize
			}
			cur.text.WriteString(piece.S)
			cur.x1 = piece.X + piece.W
		}
	}
	flush()

	return words
}

// splitGlyph breaks a text run that contains spaces into runs of single
// tokens and separators, spreading the run width evenly over its runes.
func splitGlyph(g pdf.Text) []pdf.Text {
	if !strings.ContainsFunc(g.S, unicode.IsSpace) {
		return []pdf.Text{g}
	}

	runes := []rune(g.S)
	step := g.W / float64(len(runes))
	var (
		pieces []pdf.Text
		start  int
	)
	emit := func(end int) {
		if end <= start {
			return
		}
		p := g
		p.S = string(runes[start:end])
		p.X = g.X + float64(start)*step
		p.W = float64(end-start) * step
		pieces = append(pieces, p)
	}

	for i, r := range runes {
		if unicode.IsSpace(r) {
			emit(i)
			start = i
			emit(i + 1)
			start = i + 1
		}
	}
	emit(len(runes))
	return pieces
}

// PageText rebuilds the plain text of a page from its words, one line per
// row of words.
func PageText(words []model.Word) string {
	if len(words) == 0 {
		return ""
	}

	var (
		lines   []string
		current []string
		top     = words[0].Top
	)
	for _, w := range words {
		if math.Abs(w.Top-top) > rowTolerance {
			lines = append(lines, strings.Join(current, " "))
			current = nil
			top = w.Top
		}
		current = append(current, w.Text)
	}
	lines = append(lines, strings.Join(current, " "))
	return strings.Join(lines, "\n")
}
