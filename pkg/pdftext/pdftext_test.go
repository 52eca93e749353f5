package pdftext

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

// MockOCR implements OCR for testing
type MockOCR struct {
	text  string
	err   error
	pages []int
}

func (m *MockOCR) PageText(ctx context.Context, data []byte, page int) (string, error) {
	m.pages = append(m.pages, page)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func glyph(s string, x, w, y float64) pdf.Text {
	return pdf.Text{S: s, X: x, W: w, Y: y, FontSize: 10}
}

func TestBuildWords(t *testing.T) {
	glyphs := []pdf.Text{
		glyph("Fee", 70, 15, 680),
		glyph(" ", 85, 3, 680),
		glyph("ﬁ", 88, 5, 680),
		glyph("ne", 93, 10, 680),
		glyph("250,00", 420, 30, 700),
		glyph("25/06/2024", 10, 50, 700),
		glyph("Payment to XYZ", 70, 70, 700.5),
		glyph("1", 350, 5, 700),
		glyph("200,00", 355.5, 30, 700),
		glyph("", 500, 5, 700),
	}

	words := BuildWords(glyphs, 800)

	require.Len(t, words, 8)
	assert.Equal(t, model.Word{Text: "25/06/2024", X0: 10, X1: 60, Top: 90}, words[0])
	assert.Equal(t, model.Word{Text: "Payment", X0: 70, X1: 105, Top: 89.5}, words[1])
	assert.Equal(t, model.Word{Text: "to", X0: 110, X1: 120, Top: 89.5}, words[2])
	assert.Equal(t, model.Word{Text: "XYZ", X0: 125, X1: 140, Top: 89.5}, words[3])
	assert.Equal(t, model.Word{Text: "1200,00", X0: 350, X1: 385.5, Top: 90}, words[4])
	assert.Equal(t, "250,00", words[5].Text)
	assert.Equal(t, model.Word{Text: "Fee", X0: 70, X1: 85, Top: 110}, words[6])
	assert.Equal(t, model.Word{Text: "fine", X0: 88, X1: 103, Top: 110}, words[7], "ligature is normalized")
}

func TestBuildWords_Empty(t *testing.T) {
	assert.Empty(t, BuildWords(nil, 792))
	assert.Empty(t, BuildWords([]pdf.Text{glyph("", 1, 1, 1)}, 792))
}

func TestPageText(t *testing.T) {
	words := BuildWords([]pdf.Text{
		glyph("Opening", 10, 35, 700),
		glyph("balance", 50, 35, 700),
		glyph("100,00", 400, 30, 701),
		glyph("Closing", 10, 35, 650),
	}, 800)

	assert.Equal(t, "Opening balance 100,00\nClosing", PageText(words))
	assert.Empty(t, PageText(nil))
}

func TestExtractor_Recognize(t *testing.T) {
	ctx := context.Background()
	long := strings.Repeat("statement line ", 10)

	tests := []struct {
		name        string
		ocr         *MockOCR
		text        string
		wantText    string
		wantScanned bool
		wantCalls   int
	}{
		{
			name:        "short page is replaced",
			ocr:         &MockOCR{text: "25/06/2024 Payment 100,00"},
			text:        "   ",
			wantText:    "25/06/2024 Payment 100,00",
			wantScanned: true,
			wantCalls:   1,
		},
		{
			name:      "page with text layer is kept",
			ocr:       &MockOCR{text: "ignored"},
			text:      long,
			wantText:  long,
			wantCalls: 0,
		},
		{
			name:      "ocr failure keeps original",
			ocr:       &MockOCR{err: errors.New("tesseract missing")},
			text:      "x",
			wantText:  "x",
			wantCalls: 1,
		},
		{
			name:      "blank ocr output keeps original",
			ocr:       &MockOCR{text: "  "},
			text:      "x",
			wantText:  "x",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(0, testLogger()).WithOCR(tt.ocr)

			text, scanned := e.recognize(ctx, []byte("%PDF"), 3, tt.text)

			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantScanned, scanned)
			assert.Len(t, tt.ocr.pages, tt.wantCalls)
		})
	}

	t.Run("no engine configured", func(t *testing.T) {
		e := NewExtractor(0, testLogger())

		text, scanned := e.recognize(ctx, nil, 1, "")
		assert.Empty(t, text)
		assert.False(t, scanned)
	})
}

func TestExtractor_Pages(t *testing.T) {
	e := NewExtractor(10, testLogger())

	t.Run("empty input", func(t *testing.T) {
		_, err := e.Pages(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("not a pdf", func(t *testing.T) {
		_, err := e.Pages(context.Background(), []byte("definitely not a pdf document"))
		assert.Error(t, err)
	})
}

func TestExtractor_PageCount(t *testing.T) {
	e := NewExtractor(0, testLogger())

	t.Run("empty input", func(t *testing.T) {
		_, err := e.PageCount(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("not a pdf", func(t *testing.T) {
		n, err := e.PageCount(context.Background(), []byte("definitely not a pdf document"))
		assert.Error(t, err)
		assert.Zero(t, n)
	})
}
