package pdftext

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// TesseractOCR rasterizes a page with pdftoppm and reads it with tesseract.
// Both binaries must be on PATH.
type TesseractOCR struct {
	Language string
	DPI      int
}

// NewTesseractOCR creates an OCR engine for the given tesseract language.
func NewTesseractOCR(language string) *TesseractOCR {
	if language == "" {
		language = "eng"
	}
	return &TesseractOCR{Language: language, DPI: 300}
}

// Available reports whether the required binaries are installed.
func (t *TesseractOCR) Available() error {
	for _, bin := range []string{"pdftoppm", "tesseract"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not available: %w", bin, err)
		}
	}
	return nil
}

// PageText implements OCR.
func (t *TesseractOCR) PageText(ctx context.Context, data []byte, page int) (string, error) {
	if err := t.Available(); err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp("", "statement-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(src, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	prefix := filepath.Join(dir, "page")
	n := strconv.Itoa(page)
	raster := exec.CommandContext(ctx, "pdftoppm",
		"-r", strconv.Itoa(t.DPI), "-png", "-singlefile", "-f", n, "-l", n, src, prefix)
	if out, err := raster.CombinedOutput(); err != nil {
		return "", fmt.Errorf("pdftoppm failed on page %d: %w (output: %s)", page, err, strings.TrimSpace(string(out)))
	}

	// PSM 4 reads a single column of variably sized text, which suits statements.
	recognize := exec.CommandContext(ctx, "tesseract", prefix+".png", "stdout", "-l", t.Language, "--psm", "4")
	out, err := recognize.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed on page %d: %w", page, err)
	}
	return strings.TrimSpace(string(out)), nil
}
