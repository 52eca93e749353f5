// Package docintel reads statement table rows with a document-understanding
// model. It backs the structured extraction path.
package docintel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"google.golang.org/genai"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

var (
	ErrNoAPIKey      = errors.New("gemini api key is required")
	ErrEmptyResponse = errors.New("empty response from model")
)

const itemsPrompt = "You read bank statement PDFs.\n\n" +
	"Return every transaction row of the attached statement as a JSON array of objects with these fields:\n" +
	"- \"date\": the date exactly as printed on the row, or \"\" when the row has none\n" +
	"- \"date_iso\": the same date as YYYY-MM-DD when you can tell, otherwise null\n" +
	"- \"description\": the row description as printed\n" +
	"- \"withdrawal\": the amount in the debit/withdrawal column as printed, or \"\"\n" +
	"- \"deposit\": the amount in the credit/deposit column as printed, or \"\"\n" +
	"- \"balance\": the running balance as printed, or \"\"\n\n" +
	"Copy amounts character for character, keeping signs, parentheses and separators.\n" +
	"Skip page headers, footers and legal text.\n" +
	"Return ONLY the raw JSON array, without Markdown or code fences.\n"

// contentGenerator is the part of the genai client the source uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiSource implements the structured item source with Gemini.
type GeminiSource struct {
	models contentGenerator
	model  string
	logger *slog.Logger
}

// NewGeminiSource creates a source backed by the Gemini API.
func NewGeminiSource(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*GeminiSource, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return newGeminiSource(client.Models, modelName, logger), nil
}

func newGeminiSource(models contentGenerator, modelName string, logger *slog.Logger) *GeminiSource {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &GeminiSource{models: models, model: modelName, logger: logger}
}

// Items sends the document to the model and decodes the rows it returns.
func (s *GeminiSource) Items(ctx context.Context, data []byte) ([]model.Item, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: itemsPrompt},
				{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: data}},
			},
		},
	}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0)),
		ResponseMIMEType: "application/json",
	}

	start := time.Now()
	resp, err := s.models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}

	items, err := DecodeItems(raw)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("structured items received",
		slog.String("model", s.model),
		slog.Int("items", len(items)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return items, nil
}

// itemJSON is the row shape requested from the model. Amounts sometimes
// come back as numbers, so every text field accepts either.
type itemJSON struct {
	Date        looseString `json:"date"`
	DateISO     looseString `json:"date_iso"`
	Description looseString `json:"description"`
	Withdrawal  looseString `json:"withdrawal"`
	Deposit     looseString `json:"deposit"`
	Balance     looseString `json:"balance"`
}

// looseString decodes a JSON string, number or null into text.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*l = ""
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = looseString(s)
	default:
		*l = looseString(trimmed)
	}
	return nil
}

// DecodeItems parses a model response into items. Markdown fences and
// surrounding prose are stripped; malformed JSON is repaired before giving up.
func DecodeItems(raw string) ([]model.Item, error) {
	clean := cleanModelJSON(raw)

	var rows []itemJSON
	if err := json.Unmarshal([]byte(clean), &rows); err != nil {
		rows = nil
		repaired, repairErr := jsonrepair.RepairJSON(clean)
		if repairErr != nil || json.Unmarshal([]byte(repaired), &rows) != nil {
			rows = nil
			if hjsonErr := decodeHJSON(clean, &rows); hjsonErr != nil {
				return nil, fmt.Errorf("failed to decode model response: %w", err)
			}
		}
	}

	items := make([]model.Item, 0, len(rows))
	for _, r := range rows {
		item := model.Item{
			Date:        string(r.Date),
			Description: string(r.Description),
			Withdrawal:  string(r.Withdrawal),
			Deposit:     string(r.Deposit),
			Balance:     string(r.Balance),
		}
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(string(r.DateISO))); err == nil {
			item.DateValue = &t
		}
		items = append(items, item)
	}
	return items, nil
}

// decodeHJSON reads the lenient Hjson dialect and re-encodes it as JSON.
func decodeHJSON(data string, v any) error {
	var generic any
	if err := hjson.Unmarshal([]byte(data), &generic); err != nil {
		return err
	}
	encoded, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, v)
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost array.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
