// Package extraction turns an uploaded receipt file into an Expense draft
// via a single vision chat completion. The model output is never trusted:
// every field is independently defaulted or clamped before use.
package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/expense"
)

// Failure messages surfaced to the caller. None of these are retried.
var (
	ErrExtractionFailed = errors.New("Failed to extract expense data from the receipt.")
	ErrEmptyResponse    = errors.New("Received an empty response from the AI. The receipt might be unreadable.")
	ErrInvalidFormat    = errors.New("The AI returned an invalid format. Please try again.")
)

// AIClient is the slice of the OpenAI client the extractor needs; tests
// substitute a stub.
type AIClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Extractor requests structured field extraction for a receipt image or PDF
type Extractor struct {
	client AIClient
	model  string
	schema *jsonschema.Schema
	now    func() time.Time
	logger *zap.Logger
}

// NewExtractor creates an extractor backed by the OpenAI API
func NewExtractor(apiKey, model string, logger *zap.Logger) *Extractor {
	return NewExtractorWithClient(openai.NewClient(apiKey), model, logger)
}

// NewExtractorWithClient creates an extractor with an injected AI client
func NewExtractorWithClient(client AIClient, model string, logger *zap.Logger) *Extractor {
	return &Extractor{
		client: client,
		model:  model,
		schema: compileSchema(logger),
		now:    time.Now,
		logger: logger,
	}
}

// Extract sends the receipt inline with the fixed instruction prompt and
// returns a normalized Expense draft (id=0, empty payer, status Submitted)
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (expense.Expense, error) {
	e.logger.Info("Extracting expense data from receipt",
		zap.String("filename", filename),
		zap.Int("size_bytes", len(data)))

	parts, err := e.buildContentParts(filename, data)
	if err != nil {
		e.logger.Error("Failed to prepare receipt for extraction", zap.Error(err))
		return expense.Expense{}, ErrExtractionFailed
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.1,
		MaxTokens:   1000,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expense-tracking assistant. You read receipts with perfect accuracy and always respond with valid JSON.",
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("Vision API call failed", zap.Error(err))
		return expense.Expense{}, ErrExtractionFailed
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return expense.Expense{}, ErrEmptyResponse
	}

	draft, err := e.parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return expense.Expense{}, err
	}

	e.logger.Info("Expense data extracted",
		zap.String("expense_name", draft.Name),
		zap.Float64("amount", draft.Amount),
		zap.String("currency", draft.Currency),
		zap.String("category", draft.Category))

	return draft, nil
}

// buildContentParts encodes the file inline. PDF receipts are rasterized to
// JPEG pages first; images are attached as-is.
func (e *Extractor) buildContentParts(filename string, data []byte) ([]openai.ChatMessagePart, error) {
	parts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: extractionPrompt,
	}}

	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		pages, err := pdfPagesAsJPEG(data)
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			parts = append(parts, imagePart(page, "image/jpeg"))
		}
		return parts, nil
	}

	parts = append(parts, imagePart(data, mimeForFilename(filename)))
	return parts, nil
}

func imagePart(data []byte, mimeType string) openai.ChatMessagePart {
	return openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)),
			Detail: openai.ImageURLDetailHigh,
		},
	}
}

func mimeForFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

var (
	fenceOpen  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
)

// stripCodeFence removes an optional markdown code-fence wrapper
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// parseResponse parses the model output and builds a defensively defaulted
// draft. Schema violations are logged but never fatal.
func (e *Extractor) parseResponse(content string) (expense.Expense, error) {
	cleaned := stripCodeFence(content)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		e.logger.Error("Failed to parse extraction response",
			zap.Error(err),
			zap.String("content", content))
		return expense.Expense{}, ErrInvalidFormat
	}

	if e.schema != nil {
		if err := e.schema.Validate(parsed); err != nil {
			e.logger.Warn("Extraction response violates the declared schema", zap.Error(err))
		}
	}

	draft := expense.Expense{
		ID:         0,
		Date:       fieldString(parsed, "Date"),
		Name:       fieldString(parsed, "Expense_Name"),
		Amount:     fieldNumber(parsed, "Amount"),
		Currency:   fieldString(parsed, "Currency"),
		PaidBy:     "",
		Category:   fieldString(parsed, "Category"),
		Locations:  []string{},
		Status:     expense.StatusSubmitted,
		ReceiptURL: "",
		Notes:      fieldString(parsed, "Notes"),
	}

	if draft.Date == "" {
		draft.Date = e.now().In(bangkok).Format(expense.DateLayout)
	}
	if draft.Currency == "" {
		draft.Currency = expense.DefaultCurrency
	}
	if !expense.IsKnownCategory(draft.Category) {
		draft.Category = expense.CategoryOther
	}

	return expense.Normalize(draft), nil
}

// bangkok matches the UTC+07:00 timezone the prompt pins today's date to
var bangkok = time.FixedZone("UTC+7", 7*60*60)

func fieldString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func fieldNumber(m map[string]any, key string) float64 {
	switch n := m[key].(type) {
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return 0
}

func compileSchema(logger *zap.Logger) *jsonschema.Schema {
	raw, err := json.Marshal(expenseSchema)
	if err != nil {
		logger.Warn("Failed to marshal extraction schema", zap.Error(err))
		return nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("expense.json", strings.NewReader(string(raw))); err != nil {
		logger.Warn("Failed to add extraction schema resource", zap.Error(err))
		return nil
	}
	schema, err := compiler.Compile("expense.json")
	if err != nil {
		logger.Warn("Failed to compile extraction schema", zap.Error(err))
		return nil
	}
	return schema
}
