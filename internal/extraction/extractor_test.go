package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/expense"
)

// StubAIClient returns a canned completion or error
type StubAIClient struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (s *StubAIClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	if s.content == "" {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

func newTestExtractor(stub *StubAIClient) *Extractor {
	e := NewExtractorWithClient(stub, "gpt-4o", zap.NewNop())
	e.now = func() time.Time {
		return time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)
	}
	return e
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("parses a fenced JSON response", func(t *testing.T) {
		stub := &StubAIClient{
			content: "```json\n{\"Date\":\"2025-06-01\",\"Expense_Name\":\"Taxi\",\"Amount\":120,\"Currency\":\"THB\",\"Category\":\"Transport\"}\n```",
		}

		draft, err := newTestExtractor(stub).Extract(ctx, "receipt.jpg", []byte("img"))
		require.NoError(t, err)

		assert.Equal(t, int64(0), draft.ID)
		assert.Equal(t, "2025-06-01", draft.Date)
		assert.Equal(t, "Taxi", draft.Name)
		assert.Equal(t, float64(120), draft.Amount)
		assert.Equal(t, "THB", draft.Currency)
		assert.Equal(t, "Transport", draft.Category)
		assert.Equal(t, "", draft.PaidBy)
		assert.Equal(t, "", draft.ReceiptURL)
		assert.Equal(t, expense.StatusSubmitted, draft.Status)
	})

	t.Run("defaults missing fields", func(t *testing.T) {
		stub := &StubAIClient{content: `{"Amount": "42.50"}`}

		draft, err := newTestExtractor(stub).Extract(ctx, "receipt.jpg", []byte("img"))
		require.NoError(t, err)

		assert.Equal(t, 42.5, draft.Amount)
		assert.Equal(t, "2025-08-31", draft.Date, "missing date falls back to today in UTC+7")
		assert.Equal(t, expense.DefaultCurrency, draft.Currency)
		assert.Equal(t, "", draft.Name)
		assert.Equal(t, "", draft.Notes)
	})

	t.Run("clamps unknown categories to Other", func(t *testing.T) {
		stub := &StubAIClient{content: `{"Date":"2025-01-01","Expense_Name":"X","Amount":1,"Currency":"THB","Category":"Lodging"}`}

		draft, err := newTestExtractor(stub).Extract(ctx, "receipt.jpg", []byte("img"))
		require.NoError(t, err)
		assert.Equal(t, expense.CategoryOther, draft.Category)
	})

	t.Run("forces status to Submitted", func(t *testing.T) {
		stub := &StubAIClient{content: `{"Date":"2025-01-01","Expense_Name":"X","Amount":1,"Currency":"THB","Status":"Reimbursed"}`}

		draft, err := newTestExtractor(stub).Extract(ctx, "receipt.jpg", []byte("img"))
		require.NoError(t, err)
		assert.Equal(t, expense.StatusSubmitted, draft.Status)
	})

	t.Run("service failure surfaces a single message", func(t *testing.T) {
		stub := &StubAIClient{err: errors.New("boom")}

		_, err := newTestExtractor(stub).Extract(ctx, "receipt.jpg", []byte("img"))
		assert.ErrorIs(t, err, ErrExtractionFailed)
	})

	t.Run("empty response", func(t *testing.T) {
		stub := &StubAIClient{content: ""}

		_, err := newTestExtractor(stub).Extract(ctx, "receipt.jpg", []byte("img"))
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		stub := &StubAIClient{content: "the receipt shows a taxi ride"}

		_, err := newTestExtractor(stub).Extract(ctx, "receipt.jpg", []byte("img"))
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("attaches the prompt and the inline image", func(t *testing.T) {
		stub := &StubAIClient{content: `{"Date":"2025-01-01","Expense_Name":"X","Amount":1,"Currency":"THB"}`}

		_, err := newTestExtractor(stub).Extract(ctx, "receipt.png", []byte{1, 2, 3})
		require.NoError(t, err)

		require.Len(t, stub.lastReq.Messages, 2)
		parts := stub.lastReq.Messages[1].MultiContent
		require.Len(t, parts, 2)
		assert.Equal(t, openai.ChatMessagePartTypeText, parts[0].Type)
		assert.Contains(t, parts[0].Text, `"Status": must always be "Submitted"`)
		assert.Equal(t, openai.ChatMessagePartTypeImageURL, parts[1].Type)
		assert.Contains(t, parts[1].ImageURL.URL, "data:image/png;base64,")
	})
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}  "))
}
