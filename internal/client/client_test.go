package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/expense"
)

type stubConfirmer struct {
	answer bool
	asked  int
	prompt string
}

func (s *stubConfirmer) Confirm(prompt string) bool {
	s.asked++
	s.prompt = prompt
	return s.answer
}

func newClientFor(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(ts.URL, zap.NewNop()), ts
}

func TestList(t *testing.T) {
	t.Run("decodes snake rows through defaulting", func(t *testing.T) {
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/expenses", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"id":3,"expense_name":"Taxi","amount":"120.5","date":"2025-06-01","locations":"[\"Bliss\"]"}]`))
		}))

		expenses, err := c.List(context.Background())

		require.NoError(t, err)
		require.Len(t, expenses, 1)
		assert.Equal(t, int64(3), expenses[0].ID)
		assert.Equal(t, "Taxi", expenses[0].Name)
		assert.Equal(t, 120.5, expenses[0].Amount)
		assert.Equal(t, expense.RowFallbackCurrency, expenses[0].Currency)
		assert.Equal(t, []string{"Bliss"}, expenses[0].Locations)
	})

	t.Run("non-array body is an empty list", func(t *testing.T) {
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"unexpected":"object"}`))
		}))

		expenses, err := c.List(context.Background())

		require.NoError(t, err)
		assert.NotNil(t, expenses)
		assert.Empty(t, expenses)
	})

	t.Run("backend failure surfaces one message", func(t *testing.T) {
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := c.List(context.Background())

		require.Error(t, err)
		assert.Equal(t, "Failed to fetch expenses", err.Error())
	})
}

func TestCreate(t *testing.T) {
	t.Run("posts snake payload", func(t *testing.T) {
		var received map[string]any
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/expenses", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusCreated)
		}))

		err := c.Create(context.Background(), expense.Expense{
			Date: "2025-06-01", Name: "Taxi", Amount: 120, Currency: "THB",
			PaidBy: "Me", Category: "Transport", Status: expense.StatusSubmitted,
		})

		require.NoError(t, err)
		assert.Equal(t, "Taxi", received["expense_name"])
		assert.Equal(t, "Me", received["paid_by"])
	})

	t.Run("error body message wins over fallback", func(t *testing.T) {
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"Invalid request body"}`))
		}))

		err := c.Create(context.Background(), expense.Expense{})

		require.Error(t, err)
		assert.Equal(t, "Invalid request body", err.Error())
	})

	t.Run("fallback message without body", func(t *testing.T) {
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		err := c.Create(context.Background(), expense.Expense{})

		require.Error(t, err)
		assert.Equal(t, "Failed to save expense", err.Error())
	})
}

func TestDeleteOne(t *testing.T) {
	c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/expenses/7", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.DeleteOne(context.Background(), 7))
}

func TestDeleteAll(t *testing.T) {
	t.Run("declined confirmation issues no request", func(t *testing.T) {
		var requests int64
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&requests, 1)
		}))

		confirmer := &stubConfirmer{answer: false}
		err := c.DeleteAll(context.Background(), confirmer)

		require.ErrorIs(t, err, ErrNotConfirmed)
		assert.Equal(t, 1, confirmer.asked)
		assert.Zero(t, atomic.LoadInt64(&requests))
	})

	t.Run("nil confirmer issues no request", func(t *testing.T) {
		var requests int64
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&requests, 1)
		}))

		err := c.DeleteAll(context.Background(), nil)

		require.ErrorIs(t, err, ErrNotConfirmed)
		assert.Zero(t, atomic.LoadInt64(&requests))
	})

	t.Run("confirmed issues the request", func(t *testing.T) {
		var path string
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			w.WriteHeader(http.StatusOK)
		}))

		err := c.DeleteAll(context.Background(), &stubConfirmer{answer: true})

		require.NoError(t, err)
		assert.Equal(t, "/api/expenses/all", path)
	})
}

func TestUploadReceipt(t *testing.T) {
	t.Run("returns the file pointer", func(t *testing.T) {
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			file, header, err := r.FormFile("receipt")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "photo.png", header.Filename)
			w.Write([]byte(`{"filePath":"/uploads/1756600000_photo.png"}`))
		}))

		pointer, err := c.UploadReceipt(context.Background(), "photo.png", []byte("png bytes"))

		require.NoError(t, err)
		assert.Equal(t, "/uploads/1756600000_photo.png", pointer)
	})

	t.Run("failure surfaces fallback message", func(t *testing.T) {
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := c.UploadReceipt(context.Background(), "photo.png", []byte("png bytes"))

		require.Error(t, err)
		assert.Equal(t, "File upload failed", err.Error())
	})
}

func TestExtractDetails(t *testing.T) {
	t.Run("builds a draft from the extraction response", func(t *testing.T) {
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/extract-details", r.URL.Path)
			w.Write([]byte(`{"Date":"2025-06-01","Expense_Name":"Taxi","Amount":120,"Currency":"THB","Category":"Transport","Status":"Submitted"}`))
		}))

		draft, err := c.ExtractDetails(context.Background(), "receipt.jpg", []byte("img"))

		require.NoError(t, err)
		assert.Equal(t, int64(0), draft.ID)
		assert.Equal(t, "Taxi", draft.Name)
		assert.Equal(t, 120.0, draft.Amount)
		assert.Equal(t, "THB", draft.Currency)
		assert.Equal(t, expense.StatusSubmitted, draft.Status)
		assert.Empty(t, draft.PaidBy)
		assert.Empty(t, draft.ReceiptURL)
	})

	t.Run("defaults missing date and currency", func(t *testing.T) {
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Expense_Name":"Taxi","Amount":50}`))
		}))

		draft, err := c.ExtractDetails(context.Background(), "receipt.jpg", []byte("img"))

		require.NoError(t, err)
		assert.NotEmpty(t, draft.Date)
		assert.Equal(t, expense.DefaultCurrency, draft.Currency)
	})

	t.Run("backend error body is surfaced", func(t *testing.T) {
		c, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"The AI returned an invalid format. Please try again."}`))
		}))

		_, err := c.ExtractDetails(context.Background(), "receipt.jpg", []byte("img"))

		require.Error(t, err)
		assert.Equal(t, "The AI returned an invalid format. Please try again.", err.Error())
	})
}
