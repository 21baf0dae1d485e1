// Package client implements the REST persistence client for the expense
// store: list, create, delete-one, delete-all and the receipt upload and
// extraction calls. Every operation is a single request/response cycle with
// no caching or retry; failures surface one human-readable message.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/expense"
)

// Confirmer gates irreversible operations behind an explicit user decision
type Confirmer interface {
	Confirm(prompt string) bool
}

// ErrNotConfirmed is returned when the user declines a gated operation
var ErrNotConfirmed = errors.New("operation cancelled")

// Client talks to the expense backend's REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the backend at baseURL
func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// List fetches all stored expenses. A non-array response body is treated as
// an empty list; every row passes through the defensive row decoder.
func (c *Client) List(ctx context.Context) ([]expense.Expense, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/expenses", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.New("Failed to fetch expenses")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorFromResponse(resp, "Failed to fetch expenses")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New("Failed to fetch expenses")
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		// The store answered with something other than an array.
		return []expense.Expense{}, nil
	}

	expenses := make([]expense.Expense, 0, len(rows))
	for _, row := range rows {
		expenses = append(expenses, expense.FromRow(row))
	}
	return expenses, nil
}

// Create submits a fully-formed expense payload. The caller re-runs List to
// observe the assigned id.
func (c *Client) Create(ctx context.Context, record expense.Expense) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode expense: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/expenses", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.New("Failed to save expense")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp, "Failed to save expense")
	}
	return nil
}

// DeleteOne removes a single record by id
func (c *Client) DeleteOne(ctx context.Context, id int64) error {
	url := fmt.Sprintf("%s/api/expenses/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.New("Failed to delete expense")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp, "Failed to delete expense")
	}
	return nil
}

// DeleteAll clears the whole store. The request is never issued unless the
// confirmer answers yes.
func (c *Client) DeleteAll(ctx context.Context, confirmer Confirmer) error {
	if confirmer == nil || !confirmer.Confirm("Delete ALL expenses? This cannot be undone.") {
		return ErrNotConfirmed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/expenses/all", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.New("Failed to delete expenses")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp, "Failed to delete expenses")
	}
	return nil
}

// UploadReceipt stores the file and returns the opaque receipt pointer to
// attach to an expense payload before Create.
func (c *Client) UploadReceipt(ctx context.Context, filename string, content []byte) (string, error) {
	resp, err := c.postFile(ctx, "/api/upload", filename, content)
	if err != nil {
		return "", errors.New("File upload failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.errorFromResponse(resp, "File upload failed")
	}

	var result struct {
		FilePath string `json:"filePath"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.New("File upload failed")
	}
	return result.FilePath, nil
}

// ExtractDetails sends the receipt for AI extraction and returns the draft
// expense built from the response, defaulting missing fields.
func (c *Client) ExtractDetails(ctx context.Context, filename string, content []byte) (expense.Expense, error) {
	resp, err := c.postFile(ctx, "/api/extract-details", filename, content)
	if err != nil {
		return expense.Expense{}, errors.New("Failed to extract expense data from the receipt.")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return expense.Expense{}, c.errorFromResponse(resp, "Failed to extract expense data from the receipt.")
	}

	var extracted struct {
		Date     string  `json:"Date"`
		Name     string  `json:"Expense_Name"`
		Amount   float64 `json:"Amount"`
		Currency string  `json:"Currency"`
		Category string  `json:"Category"`
		Notes    string  `json:"Notes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&extracted); err != nil {
		return expense.Expense{}, errors.New("The AI returned an invalid format. Please try again.")
	}

	draft := expense.Expense{
		Date:     extracted.Date,
		Name:     extracted.Name,
		Amount:   extracted.Amount,
		Currency: extracted.Currency,
		Category: extracted.Category,
		Status:   expense.StatusSubmitted,
		Notes:    extracted.Notes,
	}
	if draft.Date == "" {
		draft.Date = time.Now().Format(expense.DateLayout)
	}
	if draft.Currency == "" {
		draft.Currency = expense.DefaultCurrency
	}
	return expense.Normalize(draft), nil
}

func (c *Client) postFile(ctx context.Context, path, filename string, content []byte) (*http.Response, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("receipt", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.httpClient.Do(req)
}

// errorFromResponse extracts the backend's error message from a JSON body,
// falling back to the generic message.
func (c *Client) errorFromResponse(resp *http.Response, fallback string) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			return errors.New(payload.Error)
		}
	}
	c.logger.Warn("Backend request failed",
		zap.Int("status", resp.StatusCode),
		zap.String("fallback", fallback))
	return errors.New(fallback)
}
