package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/expense"
)

// extractionResponse mirrors the declared extraction schema's field names
type extractionResponse struct {
	Date       string  `json:"Date"`
	Name       string  `json:"Expense_Name"`
	Amount     float64 `json:"Amount"`
	Currency   string  `json:"Currency"`
	PaidBy     string  `json:"Paid_By"`
	Category   string  `json:"Category"`
	Status     string  `json:"Status"`
	ReceiptURL string  `json:"Receipt_URL"`
	Notes      string  `json:"Notes"`
}

func (s *Server) handleListExpenses(c *gin.Context) {
	expenses, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list expenses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch expenses"})
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	record := expense.FromRow(raw)
	record.ID = 0

	id, err := s.repo.Create(c.Request.Context(), record)
	if err != nil {
		s.logger.Error("Failed to create expense", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save expense"})
		return
	}

	record.ID = id
	c.JSON(http.StatusCreated, record)
}

func (s *Server) handleDeleteExpense(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense id"})
		return
	}

	found, err := s.repo.DeleteByID(c.Request.Context(), id)
	if err != nil {
		s.logger.Error("Failed to delete expense", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expense"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeleteAllExpenses(c *gin.Context) {
	count, err := s.repo.DeleteAll(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to delete all expenses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expenses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

func (s *Server) handleExtractDetails(c *gin.Context) {
	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image provided for extraction"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("Failed to read uploaded receipt", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	draft, err := s.extractor.Extract(c.Request.Context(), header.Filename, data)
	if err != nil {
		s.logger.Error("Receipt extraction failed",
			zap.String("filename", header.Filename),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, extractionResponse{
		Date:       draft.Date,
		Name:       draft.Name,
		Amount:     draft.Amount,
		Currency:   draft.Currency,
		PaidBy:     draft.PaidBy,
		Category:   draft.Category,
		Status:     string(draft.Status),
		ReceiptURL: draft.ReceiptURL,
		Notes:      draft.Notes,
	})
}

func (s *Server) handleUploadReceipt(c *gin.Context) {
	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file part"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("Failed to read uploaded receipt", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	pointer, err := s.receipts.Save(header.Filename, data)
	if err != nil {
		s.logger.Error("Failed to store receipt", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"filePath": pointer})
}

func (s *Server) handleReportPDF(c *gin.Context) {
	expenses, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list expenses for report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch expenses"})
		return
	}

	data, err := s.pdf.Export(expenses)
	if err != nil {
		s.logger.Error("Failed to render PDF report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.pdf.Filename()))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) handleReportXLSX(c *gin.Context) {
	expenses, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list expenses for report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch expenses"})
		return
	}

	data, err := s.xlsx.Export(expenses)
	if err != nil {
		s.logger.Error("Failed to render XLSX report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.xlsx.Filename()))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
