// Package server exposes the expense store, receipt extraction and report
// rendering over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/extraction"
	"github.com/pakin/expense-tracker/internal/report"
	"github.com/pakin/expense-tracker/internal/repository"
	"github.com/pakin/expense-tracker/internal/storage"
)

// Server wires the HTTP routes to the expense services
type Server struct {
	router    *gin.Engine
	repo      *repository.ExpenseRepository
	extractor *extraction.Extractor
	receipts  *storage.ReceiptStore
	pdf       *report.PDFExporter
	xlsx      *report.XLSXExporter
	logger    *zap.Logger
}

// New creates a server with all routes registered
func New(
	repo *repository.ExpenseRepository,
	extractor *extraction.Extractor,
	receipts *storage.ReceiptStore,
	pdf *report.PDFExporter,
	xlsx *report.XLSXExporter,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    gin.New(),
		repo:      repo,
		extractor: extractor,
		receipts:  receipts,
		pdf:       pdf,
		xlsx:      xlsx,
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(loggingMiddleware(s.logger))
	s.router.Use(corsMiddleware())

	s.router.GET("/health", s.handleHealth)
	s.router.Static("/uploads", s.receipts.Dir())

	api := s.router.Group("/api")
	{
		api.GET("/expenses", s.handleListExpenses)
		api.POST("/expenses", s.handleCreateExpense)
		// "all" must be registered before ":id" so the bulk route wins
		api.DELETE("/expenses/all", s.handleDeleteAllExpenses)
		api.DELETE("/expenses/:id", s.handleDeleteExpense)
		api.POST("/extract-details", s.handleExtractDetails)
		api.POST("/upload", s.handleUploadReceipt)
		api.GET("/report/pdf", s.handleReportPDF)
		api.GET("/report/xlsx", s.handleReportXLSX)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "expense-tracker",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// requestIDMiddleware tags each request with a unique id
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info("HTTP request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
