// Package storage keeps uploaded receipt images on the local filesystem
// and resolves stored receipt pointers back into image bytes.
package storage

import (
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// uploadPrefix is the public path prefix embedded in receipt pointers
const uploadPrefix = "/uploads/"

// ReceiptStore stores receipt files under a base directory. Pointers have
// the form "/uploads/<timestamp>_<sanitized-name>".
type ReceiptStore struct {
	baseDir string
	now     func() time.Time
	logger  *zap.Logger
}

// NewReceiptStore creates the store, making the base directory if needed
func NewReceiptStore(baseDir string, logger *zap.Logger) (*ReceiptStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ReceiptStore{
		baseDir: baseDir,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// Dir returns the base directory receipts are stored under
func (s *ReceiptStore) Dir() string {
	return s.baseDir
}

// Save writes an uploaded receipt and returns its opaque pointer
func (s *ReceiptStore) Save(filename string, content []byte) (string, error) {
	name := fmt.Sprintf("%d_%s", s.now().Unix(), sanitizeFilename(filename))

	fullPath := filepath.Join(s.baseDir, name)
	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write receipt file",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write receipt file: %w", err)
	}

	s.logger.Debug("Receipt saved",
		zap.String("path", fullPath),
		zap.Int("size_bytes", len(content)))
	return uploadPrefix + name, nil
}

// Open resolves a receipt pointer into image bytes and a MIME type. Inline
// data URLs are decoded directly; "/uploads/..." pointers read from disk.
func (s *ReceiptStore) Open(receiptURL string) ([]byte, string, error) {
	if strings.HasPrefix(receiptURL, "data:") {
		return decodeDataURL(receiptURL)
	}

	name := strings.TrimPrefix(receiptURL, uploadPrefix)
	if name == receiptURL {
		return nil, "", fmt.Errorf("unrecognized receipt pointer: %s", receiptURL)
	}

	fullPath := filepath.Join(s.baseDir, name)
	if err := s.validatePath(fullPath); err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read receipt file: %w", err)
	}

	return data, mimeForExt(path.Ext(name)), nil
}

// validatePath rejects pointers that would escape the base directory
func (s *ReceiptStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}
	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(os.PathSeparator)) {
		return fmt.Errorf("path escapes upload directory: %s", fullPath)
	}
	return nil
}

// sanitizeFilename keeps the base name and replaces anything that is not
// alphanumeric, dot, dash or underscore
func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 || b.String() == "." || b.String() == ".." {
		return "receipt"
	}
	return b.String()
}

func decodeDataURL(url string) ([]byte, string, error) {
	rest := strings.TrimPrefix(url, "data:")
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URL")
	}

	mimeType := strings.TrimSuffix(header, ";base64")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data URL: %w", err)
	}
	return data, mimeType, nil
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	default:
		return "image/jpeg"
	}
}
