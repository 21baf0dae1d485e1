// Package payers persists the list of recently used payer names.
package payers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// maxPayers caps how many recent payer names are remembered.
const maxPayers = 10

// Store keeps a most-recent-first list of payer names in a JSON file.
type Store struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewStore creates a payer store backed by the file at path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Load returns the stored payer names, most recent first. A missing or
// unreadable file yields an empty list rather than an error so that the
// form can always render.
func (s *Store) Load() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() []string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read payers file",
				zap.String("path", s.path),
				zap.Error(err))
		}
		return []string{}
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		s.logger.Warn("Failed to parse payers file",
			zap.String("path", s.path),
			zap.Error(err))
		return []string{}
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	if len(out) > maxPayers {
		out = out[:maxPayers]
	}
	return out
}

// Add records name as the most recently used payer. Matching is
// case-insensitive and the new casing wins; the list is truncated to
// the ten most recent entries.
func (s *Store) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.load()
	updated := []string{name}
	for _, prev := range existing {
		if strings.EqualFold(prev, name) {
			continue
		}
		updated = append(updated, prev)
		if len(updated) == maxPayers {
			break
		}
	}

	return s.save(updated)
}

func (s *Store) save(names []string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create payers directory: %w", err)
		}
	}

	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode payers: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write payers file: %w", err)
	}

	return nil
}
