package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/maltedev/marketplace-scraper/internal/models"
)

// RunStore persists the result of the latest collection run. Every Save
// replaces the previous file.
type RunStore struct {
	mu       sync.Mutex
	filename string
}

func NewRunStore(filename string) *RunStore {
	return &RunStore{filename: filename}
}

func (s *RunStore) Path() string {
	return s.filename
}

func (s *RunStore) Save(run *models.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := Encode(run)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}

	return WriteAtomic(s.filename, data)
}

func (s *RunStore) Load() (*models.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filename)
	if err != nil {
		return nil, err
	}

	var run models.RunResult
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.filename, err)
	}
	if run.Products == nil {
		run.Products = make([]*models.Product, 0)
	}
	for _, p := range run.Products {
		p.Normalize()
	}
	return &run, nil
}

// Encode renders v as 2-space indented JSON without escaping HTML or
// non-ASCII characters.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteAtomic writes to a temp file next to filename and renames it into
// place.
func WriteAtomic(filename string, data []byte) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmpFile := filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	if err := os.Rename(tmpFile, filename); err != nil {
		os.Remove(tmpFile)
		return err
	}
	return nil
}
