package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"StockPilot/internal/model"
)

// FileStore keeps the book as an indented JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileStore{path: path}
}

func (f *FileStore) Name() string { return "file" }

// Load reads the book. Returns an empty book if the file doesn't exist.
func (f *FileStore) Load(_ context.Context) (*model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewBook(), nil
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	book := model.NewBook()
	if err := json.Unmarshal(data, book); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	book.Normalize()
	return book, nil
}

// Save writes the book through a temporary file so a crash never leaves a
// truncated document behind.
func (f *FileStore) Save(_ context.Context, book *model.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	book.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Close() error { return nil }
