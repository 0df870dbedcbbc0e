package store

import (
	"context"
	"errors"
	"fmt"

	"StockPilot/internal/model"
)

// ErrUnknownBackend is returned by New for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// DefaultKey is the document key of the book.
const DefaultKey = "stockpilot:book"

// Store loads and saves the watchlist and portfolio document. A missing
// document loads as an empty book.
type Store interface {
	Load(ctx context.Context) (*model.Book, error)
	Save(ctx context.Context, book *model.Book) error
	Name() string
	Close() error
}

// Default document locations per backend.
const (
	DefaultFilePath   = "data/book.json"
	DefaultSQLitePath = "data/stockpilot.db"
)

// Config selects and configures a backend.
type Config struct {
	Backend       string `yaml:"backend"` // sqlite | file | redis | none
	Path          string `yaml:"path"`    // file or sqlite path, defaulted per backend
	Key           string `yaml:"key"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// New opens the configured backend. An empty backend returns a NoopStore.
func New(cfg Config) (Store, error) {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	switch cfg.Backend {
	case "", "none":
		return NoopStore{}, nil
	case "file":
		return NewFileStore(cfg.Path), nil
	case "sqlite":
		return NewSQLiteStore(cfg.Path, cfg.Key)
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Key)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}
