package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"StockPilot/internal/metrics"
	"StockPilot/internal/model"
	"StockPilot/internal/store"
)

// ErrNotFound is returned when removing a name that is not in the book.
var ErrNotFound = errors.New("entry not found")

// ErrInvalidEntry is returned for an empty name or ticker or a non-positive buy price.
var ErrInvalidEntry = errors.New("invalid entry")

// Manager owns the watchlist and portfolio book with concurrency safety.
// Every mutation is saved immediately; a failed save keeps the in-memory
// change and is reported through the saved flag.
type Manager struct {
	mu      sync.Mutex
	book    *model.Book
	store   store.Store
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewManager loads the book from s. A load failure starts from an empty book.
func NewManager(ctx context.Context, s store.Store, m *metrics.Metrics) *Manager {
	mgr := &Manager{
		store:   s,
		metrics: m,
		logger:  log.With().Str("component", "portfolio").Str("store", s.Name()).Logger(),
	}
	mgr.book = mgr.load(ctx)
	m.SetBook(len(mgr.book.Watchlist), len(mgr.book.Portfolio))
	return mgr
}

func (m *Manager) load(ctx context.Context) *model.Book {
	book, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("book load failed, starting empty")
		return model.NewBook()
	}
	m.logger.Info().Int("watchlist", len(book.Watchlist)).Int("portfolio", len(book.Portfolio)).Msg("book loaded")
	return book
}

// Reload replaces the in-memory book with the stored one.
func (m *Manager) Reload(ctx context.Context) {
	book := m.load(ctx)
	m.mu.Lock()
	m.book = book
	m.mu.Unlock()
	m.metrics.SetBook(len(book.Watchlist), len(book.Portfolio))
}

// Book returns a copy of the current book.
func (m *Manager) Book() *model.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.Clone()
}

// Holding returns the buy price context of a held ticker, or nil.
func (m *Manager) Holding(ticker string) *model.Holding {
	ticker = model.NormalizeTicker(ticker)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.book.Portfolio {
		if p.Ticker == ticker {
			return &model.Holding{BuyPrice: p.BuyPrice}
		}
	}
	return nil
}

// Watch adds or replaces a watchlist entry.
func (m *Manager) Watch(ctx context.Context, name, ticker string) (saved bool, err error) {
	name, ticker = strings.TrimSpace(name), model.NormalizeTicker(ticker)
	if name == "" || ticker == "" {
		return false, fmt.Errorf("%w: name and ticker are required", ErrInvalidEntry)
	}
	return m.mutate(ctx, "watch", name, func(b *model.Book) error {
		b.Watchlist[name] = model.WatchlistEntry{Name: name, Ticker: ticker}
		return nil
	})
}

// Unwatch removes a watchlist entry.
func (m *Manager) Unwatch(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	return m.mutate(ctx, "unwatch", name, func(b *model.Book) error {
		if _, ok := b.Watchlist[name]; !ok {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		delete(b.Watchlist, name)
		return nil
	})
}

// Buy adds or replaces a portfolio position.
func (m *Manager) Buy(ctx context.Context, name, ticker string, price float64) (bool, error) {
	name, ticker = strings.TrimSpace(name), model.NormalizeTicker(ticker)
	if name == "" || ticker == "" || price <= 0 {
		return false, fmt.Errorf("%w: name, ticker and a positive buy price are required", ErrInvalidEntry)
	}
	return m.mutate(ctx, "buy", name, func(b *model.Book) error {
		b.Portfolio[name] = model.PortfolioEntry{Name: name, Ticker: ticker, BuyPrice: price}
		return nil
	})
}

// Sell removes a portfolio position.
func (m *Manager) Sell(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	return m.mutate(ctx, "sell", name, func(b *model.Book) error {
		if _, ok := b.Portfolio[name]; !ok {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		delete(b.Portfolio, name)
		return nil
	})
}

// mutate applies fn under the lock and saves the result. fn errors leave
// the book untouched; save errors are logged and reported as saved=false.
func (m *Manager) mutate(ctx context.Context, op, name string, fn func(*model.Book) error) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.book.Clone()
	if err := fn(next); err != nil {
		return false, err
	}
	m.book = next
	m.metrics.SetBook(len(next.Watchlist), len(next.Portfolio))

	if err := m.store.Save(ctx, next.Clone()); err != nil {
		m.metrics.SaveFailed()
		m.logger.Error().Err(err).Str("op", op).Str("name", name).Msg("failed to save book")
		return false, nil
	}
	m.logger.Info().Str("op", op).Str("name", name).Msg("book updated")
	return true, nil
}
