package model

import (
	"strings"
	"time"
)

// tickerWidth is the KRX code width.
const tickerWidth = 6

// WatchlistEntry is a ticker the user follows.
type WatchlistEntry struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// PortfolioEntry is a held position.
type PortfolioEntry struct {
	Name     string  `json:"name"`
	Ticker   string  `json:"ticker"`
	BuyPrice float64 `json:"buy_price"`
}

// Book is the persisted watchlist and portfolio document, keyed by name.
type Book struct {
	Watchlist map[string]WatchlistEntry `json:"watchlist"`
	Portfolio map[string]PortfolioEntry `json:"portfolio"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{
		Watchlist: map[string]WatchlistEntry{},
		Portfolio: map[string]PortfolioEntry{},
	}
}

// Clone deep-copies the book.
func (b *Book) Clone() *Book {
	out := NewBook()
	if b == nil {
		return out
	}
	for k, v := range b.Watchlist {
		out.Watchlist[k] = v
	}
	for k, v := range b.Portfolio {
		out.Portfolio[k] = v
	}
	out.UpdatedAt = b.UpdatedAt
	return out
}

// Normalize fills nil maps and normalizes ticker codes in place.
func (b *Book) Normalize() {
	if b.Watchlist == nil {
		b.Watchlist = map[string]WatchlistEntry{}
	}
	if b.Portfolio == nil {
		b.Portfolio = map[string]PortfolioEntry{}
	}
	for k, v := range b.Watchlist {
		v.Ticker = NormalizeTicker(v.Ticker)
		b.Watchlist[k] = v
	}
	for k, v := range b.Portfolio {
		v.Ticker = NormalizeTicker(v.Ticker)
		b.Portfolio[k] = v
	}
}

// NormalizeTicker zero-pads numeric codes to the exchange width ("5930" -> "005930").
// Non-numeric symbols such as "^KS11" are returned trimmed and upper-cased.
func NormalizeTicker(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return code
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return strings.ToUpper(code)
		}
	}
	if len(code) < tickerWidth {
		code = strings.Repeat("0", tickerWidth-len(code)) + code
	}
	return code
}
