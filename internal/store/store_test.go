package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"StockPilot/internal/model"
)

func sampleBook() *model.Book {
	b := model.NewBook()
	b.Watchlist["Samsung"] = model.WatchlistEntry{Name: "Samsung", Ticker: "005930"}
	b.Portfolio["Kakao"] = model.PortfolioEntry{Name: "Kakao", Ticker: "035720", BuyPrice: 48500}
	return b
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("%s: load before save: %v", s.Name(), err)
	}
	if len(empty.Watchlist) != 0 || len(empty.Portfolio) != 0 {
		t.Fatalf("%s: expected an empty book, got %+v", s.Name(), empty)
	}

	if err := s.Save(ctx, sampleBook()); err != nil {
		t.Fatalf("%s: save: %v", s.Name(), err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("%s: load: %v", s.Name(), err)
	}
	if got.Watchlist["Samsung"].Ticker != "005930" || got.Portfolio["Kakao"].BuyPrice != 48500 {
		t.Errorf("%s: unexpected book %+v", s.Name(), got)
	}
	if got.UpdatedAt.IsZero() {
		t.Errorf("%s: save should stamp UpdatedAt", s.Name())
	}

	next := got.Clone()
	delete(next.Watchlist, "Samsung")
	if err := s.Save(ctx, next); err != nil {
		t.Fatalf("%s: overwrite: %v", s.Name(), err)
	}
	got, _ = s.Load(ctx)
	if _, ok := got.Watchlist["Samsung"]; ok {
		t.Errorf("%s: overwrite should replace the whole document", s.Name())
	}
}

func TestFileStore(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "book.json"))
	exercise(t, s)
}

func TestFileStore_NormalizesTickers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.json")
	doc := `{"watchlist":{"Samsung":{"name":"Samsung","ticker":"5930"}}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if b.Watchlist["Samsung"].Ticker != "005930" {
		t.Errorf("ticker = %q, want 005930", b.Watchlist["Samsung"].Ticker)
	}
	if b.Portfolio == nil {
		t.Error("missing portfolio should load as an empty map")
	}
}

func TestFileStore_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "book.db"), "")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exercise(t, s)
}

func TestSQLiteStore_CreatesDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "book.db")
	s, err := NewSQLiteStore(path, "")
	if err != nil {
		t.Fatalf("fresh directory: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestNew_DefaultPathPerBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	ctx := context.Background()

	s, err := New(Config{Backend: "sqlite"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, sampleBook()); err != nil {
		t.Fatal(err)
	}
	s.Close()
	if _, err := os.Stat(DefaultSQLitePath); err != nil {
		t.Errorf("sqlite backend should default to %s: %v", DefaultSQLitePath, err)
	}

	s, err = New(Config{Backend: "file"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, sampleBook()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(DefaultFilePath); err != nil {
		t.Errorf("file backend should default to %s: %v", DefaultFilePath, err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := NewRedisStore(addr, "", 0, "stockpilot:test:"+t.Name())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	defer s.rdb.Del(context.Background(), s.key)
	exercise(t, s)
}

func TestNew(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(NoopStore); !ok {
		t.Errorf("empty backend should be noop, got %T", s)
	}
	if err := s.Save(context.Background(), sampleBook()); err != nil {
		t.Errorf("noop save: %v", err)
	}
	if b, _ := s.Load(context.Background()); len(b.Watchlist) != 0 {
		t.Error("noop load should be empty")
	}

	s, err = New(Config{Backend: "file", Path: filepath.Join(t.TempDir(), "b.json")})
	if err != nil || s.Name() != "file" {
		t.Errorf("file backend: %v, %v", s, err)
	}

	if _, err := New(Config{Backend: "sheets"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}
