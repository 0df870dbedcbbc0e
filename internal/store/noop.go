package store

import (
	"context"

	"StockPilot/internal/model"
)

// NoopStore keeps nothing: every load is empty and every save succeeds.
type NoopStore struct{}

func (NoopStore) Name() string                              { return "none" }
func (NoopStore) Load(context.Context) (*model.Book, error) { return model.NewBook(), nil }
func (NoopStore) Save(context.Context, *model.Book) error   { return nil }
func (NoopStore) Close() error                              { return nil }
