package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"StockPilot/internal/model"
)

// RedisStore keeps the book as a JSON string value.
type RedisStore struct {
	rdb *goredis.Client
	key string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(addr, password string, db int, key string) (*RedisStore, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	if key == "" {
		key = DefaultKey
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb, key: key}, nil
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Load(ctx context.Context) (*model.Book, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.NewBook(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	book := model.NewBook()
	if err := json.Unmarshal(data, book); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key, err)
	}
	book.Normalize()
	return book, nil
}

func (r *RedisStore) Save(ctx context.Context, book *model.Book) error {
	book.UpdatedAt = time.Now()
	data, err := json.Marshal(book)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Close() error { return r.rdb.Close() }
