package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound indicates the key has never been written.
var ErrKeyNotFound = errors.New("kv: key not found")

// Store is the storage primitive behind every record collection. Values are
// JSON documents; implementations own the encoding.
type Store interface {
	Get(ctx context.Context, key string, out any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// GetList reads a collection key into dst, treating an absent key as an empty
// collection.
func GetList[T any](ctx context.Context, store Store, key string) ([]T, error) {
	var items []T
	if err := store.Get(ctx, key, &items); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return items, nil
}
