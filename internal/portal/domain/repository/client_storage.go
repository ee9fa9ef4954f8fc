package repository

import (
	"context"
	"errors"
)

// ErrItemNotFound is returned by ClientStorage.GetItem for a missing item.
var ErrItemNotFound = errors.New("client storage item not found")

// ClientStorage is durable per-browser key-value storage. Every client id owns
// an independent namespace of items.
type ClientStorage interface {
	GetItem(ctx context.Context, clientID, key string) ([]byte, error)
	SetItem(ctx context.Context, clientID, key string, value []byte) error
	// RemoveItem is idempotent.
	RemoveItem(ctx context.Context, clientID, key string) error
	Ping(ctx context.Context) error
}
