package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ClientStorage keeps client items as plain Redis strings under
// <prefix>:<clientID>:<item>.
type ClientStorage struct {
	client  redis.UniversalClient
	prefix  string
	idleTTL time.Duration
	logger  logger.Logger
}

var _ repository.ClientStorage = (*ClientStorage)(nil)

// NewClientStorage creates a Redis-backed client storage. With a positive
// idleTTL every read or write pushes the expiry of the item forward; zero
// keeps items until they are removed.
func NewClientStorage(client redis.UniversalClient, prefix string, idleTTL time.Duration, log logger.Logger) *ClientStorage {
	return &ClientStorage{
		client:  client,
		prefix:  prefix,
		idleTTL: idleTTL,
		logger:  log.WithComponent("redis_client_storage"),
	}
}

func (s *ClientStorage) key(clientID, item string) string {
	return s.prefix + ":" + clientID + ":" + item
}

// GetItem returns the item, or repository.ErrItemNotFound.
func (s *ClientStorage) GetItem(ctx context.Context, clientID, item string) ([]byte, error) {
	var cmd *redis.StringCmd
	if s.idleTTL > 0 {
		cmd = s.client.GetEx(ctx, s.key(clientID, item), s.idleTTL)
	} else {
		cmd = s.client.Get(ctx, s.key(clientID, item))
	}

	val, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrItemNotFound
	}
	if err != nil {
		s.logger.Error("Failed to read client item",
			zap.String("item", item),
			zap.Error(err))
		return nil, fmt.Errorf("redis get %s: %w", item, err)
	}
	return val, nil
}

func (s *ClientStorage) SetItem(ctx context.Context, clientID, item string, value []byte) error {
	if err := s.client.Set(ctx, s.key(clientID, item), value, s.idleTTL).Err(); err != nil {
		s.logger.Error("Failed to write client item",
			zap.String("item", item),
			zap.Error(err))
		return fmt.Errorf("redis set %s: %w", item, err)
	}
	return nil
}

func (s *ClientStorage) RemoveItem(ctx context.Context, clientID, item string) error {
	if err := s.client.Del(ctx, s.key(clientID, item)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", item, err)
	}
	return nil
}

func (s *ClientStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
