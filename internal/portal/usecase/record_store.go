package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"afi-portal/internal/portal/adapter/security"
	"afi-portal/internal/portal/domain/repository"
)

// RecordStore reads and writes JSON records in client storage, sealed per
// client when a seal key is configured.
type RecordStore struct {
	storage repository.ClientStorage
	sealers security.SealerFactory
}

// NewRecordStore wraps storage. A nil factory stores plain JSON.
func NewRecordStore(storage repository.ClientStorage, sealers security.SealerFactory) *RecordStore {
	if sealers == nil {
		sealers = func(string) security.RecordSealer { return security.PlainSealer{} }
	}
	return &RecordStore{storage: storage, sealers: sealers}
}

// errUnreadable marks a record that exists but cannot be decoded.
var errUnreadable = errors.New("client record is unreadable")

// Get decodes the record into out. It returns repository.ErrItemNotFound when
// absent and errUnreadable when the bytes fail to open or parse.
func (s *RecordStore) Get(ctx context.Context, clientID, key string, out interface{}) error {
	raw, err := s.storage.GetItem(ctx, clientID, key)
	if err != nil {
		return err
	}
	plain, err := s.sealers(clientID).Open(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", errUnreadable, err)
	}
	if err := json.Unmarshal(plain, out); err != nil {
		return fmt.Errorf("%w: %v", errUnreadable, err)
	}
	return nil
}

// Put overwrites the record.
func (s *RecordStore) Put(ctx context.Context, clientID, key string, v interface{}) error {
	plain, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	sealed, err := s.sealers(clientID).Seal(plain)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.storage.SetItem(ctx, clientID, key, sealed)
}

// Delete removes the record. Missing records are not an error.
func (s *RecordStore) Delete(ctx context.Context, clientID, key string) error {
	return s.storage.RemoveItem(ctx, clientID, key)
}

// Ping checks the storage backend.
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}
