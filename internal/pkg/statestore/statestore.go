// Package statestore persists client-only state (carts, admin sessions) keyed
// by an opaque cookie value.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Load when the key is absent or expired.
var ErrNotFound = errors.New("state not found")

// Store is a key/value store for serialized client state. A ttl of 0 means no
// expiry.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// LoadJSON loads key and decodes it into v.
func LoadJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := s.Load(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode state %q: %w", key, err)
	}
	return nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode state %q: %w", key, err)
	}
	return s.Save(ctx, key, raw, ttl)
}
