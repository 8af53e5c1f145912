package device

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Store is the persisted key-value fact store. *redis.Client satisfies it.
type Store interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	AuthorizationCodeKey(deviceID string) string
	LocationKey(deviceID string) string
}

// Credentials caches the authorization code and last known location per device.
type Credentials struct {
	store Store
}

func NewCredentials(store Store) (*Credentials, error) {
	if store == nil {
		return nil, fmt.Errorf("credential store required")
	}
	return &Credentials{store: store}, nil
}

// AuthorizationCode returns the cached code, or "" when the device never signed in.
func (c *Credentials) AuthorizationCode(ctx context.Context, deviceID string) (string, error) {
	value, ok, err := c.store.Lookup(ctx, c.store.AuthorizationCodeKey(deviceID))
	if err != nil {
		return "", fmt.Errorf("load authorization code: %w", err)
	}
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(value), nil
}

func (c *Credentials) SaveAuthorizationCode(ctx context.Context, deviceID, code string) error {
	if err := c.store.Set(ctx, c.store.AuthorizationCodeKey(deviceID), strings.TrimSpace(code), 0); err != nil {
		return fmt.Errorf("save authorization code: %w", err)
	}
	return nil
}

// ClearAuthorizationCode forgets the code, e.g. on sign-out.
func (c *Credentials) ClearAuthorizationCode(ctx context.Context, deviceID string) error {
	if err := c.store.Del(ctx, c.store.AuthorizationCodeKey(deviceID)); err != nil {
		return fmt.Errorf("clear authorization code: %w", err)
	}
	return nil
}

// LastLocation returns the last persisted reading, or nil.
func (c *Credentials) LastLocation(ctx context.Context, deviceID string) (*Location, error) {
	value, ok, err := c.store.Lookup(ctx, c.store.LocationKey(deviceID))
	if err != nil {
		return nil, fmt.Errorf("load last location: %w", err)
	}
	if !ok || value == "" {
		return nil, nil
	}
	var loc Location
	if err := json.Unmarshal([]byte(value), &loc); err != nil {
		return nil, fmt.Errorf("decode last location: %w", err)
	}
	return &loc, nil
}

func (c *Credentials) SaveLocation(ctx context.Context, deviceID string, loc Location) error {
	payload, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}
	if err := c.store.Set(ctx, c.store.LocationKey(deviceID), string(payload), 0); err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store used when no Redis is configured.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

func (m *MemoryStore) Lookup(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *MemoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *MemoryStore) AuthorizationCodeKey(deviceID string) string {
	return "authorization_code:" + deviceID
}

func (m *MemoryStore) LocationKey(deviceID string) string {
	return "location:" + deviceID
}
