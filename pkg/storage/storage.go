// Package storage defines the durable key-value port used to keep in-progress
// answers across restarts, along with an in-memory implementation and a
// fallback wrapper.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a string-keyed, string-valued durable store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Memory is a process-local Store. The zero value is ready to use.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the stored value or ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len reports the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// WithFallback returns a Store that uses primary and switches to fallback
// once primary fails with anything other than ErrNotFound. A nil primary
// yields fallback directly; a nil fallback defaults to a new Memory store.
func WithFallback(primary, fallback Store) Store {
	if fallback == nil {
		fallback = NewMemory()
	}
	if primary == nil {
		return fallback
	}
	return &fallbackStore{primary: primary, fallback: fallback}
}

type fallbackStore struct {
	primary  Store
	fallback Store

	mu       sync.RWMutex
	degraded bool
}

func (f *fallbackStore) active() Store {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.degraded {
		return f.fallback
	}
	return f.primary
}

func (f *fallbackStore) degrade(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.degraded {
		return false
	}
	f.degraded = true
	return true
}

func (f *fallbackStore) Get(ctx context.Context, key string) (string, error) {
	value, err := f.active().Get(ctx, key)
	if f.degrade(err) {
		return f.fallback.Get(ctx, key)
	}
	return value, err
}

func (f *fallbackStore) Set(ctx context.Context, key, value string) error {
	err := f.active().Set(ctx, key, value)
	if f.degrade(err) {
		return f.fallback.Set(ctx, key, value)
	}
	return err
}

func (f *fallbackStore) Remove(ctx context.Context, key string) error {
	err := f.active().Remove(ctx, key)
	if f.degrade(err) {
		return f.fallback.Remove(ctx, key)
	}
	return err
}
