// Package persistence snapshots in-progress answers and the active page into a
// storage.Store so an interrupted session can resume. Every operation is best
// effort: failures are logged at debug level and never returned.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/storage"
)

// Keys used for the three persisted entries.
const (
	KeyResponses = "intakeForm_userResponse"
	KeyPageID    = "intakeForm_currentPageId"
	KeyPageCode  = "intakeForm_currentPageCode"
)

// Option customises an Adapter.
type Option func(*Adapter)

// WithNamespace prefixes every key with namespace, isolating sessions that
// share one store.
func WithNamespace(namespace string) Option {
	return func(a *Adapter) {
		a.namespace = strings.TrimSpace(namespace)
	}
}

// WithLogger attaches a logger for swallowed failures.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Adapter reads and writes session snapshots.
type Adapter struct {
	store     storage.Store
	namespace string
	logger    *zap.Logger
}

// New builds an adapter over store. A nil store falls back to an in-memory
// store so the session still works without durable storage.
func New(store storage.Store, opts ...Option) *Adapter {
	if store == nil {
		store = storage.NewMemory()
	}
	a := &Adapter{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Namespace returns the key prefix in use.
func (a *Adapter) Namespace() string {
	return a.namespace
}

func (a *Adapter) key(base string) string {
	if a.namespace == "" {
		return base
	}
	return a.namespace + ":" + base
}

// Save writes the responses and, when pageCode is not empty, the page id and
// code. Each entry is written independently.
func (a *Adapter) Save(ctx context.Context, responses model.Responses, pageID, pageCode string) {
	if a == nil {
		return
	}
	if responses == nil {
		responses = model.Responses{}
	}
	data, err := json.Marshal(responses)
	if err != nil {
		a.logger.Debug("persistence: encode responses", zap.Error(err))
	} else {
		a.set(ctx, KeyResponses, string(data))
	}

	if pageCode == "" {
		return
	}
	a.set(ctx, KeyPageID, pageID)
	a.set(ctx, KeyPageCode, pageCode)
}

// Load returns the saved responses. ok is false when nothing usable is stored.
func (a *Adapter) Load(ctx context.Context) (model.Responses, bool) {
	raw, ok := a.get(ctx, KeyResponses)
	if !ok {
		return nil, false
	}
	var responses model.Responses
	if err := json.Unmarshal([]byte(raw), &responses); err != nil {
		a.logger.Debug("persistence: decode responses", zap.String("key", a.key(KeyResponses)), zap.Error(err))
		return nil, false
	}
	if responses == nil {
		return nil, false
	}
	return responses, true
}

// LoadPageCode returns the last saved page code.
func (a *Adapter) LoadPageCode(ctx context.Context) (string, bool) {
	return a.get(ctx, KeyPageCode)
}

// LoadPageID returns the last saved page id.
func (a *Adapter) LoadPageID(ctx context.Context) (string, bool) {
	return a.get(ctx, KeyPageID)
}

// Clear removes all three entries.
func (a *Adapter) Clear(ctx context.Context) {
	if a == nil {
		return
	}
	for _, key := range []string{KeyResponses, KeyPageID, KeyPageCode} {
		if err := a.store.Remove(ctx, a.key(key)); err != nil {
			a.logger.Debug("persistence: remove", zap.String("key", a.key(key)), zap.Error(err))
		}
	}
}

func (a *Adapter) set(ctx context.Context, key, value string) {
	if err := a.store.Set(ctx, a.key(key), value); err != nil {
		a.logger.Debug("persistence: write", zap.String("key", a.key(key)), zap.Error(err))
	}
}

func (a *Adapter) get(ctx context.Context, key string) (string, bool) {
	if a == nil {
		return "", false
	}
	value, err := a.store.Get(ctx, a.key(key))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.logger.Debug("persistence: read", zap.String("key", a.key(key)), zap.Error(err))
		}
		return "", false
	}
	if value == "" {
		return "", false
	}
	return value, true
}
