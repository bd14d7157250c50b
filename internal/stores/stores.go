// Package stores opens the durable store selected by the host settings.
package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/storage"
	"github.com/goliatone/go-formflow/pkg/storage/redisstore"
	"github.com/goliatone/go-formflow/pkg/storage/sqlstore"
)

// Kinds accepted by Open.
const (
	KindMemory = "memory"
	KindRedis  = "redis"
	KindSQLite = "sqlite"
)

// Config selects and addresses a store.
type Config struct {
	Kind          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
	SQLitePath    string
}

// Checker is implemented by stores that can report their health.
type Checker interface {
	Healthy(ctx context.Context) bool
}

// Closer releases a store connection.
type Closer interface {
	Close() error
}

// CloserGroup closes every member, returning the first error.
type CloserGroup struct {
	closers []Closer
}

// Add registers c.
func (g *CloserGroup) Add(c Closer) {
	if c != nil {
		g.closers = append(g.closers, c)
	}
}

// Close closes members in reverse order.
func (g *CloserGroup) Close() error {
	var errs []error
	for i := len(g.closers) - 1; i >= 0; i-- {
		if err := g.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Opened is the result of Open.
type Opened struct {
	Store   storage.Store
	Checker Checker
	Closers *CloserGroup
	// Degraded is true when the configured backend could not be reached and
	// the in-memory store is used instead.
	Degraded bool
}

// Open connects to the configured backend. Durable backends are wrapped with
// an in-memory fallback; when the backend cannot be reached at all the memory
// store is returned with Degraded set, so the host keeps serving without
// persistence.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Opened, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := Opened{Closers: &CloserGroup{}}
	memory := storage.NewMemory()

	switch cfg.Kind {
	case "", KindMemory:
		out.Store = memory
		return out, nil

	case KindRedis:
		store, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redisstore.WithTTL(cfg.RedisTTL),
			redisstore.WithLogger(logger),
		)
		if err != nil {
			logger.Warn("stores: redis unavailable, answers kept in memory", zap.Error(err))
			out.Store, out.Degraded = memory, true
			return out, nil
		}
		out.Store = storage.WithFallback(store, memory)
		out.Checker = store
		out.Closers.Add(store)
		return out, nil

	case KindSQLite:
		store, err := sqlstore.Open(cfg.SQLitePath, sqlstore.WithLogger(logger))
		if err != nil {
			logger.Warn("stores: sqlite unavailable, answers kept in memory", zap.Error(err))
			out.Store, out.Degraded = memory, true
			return out, nil
		}
		out.Store = storage.WithFallback(store, memory)
		out.Checker = store
		out.Closers.Add(store)
		return out, nil

	default:
		return Opened{}, fmt.Errorf("stores: unknown kind %q", cfg.Kind)
	}
}
