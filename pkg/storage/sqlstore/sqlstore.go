// Package sqlstore implements storage.Store as a key/value table managed by
// GORM. Open targets SQLite; New accepts any GORM dialect.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/goliatone/go-formflow/pkg/storage"
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = ":memory:"

// Entry is one stored key.
type Entry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:255"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of naming strategy.
func (Entry) TableName() string {
	return "formflow_entries"
}

// Store reads and writes Entry rows.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ storage.Store = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithLogger attaches a logger for failed queries.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to a SQLite database at dsn, creating parent directories for
// file databases, and migrates the entries table.
func Open(dsn string, opts ...Option) (*Store, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	if dsn != MemoryDSN {
		if dir := filepath.Dir(dsn); dir != "." && dir != "/" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlstore: create directory %s: %w", dir, err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dsn, err)
	}
	if dsn == MemoryDSN {
		// Every pooled connection would otherwise get its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlstore: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db, opts...)
}

// New wraps an open GORM handle and migrates the entries table.
func New(db *gorm.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is nil")
	}
	s := &Store{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return s, nil
}

// Get returns storage.ErrNotFound for missing keys.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		s.logger.Error("sql get failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("sqlstore: get %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set inserts or replaces key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		s.logger.Error("sql set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("sqlstore: set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&Entry{}).Error; err != nil {
		s.logger.Error("sql delete failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("sqlstore: remove %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("sqlstore: %w", err)
	}
	return sqlDB.Close()
}

// Healthy pings the database.
func (s *Store) Healthy(ctx context.Context) bool {
	sqlDB, err := s.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}
