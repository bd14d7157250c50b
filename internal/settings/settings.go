// Package settings reads host configuration from the environment, optionally
// seeded from a .env file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "FORMFLOW_"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Settings configures the HTTP host.
type Settings struct {
	Addr     string `env:"ADDR" envDefault:":8080"`
	LogMode  string `env:"LOG_MODE" envDefault:"dev"`
	FormPath string `env:"FORM" envDefault:"examples/forms/intake.yaml"`
	Renderer string `env:"RENDERER" envDefault:"vanilla"`

	ThemeManifest string `env:"THEME_MANIFEST"`
	ThemeVariant  string `env:"THEME_VARIANT"`

	Store         string        `env:"STORE" envDefault:"memory"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisTTL      time.Duration `env:"REDIS_TTL" envDefault:"168h"`
	SQLitePath    string        `env:"SQLITE_PATH" envDefault:"formflow.db"`

	CookieName string        `env:"COOKIE_NAME" envDefault:"formflow_session"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"2h"`

	OTelEnabled bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"formflow"`
}

// Load reads the given .env files (missing files are skipped) and then the
// process environment. Variables already set in the environment win over the
// files.
func Load(files ...string) (Settings, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("settings: load %s: %w", file, err)
		}
	}
	return parse(env.Options{Prefix: Prefix})
}

// FromMap parses settings from vars instead of the process environment. Keys
// carry the prefix, as in the environment.
func FromMap(vars map[string]string) (Settings, error) {
	if vars == nil {
		vars = map[string]string{}
	}
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

// FromEnviron is FromMap over os.Environ-style entries.
func FromEnviron(environ []string) (Settings, error) {
	vars := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if ok {
			vars[key] = value
		}
	}
	return FromMap(vars)
}

func parse(opts env.Options) (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, opts); err != nil {
		return Settings{}, fmt.Errorf("settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks values the parser cannot.
func (s Settings) Validate() error {
	switch strings.ToLower(s.Store) {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("settings: unknown store %q (want memory, redis or sqlite)", s.Store)
	}
	if strings.TrimSpace(s.CookieName) == "" {
		return errors.New("settings: cookie name is empty")
	}
	if s.SessionTTL <= 0 {
		return fmt.Errorf("settings: session ttl must be positive, got %s", s.SessionTTL)
	}
	return nil
}

// StoreKind returns the normalised store kind.
func (s Settings) StoreKind() string {
	return strings.ToLower(s.Store)
}

// Hostname is used as the telemetry instance attribute.
func Hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
