package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/internal/server"
	"github.com/goliatone/go-formflow/internal/settings"
	"github.com/goliatone/go-formflow/internal/stores"
	"github.com/goliatone/go-formflow/internal/telemetry"
	"github.com/goliatone/go-formflow/pkg/loader"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
)

var version = "dev"

func main() {
	envFile := flag.String("env-file", ".env", "optional .env file read before the environment")
	formPath := flag.String("form", "", "questionnaire config (overrides FORMFLOW_FORM)")
	addr := flag.String("addr", "", "listen address (overrides FORMFLOW_ADDR)")
	flag.Parse()

	cfg, err := settings.Load(*envFile)
	if err != nil {
		log.Fatalf("settings: %v", err)
	}
	if *formPath != "" {
		cfg.FormPath = *formPath
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("formflow-server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg settings.Settings, logger *zap.Logger) error {
	form, err := loader.LoadFile(cfg.FormPath)
	if err != nil {
		return fmt.Errorf("load form: %w", err)
	}

	opened, err := stores.Open(ctx, stores.Config{
		Kind:          cfg.StoreKind(),
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisTTL:      cfg.RedisTTL,
		SQLitePath:    cfg.SQLitePath,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := opened.Closers.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()

	tracing := telemetry.Init(ctx, logger, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.ServiceName,
		Instance:    settings.Hostname(),
		Version:     version,
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithStore(opened.Store),
		server.WithCookie(cfg.CookieName, 0, false),
		server.WithSessionTTL(cfg.SessionTTL),
		server.WithBaseContext(ctx),
		server.WithOnSubmit(func(sub model.Submission) {
			logger.Info("form submitted",
				zap.String("submission_id", sub.ID),
				zap.String("form", sub.FormID),
				zap.Time("at", sub.SubmissionDate),
			)
		}),
	}
	if cfg.Renderer != "" {
		registry, err := formflow.DefaultRenderers()
		if err != nil {
			return err
		}
		opts = append(opts, server.WithRenderers(registry, cfg.Renderer))
	}
	if cfg.ThemeManifest != "" {
		selector, err := loadTheme(cfg.ThemeManifest, cfg.ThemeVariant)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithThemeSelector(selector, "", cfg.ThemeVariant))
	}
	if opened.Checker != nil {
		opts = append(opts, server.WithHealthCheck(cfg.StoreKind(), opened.Checker))
	}
	if tracing.Enabled() {
		opts = append(opts, server.WithTracerProvider(tracing.TracerProvider(), cfg.ServiceName))
	}

	srv, err := server.New(form, opts...)
	if err != nil {
		return err
	}
	return srv.Run(ctx, cfg.Addr)
}

func loadTheme(path, variant string) (theme.ThemeSelector, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("theme manifest: %w", err)
	}
	defer file.Close()

	manifest, err := render.ReadThemeManifest(file)
	if err != nil {
		return nil, err
	}
	return render.SingleTheme(manifest, variant), nil
}
