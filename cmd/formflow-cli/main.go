package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/internal/logging"
	"github.com/goliatone/go-formflow/internal/stores"
	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/loader"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/navigation"
	"github.com/goliatone/go-formflow/pkg/persistence"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/tui"
)

type options struct {
	form      string
	format    string
	output    string
	db        string
	ephemeral bool
	namespace string
	subject   string
	envelope  bool
	render    string
	page      string
	logMode   string
}

func main() {
	var opts options
	flag.StringVar(&opts.form, "form", "examples/forms/intake.yaml", "questionnaire config (JSON or YAML)")
	flag.StringVar(&opts.format, "format", "json", "answer output format (json, form, pretty)")
	flag.StringVar(&opts.output, "output", "", "output file (stdout if empty)")
	flag.StringVar(&opts.db, "db", "formflow.db", "SQLite file keeping unfinished answers")
	flag.BoolVar(&opts.ephemeral, "ephemeral", false, "keep answers in memory only")
	flag.StringVar(&opts.namespace, "session", "", "persistence namespace (defaults to the form slug)")
	flag.StringVar(&opts.subject, "subject", "", "subject id recorded in the submission envelope")
	flag.BoolVar(&opts.envelope, "envelope", false, "print the submission envelope instead of the bare answers")
	flag.StringVar(&opts.render, "render", "", "render the current screen with a renderer (vanilla, text) and exit")
	flag.StringVar(&opts.page, "page", "", "page parameter used with -render")
	flag.StringVar(&opts.logMode, "log", logging.ModeSilent, "log mode (silent, dev, prod)")
	flag.Parse()

	logger, err := logging.New(opts.logMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := run(ctx, opts, logger)
	switch {
	case errors.Is(err, tui.ErrAborted), errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "Stopped. Unfinished answers are kept for the next run.")
		os.Exit(130)
	case err != nil:
		log.Fatalf("formflow: %v", err)
	}

	if opts.output == "" {
		fmt.Println(string(out))
		return
	}
	if err := writeFile(opts.output, out); err != nil {
		log.Fatalf("write output: %v", err)
	}
	log.Printf("wrote %d bytes to %s", len(out), opts.output)
}

func run(ctx context.Context, opts options, logger *zap.Logger) ([]byte, error) {
	form, err := loader.LoadFile(opts.form)
	if err != nil {
		return nil, fmt.Errorf("load form: %w", err)
	}

	kind := stores.KindSQLite
	if opts.ephemeral {
		kind = stores.KindMemory
	}
	opened, err := stores.Open(ctx, stores.Config{Kind: kind, SQLitePath: opts.db}, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = opened.Closers.Close() }()
	if opened.Degraded {
		fmt.Fprintln(os.Stderr, "warning: answers cannot be saved; continuing in memory")
	}

	namespace := opts.namespace
	if namespace == "" {
		namespace = form.Slug
	}

	var submitted model.Responses
	session, err := engine.New(form,
		engine.WithNavigator(navigation.NewHistory(opts.page)),
		engine.WithPersistence(persistence.New(opened.Store,
			persistence.WithNamespace(namespace),
			persistence.WithLogger(logger),
		)),
		engine.WithLogger(logger),
		engine.WithOnSubmit(func(responses model.Responses) {
			submitted = responses
		}),
	)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if opts.render != "" {
		return renderScreen(ctx, session, opts.render)
	}

	runner, err := tui.New(
		tui.WithOutputFormat(tui.OutputFormat(opts.format)),
		tui.WithOutput(os.Stdout),
		tui.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	out, err := runner.Run(ctx, session)
	if err != nil {
		return nil, err
	}
	if !opts.envelope {
		return out, nil
	}

	envelope := model.NewSubmission(uuid.NewString(), opts.subject, form, submitted, time.Now())
	return json.MarshalIndent(envelope, "", "  ")
}

// renderScreen prints the screen the session would show without prompting.
func renderScreen(ctx context.Context, session *engine.Session, name string) ([]byte, error) {
	registry, err := formflow.DefaultRenderers()
	if err != nil {
		return nil, err
	}
	if !registry.Has(name) {
		return nil, fmt.Errorf("renderer %q not registered (available: %v)", name, registry.List())
	}
	renderer, err := registry.Get(name)
	if err != nil {
		return nil, err
	}
	if err := session.Start(ctx); err != nil {
		return nil, err
	}
	screen := session.Screen()
	return renderer.Render(ctx, screen, render.RenderOptions{Messages: render.ErrorSummary(screen)})
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
