package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/haukened/rr-gfwlist/internal/gfwlist/common/clock"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/common/log"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/common/utils"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/config"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/domain"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/engine"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/repos/decisioncache/lru"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/services/classifier"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "rr-gfwlist"
)

// Application holds the loaded configuration and the classifier built from it.
type Application struct {
	config     *config.AppConfig
	classifier *classifier.Classifier
}

func main() {
	configPath := flag.String("config", "", "optional yaml, json or toml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"app":           appName,
		"version":       version,
		"env":           cfg.Env,
		"log_level":     cfg.LogLevel,
		"list_file":     cfg.ListFile,
		"cache_size":    cfg.CacheSize,
		"regex_timeout": cfg.RegexTimeout.String(),
		"precedence":    cfg.Precedence,
	}, "starting")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "build_failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigChan {
			if sig == syscall.SIGHUP {
				if err := app.reload(); err != nil {
					log.Warn(map[string]any{"error": err.Error()}, "reload_rejected")
				}
				continue
			}
			log.Info(map[string]any{"signal": sig.String()}, "shutdown_signal")
			cancel()
			return
		}
	}()

	if err := app.Run(ctx, flag.Args(), os.Stdin, os.Stdout); err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "run_failed")
	}
}

// buildApplication turns the configuration into a classifier with the list loaded.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	engineOpts, err := engineOptions(cfg)
	if err != nil {
		return nil, err
	}

	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}

	app := &Application{
		config: cfg,
		classifier: classifier.NewClassifier(classifier.ClassifierOptions{
			Cache:         cache,
			Clock:         clock.RealClock{},
			Logger:        log.GetLogger(),
			EngineOptions: engineOpts,
		}),
	}
	if err := app.reload(); err != nil {
		return nil, err
	}
	return app, nil
}

// engineOptions maps the configured matcher tuning onto engine options.
func engineOptions(cfg *config.AppConfig) ([]engine.Option, error) {
	order := make([]engine.MatcherKind, 0, len(cfg.Precedence))
	for _, name := range cfg.Precedence {
		k, err := engine.ParseMatcherKind(name)
		if err != nil {
			return nil, err
		}
		order = append(order, k)
	}
	return []engine.Option{
		engine.WithPrecedence(order...),
		engine.WithRegexTimeout(cfg.RegexTimeout),
		engine.WithBloomFPRate(cfg.BloomFPRate),
	}, nil
}

// reload reads the list file and hands its text to the classifier.
func (app *Application) reload() error {
	text, err := os.ReadFile(app.config.ListFile)
	if err != nil {
		return fmt.Errorf("failed to read list file: %w", err)
	}
	if err := app.classifier.Reload(string(text)); err != nil {
		return fmt.Errorf("failed to load list %s: %w", app.config.ListFile, err)
	}
	return nil
}

// Run classifies each URL in args, or each non-empty line of in when args is
// empty, and writes one result line per URL to out. It stops early when ctx
// is cancelled.
func (app *Application) Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	if len(args) > 0 {
		for _, raw := range args {
			if ctx.Err() != nil {
				return nil
			}
			if err := app.classifyOne(w, raw); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		if err := app.classifyOne(w, raw); err != nil {
			return err
		}
		// keep interactive use responsive
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (app *Application) classifyOne(w io.Writer, raw string) error {
	d, err := app.classifier.Classify(raw)
	switch {
	case err != nil:
		_, err = fmt.Fprintf(w, "ERROR %s %v\n", raw, err)
	case d.Blocked:
		if u, nerr := domain.NormalizeURL(raw); nerr == nil {
			log.Debug(map[string]any{
				"host": u.Host,
				"apex": utils.GetApexDomain(u.Host),
				"rule": d.MatchedRule,
				"line": d.Line,
				"kind": d.Kind.String(),
			}, "url_blocked")
		}
		_, err = fmt.Fprintf(w, "BLOCKED %s %s\n", raw, d.MatchedRule)
	default:
		_, err = fmt.Fprintf(w, "ALLOWED %s\n", raw)
	}
	return err
}
