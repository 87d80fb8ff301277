package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gobwas/glob"

	"github.com/mnott/pynalyze/internal/core/config"
	"github.com/mnott/pynalyze/internal/core/errors"
	"github.com/mnott/pynalyze/internal/core/ports"
	"github.com/mnott/pynalyze/internal/data/history"
	"github.com/mnott/pynalyze/internal/engine/parser"
	"github.com/mnott/pynalyze/internal/engine/resolver"
)

// App wires the parser, usage collection and resolution for a config. It is
// safe for concurrent use; ApplyConfig swaps the active settings atomically.
type App struct {
	Parser *parser.Parser

	mu           sync.RWMutex
	config       *config.Config
	resolver     *resolver.Resolver
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	history ports.HistoryStore
}

func New(cfg *config.Config) (*App, error) {
	a := &App{Parser: parser.NewParser()}
	if err := a.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "open history store")
		}
		a.history = store
		slog.Debug("history store opened", "path", store.Path())
	}
	return a, nil
}

// ApplyConfig validates cfg and makes it the active configuration. The
// history store is opened once by New and is not affected.
func (a *App) ApplyConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.New(errors.CodeValidationError, "config is required")
	}
	if err := config.Validate(cfg); err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "invalid config")
	}
	r, err := resolver.NewResolver(cfg.Exclude.Imports, cfg.Exclude.Functions)
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "invalid exclusion pattern")
	}
	dirs, err := compileGlobs(cfg.Exclude.Dirs, "exclude dir")
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "invalid exclusion pattern")
	}
	files, err := compileGlobs(cfg.Exclude.Files, "exclude file")
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "invalid exclusion pattern")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = cfg
	a.resolver = r
	a.excludeDirs = dirs
	a.excludeFiles = files
	return nil
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// SetHistoryStore replaces the history store; nil disables recording.
func (a *App) SetHistoryStore(store ports.HistoryStore) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = store
}

// History returns the configured store, or nil when recording is off.
func (a *App) History() ports.HistoryStore {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.history
}

func (a *App) snapshot() (*config.Config, *resolver.Resolver, ports.HistoryStore) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config, a.resolver, a.history
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	store := a.history
	a.history = nil
	a.mu.Unlock()
	if store == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		slog.Warn("closing history store after context end", "error", err)
	}
	return store.Close()
}
