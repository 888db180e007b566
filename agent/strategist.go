package agent

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/nstehr/vimy/vimy-zerg/config"
	"github.com/nstehr/vimy/vimy-zerg/rules"
)

// Strategist keeps the reaction rules of every live agent in step with the
// config file, swapping each engine's rule set when the file changes.
type Strategist struct {
	mu      sync.Mutex
	path    string
	cfg     *config.Config
	engines map[*rules.Engine]struct{}
	ready   chan struct{}
}

// NewStrategist starts from cfg, which was loaded from path. An empty path
// disables reloading.
func NewStrategist(path string, cfg *config.Config) *Strategist {
	return &Strategist{
		path:    path,
		cfg:     cfg,
		engines: make(map[*rules.Engine]struct{}),
		ready:   make(chan struct{}, 1),
	}
}

// Reactions builds a fresh rule set from the current config.
func (s *Strategist) Reactions() ([]*rules.Rule, error) {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()
	return cfg.ReactionRules()
}

func (s *Strategist) Register(e *rules.Engine) {
	s.mu.Lock()
	s.engines[e] = struct{}{}
	s.mu.Unlock()
}

func (s *Strategist) Unregister(e *rules.Engine) {
	s.mu.Lock()
	delete(s.engines, e)
	s.mu.Unlock()
}

// Reload re-reads the config file and swaps the reactions of every
// registered engine. On error the running rules stay in place.
func (s *Strategist) Reload() error {
	cfg, err := config.Load(s.path)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	s.mu.Lock()
	s.cfg = cfg
	engines := make([]*rules.Engine, 0, len(s.engines))
	for e := range s.engines {
		engines = append(engines, e)
	}
	s.mu.Unlock()

	for _, e := range engines {
		rs, err := cfg.ReactionRules()
		if err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		if err := e.Swap(rs); err != nil {
			return fmt.Errorf("reload: %w", err)
		}
	}
	slog.Info("reactions reloaded", "path", s.path, "engines", len(engines))
	return nil
}

// Start watches the config file until ctx is cancelled. Editors often replace
// the file instead of writing it, so the directory is watched.
func (s *Strategist) Start(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(s.path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	slog.Info("strategist started", "path", target)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.ready:
				if err := s.Reload(); err != nil {
					slog.Error("config reload failed", "error", err)
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("strategist stopped")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			// A burst of writes collapses into one pending reload.
			select {
			case s.ready <- struct{}{}:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watch error", "error", err)
		}
	}
}
