package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nstehr/vimy/vimy-zerg/config"
	"github.com/nstehr/vimy/vimy-zerg/rules"
)

const oneReaction = `
reactions:
  defaults: false
  rules:
    - name: bank
      when: Minerals() > 800
      action: hold_production
      ticks: 30
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newEngine(t *testing.T, s *Strategist) *rules.Engine {
	t.Helper()
	rs, err := s.Reactions()
	if err != nil {
		t.Fatal(err)
	}
	e, err := rules.NewEngine(rs)
	if err != nil {
		t.Fatal(err)
	}
	s.Register(e)
	return e
}

func TestStrategistReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log:\n  level: info\n")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	s := NewStrategist(path, cfg)
	e := newEngine(t, s)
	if n := len(e.Rules()); n != len(rules.DefaultReactions()) {
		t.Fatalf("expected default reactions, got %d rules", n)
	}

	writeFile(t, path, oneReaction)
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := e.Rules(); len(got) != 1 || got[0] != "bank" {
		t.Errorf("rules after reload = %v", got)
	}

	// New engines start from the reloaded config.
	if got := newEngine(t, s).Rules(); len(got) != 1 {
		t.Errorf("new engine rules = %v", got)
	}

	// A broken file leaves the running rules alone.
	writeFile(t, path, "reactions:\n  rules:\n    - name: x\n      when: \"(\"\n      action: publish\n      message: y\n")
	if err := s.Reload(); err == nil {
		t.Errorf("expected reload error")
	}
	if got := e.Rules(); len(got) != 1 || got[0] != "bank" {
		t.Errorf("rules after failed reload = %v", got)
	}

	s.Unregister(e)
	writeFile(t, path, "log:\n  level: info\n")
	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}
	if got := e.Rules(); len(got) != 1 {
		t.Errorf("unregistered engine was swapped: %v", got)
	}
}

func TestStrategistWatchesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log:\n  level: info\n")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	s := NewStrategist(path, cfg)
	e := newEngine(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// The watcher may not be registered yet; keep writing until it notices.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		writeFile(t, path, oneReaction)
		time.Sleep(100 * time.Millisecond)
		if got := e.Rules(); len(got) == 1 && got[0] == "bank" {
			return
		}
	}
	t.Fatalf("reactions not reloaded, rules = %v", e.Rules())
}

func TestStrategistWithoutPath(t *testing.T) {
	s := NewStrategist("", config.Default())
	if err := s.Start(context.Background()); err != nil {
		t.Errorf("Start without a path should return nil, got %v", err)
	}
}
