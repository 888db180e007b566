package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nstehr/vimy/vimy-zerg/build"
	"github.com/nstehr/vimy/vimy-zerg/dsl"
	"github.com/nstehr/vimy/vimy-zerg/gamedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cat, err := dsl.Default()
	require.NoError(t, err)
	assert.NoError(t, cfg.CheckOpenings(cat), "default openings exist in the embedded catalog")

	reactions, err := cfg.ReactionRules()
	require.NoError(t, err)
	assert.NotEmpty(t, reactions)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
agent:
  socket: /run/zerg.sock
  batch: 4
  openings:
    terran: twelve_pool
log:
  level: debug
  format: json
supply:
  divisor: 10
metrics:
  enabled: true
  addr: 127.0.0.1:9999
reactions:
  defaults: false
  rules:
    - name: protoss-macro
      priority: 20
      when: EnemyRace() == "Protoss"
      action: set_build
      build: ling_queen_macro
    - name: bank
      when: Minerals() > 800
      action: hold_production
      ticks: 30
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/run/zerg.sock", cfg.Agent.Socket)
	assert.Equal(t, 4, cfg.Agent.Batch)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.SupplyRule().Divisor)
	assert.Equal(t, 2, cfg.SupplyRule().Base, "unset keys keep their defaults")
	assert.True(t, cfg.Metrics.Enabled)

	reactions, err := cfg.ReactionRules()
	require.NoError(t, err)
	require.Len(t, reactions, 2)
	assert.Equal(t, "protoss-macro", reactions[0].Name)
}

func TestOpeningSelection(t *testing.T) {
	cfg := Default()
	cfg.Agent.Openings["terran"] = "twelve_pool"

	assert.Equal(t, build.BuildID("twelve_pool"), cfg.Opening(gamedata.RaceTerran))
	assert.Equal(t, build.BuildID("pool_first"), cfg.Opening("zerg"))
	assert.Equal(t, build.BuildID("hatch_gas_pool"), cfg.Opening(gamedata.RaceProtoss))
	assert.Equal(t, build.BuildID("hatch_gas_pool"), cfg.Opening(""))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty socket", func(c *Config) { c.Agent.Socket = "" }},
		{"zero batch", func(c *Config) { c.Agent.Batch = 0 }},
		{"no default opening", func(c *Config) { delete(c.Agent.Openings, DefaultOpening) }},
		{"unknown race", func(c *Config) { c.Agent.Openings["martian"] = "pool_first" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"damaged fraction", func(c *Config) { c.Supply.DamagedFraction = 1.5 }},
		{"mineral radius", func(c *Config) { c.Supply.MineralRadius = 0 }},
		{"metrics addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "agent: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `
reactions:
  rules:
    - name: broken
      when: "true"
      action: set_build
`))
	assert.Error(t, err, "set_build without a build")
}

func TestCheckOpenings(t *testing.T) {
	cat, err := dsl.Default()
	require.NoError(t, err)

	cfg := Default()
	cfg.Agent.Openings[gamedata.RaceTerran] = "roach_hydra"
	assert.Error(t, cfg.CheckOpenings(cat), "mid-game build as opening")

	cfg = Default()
	cfg.Agent.Openings[gamedata.RaceTerran] = "missing"
	assert.Error(t, cfg.CheckOpenings(cat))
}
