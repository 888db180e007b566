// Package config loads the engine's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/nstehr/vimy/vimy-zerg/build"
	"github.com/nstehr/vimy/vimy-zerg/counts"
	"github.com/nstehr/vimy/vimy-zerg/gamedata"
	"github.com/nstehr/vimy/vimy-zerg/resolver"
	"github.com/nstehr/vimy/vimy-zerg/rules"
	"gopkg.in/yaml.v3"
)

// DefaultOpening is the key in Agent.Openings used when the enemy race is
// unknown or has no entry of its own.
const DefaultOpening = "default"

type Config struct {
	Agent struct {
		Socket   string            `yaml:"socket"`
		Batch    int               `yaml:"batch"`
		Openings map[string]string `yaml:"openings"` // enemy race → opening build
	} `yaml:"agent"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`

	Catalog struct {
		Paths []string `yaml:"paths"` // empty: embedded catalog
	} `yaml:"catalog"`

	Supply struct {
		Base            int     `yaml:"base"`
		Divisor         int     `yaml:"divisor"`
		DamagedFraction float64 `yaml:"damaged_fraction"`
		MinProviders    int     `yaml:"min_providers"`
		MineralRadius   float64 `yaml:"mineral_radius"`
	} `yaml:"supply"`

	Events struct {
		PressureUnits int `yaml:"pressure_units"` // enemy units near base
		PressureUntil int `yaml:"pressure_until"` // last tick counted as early
	} `yaml:"events"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`

	Reactions struct {
		Defaults bool         `yaml:"defaults"` // include the built-in reactions
		Rules    []rules.Spec `yaml:"rules"`
	} `yaml:"reactions"`
}

// Default returns a configuration that runs against the embedded catalog.
func Default() *Config {
	cfg := &Config{}
	cfg.Agent.Socket = "/tmp/vimy-zerg.sock"
	cfg.Agent.Batch = resolver.DefaultBatch
	cfg.Agent.Openings = map[string]string{
		DefaultOpening:    "hatch_gas_pool",
		gamedata.RaceZerg: "pool_first",
	}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	sr := resolver.DefaultSupplyRule()
	cfg.Supply.Base = sr.Base
	cfg.Supply.Divisor = sr.Divisor
	cfg.Supply.DamagedFraction = sr.DamagedFraction
	cfg.Supply.MinProviders = sr.MinProviders
	cfg.Supply.MineralRadius = counts.DefaultMineralRadius

	cfg.Events.PressureUnits = 4
	cfg.Events.PressureUntil = 6720 // five minutes at faster speed

	cfg.Metrics.Addr = ":9464"
	cfg.Reactions.Defaults = true
	return cfg
}

// Load overlays the YAML file at path onto Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late, at the first tick.
// Build names are checked against the catalog by CheckOpenings.
func (c *Config) Validate() error {
	var errs []error
	if c.Agent.Socket == "" {
		errs = append(errs, errors.New("agent.socket is empty"))
	}
	if c.Agent.Batch <= 0 {
		errs = append(errs, fmt.Errorf("agent.batch must be positive, got %d", c.Agent.Batch))
	}
	if c.Agent.Openings[DefaultOpening] == "" {
		errs = append(errs, errors.New("agent.openings needs a default entry"))
	}
	for race := range c.Agent.Openings {
		if race == DefaultOpening {
			continue
		}
		if _, ok := gamedata.CanonicalRace(race); !ok {
			errs = append(errs, fmt.Errorf("agent.openings: unknown race %q", race))
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	if c.Supply.Divisor < 0 || c.Supply.Base < 0 {
		errs = append(errs, errors.New("supply.base and supply.divisor must not be negative"))
	}
	if c.Supply.DamagedFraction < 0 || c.Supply.DamagedFraction > 1 {
		errs = append(errs, fmt.Errorf("supply.damaged_fraction %.2f is outside [0, 1]", c.Supply.DamagedFraction))
	}
	if c.Supply.MineralRadius <= 0 {
		errs = append(errs, errors.New("supply.mineral_radius must be positive"))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("metrics.addr is empty"))
	}
	if rs, err := rules.Compile(c.Reactions.Rules); err != nil {
		errs = append(errs, fmt.Errorf("reactions: %w", err))
	} else if _, err := rules.NewEngine(rs); err != nil {
		errs = append(errs, fmt.Errorf("reactions: %w", err))
	}
	return errors.Join(errs...)
}

// Opening returns the opening build for enemyRace.
func (c *Config) Opening(enemyRace string) build.BuildID {
	if race, ok := gamedata.CanonicalRace(enemyRace); ok {
		for k, v := range c.Agent.Openings {
			if r, _ := gamedata.CanonicalRace(k); r == race {
				return build.BuildID(v)
			}
		}
	}
	return build.BuildID(c.Agent.Openings[DefaultOpening])
}

// CheckOpenings reports configured openings that cat lacks or that belong to
// a later stage.
func (c *Config) CheckOpenings(cat *build.Catalog) error {
	var errs []error
	for race, id := range c.Agent.Openings {
		bid := build.BuildID(id)
		switch {
		case !cat.Has(bid):
			errs = append(errs, fmt.Errorf("opening for %s: %s is not in the catalog", race, id))
		case cat.StageOf(bid) != build.Opening:
			errs = append(errs, fmt.Errorf("opening for %s: %s is a %s build", race, id, cat.StageOf(bid)))
		}
	}
	return errors.Join(errs...)
}

// SupplyRule returns the configured supply override rule.
func (c *Config) SupplyRule() resolver.SupplyRule {
	return resolver.SupplyRule{
		Base:            c.Supply.Base,
		Divisor:         c.Supply.Divisor,
		DamagedFraction: c.Supply.DamagedFraction,
		MinProviders:    c.Supply.MinProviders,
	}
}

// ReactionRules returns the built-in reactions (when enabled) followed by the
// configured ones.
func (c *Config) ReactionRules() ([]*rules.Rule, error) {
	var out []*rules.Rule
	if c.Reactions.Defaults {
		out = append(out, rules.DefaultReactions()...)
	}
	custom, err := rules.Compile(c.Reactions.Rules)
	if err != nil {
		return nil, err
	}
	return append(out, custom...), nil
}
