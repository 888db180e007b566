package rules

import (
	"errors"
	"fmt"

	"github.com/nstehr/vimy/vimy-zerg/build"
	"github.com/nstehr/vimy/vimy-zerg/bus"
)

// Action names accepted in reaction specs.
const (
	ActSetBuild          = "set_build"
	ActSuppressWorkers   = "suppress_workers"
	ActSuppressTownhalls = "suppress_townhalls"
	ActHoldProduction    = "hold_production"
	ActPublish           = "publish"
)

// Spec is the declarative form of a reaction, as written in config files.
type Spec struct {
	Name      string `yaml:"name"`
	Priority  int    `yaml:"priority"`
	Category  string `yaml:"category"`
	Exclusive bool   `yaml:"exclusive"`
	Cooldown  int    `yaml:"cooldown"`
	When      string `yaml:"when"`
	Action    string `yaml:"action"`
	Build     string `yaml:"build,omitempty"`   // set_build
	On        *bool  `yaml:"on,omitempty"`      // suppress_*; default true
	Ticks     int    `yaml:"ticks,omitempty"`   // hold_production
	Message   string `yaml:"message,omitempty"` // publish
	Value     any    `yaml:"value,omitempty"`   // publish

	// Then lists further actions run after Action, in order. Only the
	// action fields of each entry are read.
	Then []Spec `yaml:"then,omitempty"`
}

// Compile turns specs into rules. Conditions are compiled later, by
// NewEngine or Swap; this only checks the action side.
func Compile(specs []Spec) ([]*Rule, error) {
	var errs []error
	rules := make([]*Rule, 0, len(specs))
	for i, s := range specs {
		act, err := s.action()
		if err != nil {
			errs = append(errs, fmt.Errorf("reaction %d (%s): %w", i, s.Name, err))
			continue
		}
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("reaction %d: missing name", i))
			continue
		}
		if s.When == "" {
			errs = append(errs, fmt.Errorf("reaction %s: missing condition", s.Name))
			continue
		}
		category := s.Category
		if category == "" {
			category = s.Name
		}
		rules = append(rules, &Rule{
			Name:         s.Name,
			Priority:     s.Priority,
			Category:     category,
			Exclusive:    s.Exclusive,
			Cooldown:     s.Cooldown,
			ConditionSrc: s.When,
			Action:       act,
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rules, nil
}

func (s Spec) action() (ActionFunc, error) {
	act, err := s.single()
	if err != nil || len(s.Then) == 0 {
		return act, err
	}
	steps := []ActionFunc{act}
	for i, next := range s.Then {
		a, err := next.single()
		if err != nil {
			return nil, fmt.Errorf("then %d: %w", i, err)
		}
		steps = append(steps, a)
	}
	return Sequence(steps...), nil
}

func (s Spec) single() (ActionFunc, error) {
	on := s.On == nil || *s.On
	switch s.Action {
	case ActSetBuild:
		if s.Build == "" {
			return nil, fmt.Errorf("%s needs a build", s.Action)
		}
		return SwitchBuild(build.BuildID(s.Build)), nil
	case ActSuppressWorkers:
		return SuppressWorkers(on), nil
	case ActSuppressTownhalls:
		return SuppressTownhalls(on), nil
	case ActHoldProduction:
		if s.Ticks <= 0 {
			return nil, fmt.Errorf("%s needs positive ticks", s.Action)
		}
		return HoldProduction(s.Ticks), nil
	case ActPublish:
		if s.Message == "" {
			return nil, fmt.Errorf("%s needs a message", s.Action)
		}
		return Publish(s.Message, s.Value), nil
	case "":
		return nil, errors.New("missing action")
	}
	return nil, fmt.Errorf("unknown action %q", s.Action)
}

// SwitchBuild installs id into the slot of its own stage.
func SwitchBuild(id build.BuildID) ActionFunc {
	return func(_ RuleEnv, ctl Controller) error {
		return ctl.Install(id)
	}
}

func SuppressWorkers(on bool) ActionFunc {
	return func(env RuleEnv, ctl Controller) error {
		env.Memory[memWorkersSuppressed] = on
		ctl.Publish(bus.KindSuppressWorkers, on)
		return nil
	}
}

func SuppressTownhalls(on bool) ActionFunc {
	return func(env RuleEnv, ctl Controller) error {
		env.Memory[memTownhallsSuppressed] = on
		ctl.Publish(bus.KindSuppressTownhalls, on)
		return nil
	}
}

// HoldProduction pauses worker and townhall production for ticks.
func HoldProduction(ticks int) ActionFunc {
	return func(_ RuleEnv, ctl Controller) error {
		ctl.Publish(bus.KindHoldProduction, ticks)
		return nil
	}
}

func Publish(kind string, value any) ActionFunc {
	return func(_ RuleEnv, ctl Controller) error {
		ctl.Publish(kind, value)
		return nil
	}
}

// Sequence runs actions in order and stops at the first error.
func Sequence(actions ...ActionFunc) ActionFunc {
	return func(env RuleEnv, ctl Controller) error {
		for _, a := range actions {
			if err := a(env, ctl); err != nil {
				return err
			}
		}
		return nil
	}
}

// Worker saturation bounds for the default suppression reactions.
const (
	SaturatedWorkers   = 75
	UnsaturatedWorkers = 66
)

// TownhallLostHold is how long production pauses after a townhall dies.
const TownhallLostHold = 224

// DefaultReactions is the built-in rule set. Rules that name a build only
// fire when the loaded catalog has it.
func DefaultReactions() []*Rule {
	var rules []*Rule

	rules = append(rules, &Rule{
		Name:         "early-pressure-defense",
		Priority:     100,
		Category:     "plan",
		Exclusive:    true,
		ConditionSrc: `Received("early_pressure") && Known("spine_defense") && Stage() in ["opening", "early_game"] && Build("early_game") != "spine_defense"`,
		Action:       SwitchBuild("spine_defense"),
	})

	rules = append(rules, &Rule{
		Name:         "townhall-lost-hold",
		Priority:     90,
		Category:     "economy",
		Exclusive:    true,
		ConditionSrc: `Received("townhall_lost")`,
		Action:       HoldProduction(TownhallLostHold),
	})

	rules = append(rules, &Rule{
		Name:         "saturated-suppress-workers",
		Priority:     50,
		Category:     "workers",
		Exclusive:    true,
		ConditionSrc: fmt.Sprintf(`!WorkersSuppressed() && ReadyCount("Drone") >= %d`, SaturatedWorkers),
		Action:       SuppressWorkers(true),
	})

	rules = append(rules, &Rule{
		Name:         "resume-workers",
		Priority:     49,
		Category:     "workers",
		Exclusive:    true,
		ConditionSrc: fmt.Sprintf(`WorkersSuppressed() && ReadyCount("Drone") < %d`, UnsaturatedWorkers),
		Action:       SuppressWorkers(false),
	})

	rules = append(rules, &Rule{
		Name:         "max-supply-suppress-townhalls",
		Priority:     40,
		Category:     "townhalls",
		Exclusive:    true,
		Cooldown:     100,
		ConditionSrc: `!TownhallsSuppressed() && SupplyUsed() >= 190`,
		Action:       SuppressTownhalls(true),
	})

	return rules
}
