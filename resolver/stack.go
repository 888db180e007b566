package resolver

import (
	"fmt"
	"log/slog"

	"github.com/nstehr/vimy/vimy-zerg/build"
)

// Stack holds one optional build per stage. Slots fill in stage order: a
// stage can only be set once every earlier stage holds a build.
type Stack struct {
	catalog *build.Catalog
	slots   [build.NumStages]build.BuildID
}

func NewStack(catalog *build.Catalog) *Stack {
	return &Stack{catalog: catalog}
}

// Slot returns the build in stage, if any.
func (s *Stack) Slot(stage build.Stage) (build.BuildID, bool) {
	if !stage.Valid() {
		return "", false
	}
	id := s.slots[stage]
	return id, id != ""
}

// Slots returns a copy of all four slots; empty slots are "".
func (s *Stack) Slots() [build.NumStages]build.BuildID {
	return s.slots
}

// Active returns the highest filled stage.
func (s *Stack) Active() (build.Stage, bool) {
	for i := build.NumStages - 1; i >= 0; i-- {
		if s.slots[i] != "" {
			return build.Stage(i), true
		}
	}
	return build.Opening, false
}

// SetBuild installs id into stage. Replacing a different, non-empty build
// clears every later slot, since those plans assumed the old one; at MidGame
// or later it also yields a plan-switched effect.
func (s *Stack) SetBuild(stage build.Stage, id build.BuildID) ([]Effect, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("set build %s: invalid stage %d", id, int(stage))
	}
	if !s.catalog.Has(id) {
		return nil, fmt.Errorf("set build %s: not in catalog", id)
	}
	if got := s.catalog.StageOf(id); got != stage {
		return nil, fmt.Errorf("set build %s: belongs to %s, not %s", id, got, stage)
	}
	for earlier := build.Opening; earlier < stage; earlier++ {
		if s.slots[earlier] == "" {
			return nil, fmt.Errorf("set build %s: %s slot is empty", id, earlier)
		}
	}

	prev := s.slots[stage]
	if prev == id {
		return nil, nil
	}
	s.slots[stage] = id

	var effects []Effect
	if prev != "" {
		for later := stage + 1; later < build.NumStages; later++ {
			s.slots[later] = ""
		}
		if stage >= build.MidGame {
			effects = append(effects, Effect{Kind: EffectPlanSwitched, Stage: stage, Build: id, From: prev})
		}
	}
	slog.Info("build set", "stage", stage, "build", id, "replaced", prev)
	return effects, nil
}

// Install sets id into the slot of its own stage.
func (s *Stack) Install(id build.BuildID) ([]Effect, error) {
	if !s.catalog.Has(id) {
		return nil, fmt.Errorf("install %s: not in catalog", id)
	}
	return s.SetBuild(s.catalog.StageOf(id), id)
}

// PromoteDefault replaces the build in stage with its default-next build for
// enemyRace, installed into the slot of that build's stage. ok is false when
// the slot is empty or the plan ends there.
func (s *Stack) PromoteDefault(stage build.Stage, enemyRace string) (effects []Effect, ok bool, err error) {
	cur, filled := s.Slot(stage)
	if !filled {
		return nil, false, nil
	}
	next, found := s.catalog.DefaultNextOf(cur, enemyRace)
	if !found {
		return nil, false, nil
	}
	effects, err = s.Install(next)
	if err != nil {
		return nil, false, fmt.Errorf("promote default of %s: %w", cur, err)
	}
	slog.Info("default build promoted", "from", cur, "to", next, "enemy_race", enemyRace)
	return effects, true, nil
}
