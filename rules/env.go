package rules

import (
	"fmt"

	"github.com/nstehr/vimy/vimy-zerg/build"
	"github.com/nstehr/vimy/vimy-zerg/bus"
	"github.com/nstehr/vimy/vimy-zerg/model"
)

// Memory keys written by actions and read back by conditions.
const (
	memWorkersSuppressed   = "workersSuppressed"
	memTownhallsSuppressed = "townhallsSuppressed"
	memLastFired           = "lastFired"
)

// RuleEnv wraps one tick's inputs and exposes helper methods callable from
// expr expressions.
type RuleEnv struct {
	State    model.GameState
	Messages map[string]bus.Message
	Stack    [build.NumStages]build.BuildID
	Builds   map[build.BuildID]build.Stage
	Memory   map[string]any
}

func (e RuleEnv) Tick() int               { return e.State.Tick }
func (e RuleEnv) Minerals() int           { return e.State.Player.Minerals }
func (e RuleEnv) Vespene() int            { return e.State.Player.Vespene }
func (e RuleEnv) SupplyLeft() int         { return e.State.Player.SupplyLeft() }
func (e RuleEnv) SupplyUsed() int         { return e.State.Player.SupplyUsed }
func (e RuleEnv) EnemyRace() string       { return e.State.EnemyRace }
func (e RuleEnv) ReadyCount(t string) int { return e.State.ReadyCount(t) }
func (e RuleEnv) IdleCount(t string) int  { return e.State.IdleCount(t) }

// UnitCount counts units of type t, finished or not.
func (e RuleEnv) UnitCount(t string) int {
	n := 0
	for _, u := range e.State.Units {
		if u.TypeName() == t {
			n++
		}
	}
	return n
}

func (e RuleEnv) HasUpgrade(u string) bool { return e.State.Upgrades[u] >= 1 }

// Received reports whether a message of kind arrived since the last tick.
func (e RuleEnv) Received(kind string) bool {
	_, ok := e.Messages[kind]
	return ok
}

// MessageValue returns the value of the pending message of kind, or nil.
func (e RuleEnv) MessageValue(kind string) any {
	return e.Messages[kind].Value
}

// MessageText is MessageValue rendered as a string; "" when absent.
func (e RuleEnv) MessageText(kind string) string {
	m, ok := e.Messages[kind]
	if !ok || m.Value == nil {
		return ""
	}
	if s, ok := m.Value.(string); ok {
		return s
	}
	return fmt.Sprint(m.Value)
}

// Build returns the build in the named stage slot, "" when empty.
func (e RuleEnv) Build(stage string) string {
	s, err := build.ParseStage(stage)
	if err != nil {
		return ""
	}
	return string(e.Stack[s])
}

// Stage returns the name of the highest filled stage, "" before the opening
// is installed.
func (e RuleEnv) Stage() string {
	for i := build.NumStages - 1; i >= 0; i-- {
		if e.Stack[i] != "" {
			return build.Stage(i).String()
		}
	}
	return ""
}

// Known reports whether the catalog holds a build named id.
func (e RuleEnv) Known(id string) bool {
	_, ok := e.Builds[build.BuildID(id)]
	return ok
}

func (e RuleEnv) WorkersSuppressed() bool {
	on, _ := e.Memory[memWorkersSuppressed].(bool)
	return on
}

func (e RuleEnv) TownhallsSuppressed() bool {
	on, _ := e.Memory[memTownhallsSuppressed].(bool)
	return on
}

// lastFired returns the tick rule last fired at.
func (e RuleEnv) lastFired(rule string) (int, bool) {
	m, _ := e.Memory[memLastFired].(map[string]int)
	tick, ok := m[rule]
	return tick, ok
}

func (e RuleEnv) markFired(rule string) {
	m, ok := e.Memory[memLastFired].(map[string]int)
	if !ok {
		m = make(map[string]int)
		e.Memory[memLastFired] = m
	}
	m[rule] = e.State.Tick
}
