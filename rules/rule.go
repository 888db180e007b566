package rules

import (
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/vimy/vimy-zerg/build"
)

// Controller is what a reaction may change: the build stack, and the bus the
// planner listens on for production-control messages.
type Controller interface {
	Install(id build.BuildID) error
	Publish(kind string, value any) int
}

// ActionFunc changes the plan when a rule's condition is true.
type ActionFunc func(env RuleEnv, ctl Controller) error

// Rule is a condition → action pair evaluated once per tick.
// The engine evaluates rules by priority and uses Category + Exclusive
// so two reactions never fight over the same concern in one tick.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first
	Category     string      // grouping for exclusive semantics
	Exclusive    bool        // if true, blocks lower-priority rules in same category
	Cooldown     int         // minimum ticks between firings, 0 = none
	ConditionSrc string      // expr source
	program      *vm.Program // compiled bytecode
	Action       ActionFunc
}
