package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/vimy/vimy-zerg/build"
	"github.com/nstehr/vimy/vimy-zerg/bus"
	"github.com/nstehr/vimy/vimy-zerg/model"
)

// EventKinds are the bus message kinds a mailbox-attached engine listens to.
var EventKinds = []string{
	bus.KindEnemyRace,
	bus.KindTownhallLost,
	bus.KindEarlyPressure,
	bus.KindStageChanged,
	bus.KindPlanSwitched,
}

// StackView is the read side of the build stack.
type StackView interface {
	Slots() [build.NumStages]build.BuildID
}

// Engine runs compiled reaction rules against game state each tick.
// Rules fire in priority order; exclusive rules block lower-priority rules
// in the same category.
type Engine struct {
	mu      sync.RWMutex
	rules   []*Rule
	Memory  map[string]any
	memMu   sync.Mutex // guards all reads/writes to Memory
	builds  map[build.BuildID]build.Stage
	mailbox *bus.Client
}

type EngineOption func(*Engine)

// WithCatalog lets conditions test build names with Known.
func WithCatalog(cat *build.Catalog) EngineOption {
	return func(e *Engine) {
		e.builds = make(map[build.BuildID]build.Stage)
		for _, id := range cat.IDs() {
			e.builds[id] = cat.StageOf(id)
		}
	}
}

// WithMailbox subscribes client to EventKinds. Each Evaluate reads the
// pending messages and acknowledges them afterwards.
func WithMailbox(client *bus.Client) EngineOption {
	return func(e *Engine) {
		client.Subscribe(EventKinds...)
		e.mailbox = client
	}
}

// NewEngine compiles all rule conditions into expr bytecode and sorts by priority.
func NewEngine(rules []*Rule, opts ...EngineOption) (*Engine, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		rules:  compiled,
		Memory: make(map[string]any),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Evaluate runs all rules against the current game state and returns the
// names of the rules that fired.
func (e *Engine) Evaluate(gs model.GameState, stack StackView, ctl Controller) []string {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	e.memMu.Lock()
	defer e.memMu.Unlock()

	env := RuleEnv{
		State:    gs,
		Messages: make(map[string]bus.Message),
		Stack:    stack.Slots(),
		Builds:   e.builds,
		Memory:   e.Memory,
	}
	var seen []bus.Message
	if e.mailbox != nil {
		seen = e.mailbox.Pending()
		for _, m := range seen {
			env.Messages[m.Kind] = m
		}
	}

	fired := make(map[string]bool) // category → exclusive rule already fired
	var names []string
	for _, r := range rules {
		if fired[r.Category] {
			continue
		}
		if r.Cooldown > 0 {
			if last, ok := env.lastFired(r.Name); ok && gs.Tick-last < r.Cooldown {
				continue
			}
		}

		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("rule condition error", "rule", r.Name, "error", err)
			continue
		}

		match, ok := result.(bool)
		if !ok || !match {
			continue
		}

		slog.Debug("rule fired", "rule", r.Name, "priority", r.Priority, "category", r.Category)
		env.markFired(r.Name)
		names = append(names, r.Name)

		if err := r.Action(env, ctl); err != nil {
			slog.Error("rule action error", "rule", r.Name, "error", err)
		}

		if r.Exclusive {
			fired[r.Category] = true
		}
	}

	// Only the messages read above; anything an action published is left for
	// the next tick.
	for _, m := range seen {
		if cur, ok := e.mailbox.Peek(m.Kind); ok && cur.Seq == m.Seq {
			e.mailbox.Ack(m.Kind)
		}
	}
	return names
}

// Swap atomically replaces the rule set. Compiles first; if compilation fails
// the old rules remain active. Cooldowns restart with the new set.
func (e *Engine) Swap(newRules []*Rule) error {
	compiled, err := compileRules(newRules)
	if err != nil {
		return err
	}
	names := make([]string, len(compiled))
	for i, r := range compiled {
		names[i] = r.Name
	}
	e.mu.Lock()
	e.rules = compiled
	e.mu.Unlock()

	e.memMu.Lock()
	delete(e.Memory, memLastFired)
	e.memMu.Unlock()
	slog.Info("rule set swapped", "count", len(compiled), "rules", names)
	return nil
}

// Rules returns the active rule names in evaluation order.
func (e *Engine) Rules() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate rule %q", r.Name)
		}
		seen[r.Name] = true
		if r.Action == nil {
			return nil, fmt.Errorf("rule %q has no action", r.Name)
		}
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}
