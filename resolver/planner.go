package resolver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nstehr/vimy/vimy-zerg/build"
	"github.com/nstehr/vimy/vimy-zerg/bus"
	"github.com/nstehr/vimy/vimy-zerg/gamedata"
	"github.com/nstehr/vimy/vimy-zerg/model"
)

// Observer receives per-pass telemetry from a Planner.
type Observer interface {
	ObservePass(targets int, deferred []string, supplyOverride bool, elapsed time.Duration)
	ObservePlanSwitch(stage string)
	ObserveStageChange(stage string)
}

// Planner owns one match's stack and resolver state. Tick must be called
// from a single goroutine.
type Planner struct {
	resolver  *Resolver
	stack     *Stack
	state     *State
	client    *bus.Client
	batch     int
	enemyRace string
	observer  Observer
}

// DefaultBatch is the number of targets requested per pass.
const DefaultBatch = 6

type PlannerOption func(*Planner)

func WithBatch(n int) PlannerOption {
	return func(p *Planner) { p.batch = n }
}

func WithObserver(o Observer) PlannerOption {
	return func(p *Planner) { p.observer = o }
}

// NewPlanner creates a planner that publishes through client and listens on
// it for production-control messages.
func NewPlanner(r *Resolver, client *bus.Client, opts ...PlannerOption) *Planner {
	p := &Planner{
		resolver: r,
		stack:    NewStack(r.Catalog()),
		state:    NewState(),
		client:   client,
		batch:    DefaultBatch,
	}
	for _, o := range opts {
		o(p)
	}
	client.Subscribe(bus.KindSuppressWorkers, bus.KindSuppressTownhalls, bus.KindHoldProduction)
	return p
}

func (p *Planner) Stack() *Stack { return p.stack }

// State returns a copy of the carried resolver state.
func (p *Planner) State() *State { return p.state.Clone() }

func (p *Planner) EnemyRace() string { return p.enemyRace }

// SetEnemyRace records the race used for default-next lookups. Catalog
// override tables use the canonical spelling, so adapter input is folded
// onto it.
func (p *Planner) SetEnemyRace(race string) {
	race, _ = gamedata.CanonicalRace(race)
	if race != "" && race != p.enemyRace {
		slog.Info("enemy race set", "race", race)
		p.enemyRace = race
	}
}

// Start installs the opening build.
func (p *Planner) Start(opening build.BuildID) error {
	cat := p.resolver.Catalog()
	if !cat.Has(opening) || cat.StageOf(opening) != build.Opening {
		return fmt.Errorf("start: %s is not an opening build", opening)
	}
	return p.SetBuild(build.Opening, opening)
}

// SetBuild switches the build in stage and publishes the resulting effects.
func (p *Planner) SetBuild(stage build.Stage, id build.BuildID) error {
	effects, err := p.stack.SetBuild(stage, id)
	if err != nil {
		return err
	}
	p.rewind()
	p.apply(effects)
	return nil
}

// Install switches to id in the slot of its own stage.
func (p *Planner) Install(id build.BuildID) error {
	effects, err := p.stack.Install(id)
	if err != nil {
		return err
	}
	p.rewind()
	p.apply(effects)
	return nil
}

// rewind pulls the recorded stage back to the highest filled slot after a
// switch emptied the slots past it.
func (p *Planner) rewind() {
	if !p.state.HasLastStage {
		return
	}
	active, ok := p.stack.Active()
	if !ok {
		p.state.HasLastStage = false
		return
	}
	if p.state.LastStage > active {
		slog.Debug("stage rewound", "from", p.state.LastStage, "to", active)
		p.state.LastStage = active
	}
}

func (p *Planner) SuppressWorkers(on bool)   { p.state.SuppressWorkers = on }
func (p *Planner) SuppressTownhalls(on bool) { p.state.SuppressTownhalls = on }

// HoldUntil suppresses worker and townhall production until tick.
func (p *Planner) HoldUntil(tick int) { p.state.HoldUntil(tick) }

// Tick runs one resolution pass against gs, applies its effects and returns
// the targets for the construction executor.
func (p *Planner) Tick(gs model.GameState) Result {
	start := time.Now()
	p.SetEnemyRace(gs.EnemyRace)
	if p.enemyRace != "" {
		gs.EnemyRace = p.enemyRace
	}
	p.consumeControl(gs.Tick)

	res := p.resolver.Resolve(gs, p.stack, p.state, p.batch)
	p.state = res.State
	p.apply(res.Effects)

	if p.observer != nil {
		reasons := make([]string, len(res.Deferred))
		for i, d := range res.Deferred {
			reasons[i] = d.Reason
		}
		p.observer.ObservePass(len(res.Targets), reasons, res.SupplyOverride, time.Since(start))
	}
	return res
}

// consumeControl takes production-control messages from the mailbox.
func (p *Planner) consumeControl(tick int) {
	if m, ok := p.client.Take(bus.KindSuppressWorkers); ok {
		p.state.SuppressWorkers = asBool(m.Value)
		slog.Info("worker suppression", "on", p.state.SuppressWorkers, "from", m.From)
	}
	if m, ok := p.client.Take(bus.KindSuppressTownhalls); ok {
		p.state.SuppressTownhalls = asBool(m.Value)
		slog.Info("townhall suppression", "on", p.state.SuppressTownhalls, "from", m.From)
	}
	if m, ok := p.client.Take(bus.KindHoldProduction); ok {
		ticks := asInt(m.Value)
		if ticks > 0 {
			p.state.HoldUntil(tick + ticks)
		} else {
			p.state.Hold = Expiring{}
		}
		slog.Info("production hold", "ticks", ticks, "from", m.From)
	}
}

func (p *Planner) apply(effects []Effect) {
	for _, e := range effects {
		switch e.Kind {
		case EffectPublish:
			p.client.Publish(e.Message, e.Value)

		case EffectStageTransition:
			slog.Info("stage transition", "from", e.Prev, "to", e.Stage)
			p.client.Publish(bus.KindStageChanged, map[string]any{
				"from": e.Prev.String(),
				"to":   e.Stage.String(),
			})
			if p.observer != nil {
				p.observer.ObserveStageChange(e.Stage.String())
			}

		case EffectPromoteDefault:
			more, ok, err := p.stack.PromoteDefault(e.Stage, p.enemyRace)
			if err != nil {
				slog.Warn("default promotion failed", "build", e.Build, "error", err)
				continue
			}
			if ok {
				p.apply(more)
			}

		case EffectPlanSwitched:
			slog.Info("build switched", "stage", e.Stage, "from", e.From, "to", e.Build)
			p.client.Publish(bus.KindPlanSwitched, map[string]any{
				"stage": e.Stage.String(),
				"from":  string(e.From),
				"to":    string(e.Build),
			})
			if p.observer != nil {
				p.observer.ObservePlanSwitch(e.Stage.String())
			}
		}
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return true
	case int:
		return b != 0
	case float64:
		return b != 0
	case string:
		return b == "true" || b == "on" || b == "1"
	}
	return false
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
