// Package resolver turns the active build stack and a world snapshot into the
// next batch of production targets.
package resolver

import (
	"log/slog"

	"github.com/nstehr/vimy/vimy-zerg/build"
	"github.com/nstehr/vimy/vimy-zerg/bus"
	"github.com/nstehr/vimy/vimy-zerg/counts"
	"github.com/nstehr/vimy/vimy-zerg/gamedata"
	"github.com/nstehr/vimy/vimy-zerg/model"
)

// Reasons a deficit was skipped for the pass.
const (
	DeferTech       = "tech"
	DeferSuppressed = "suppressed"
	DeferPrecursor  = "precursor"
	DeferGate       = "gate"
)

// Deferral records a deficit that was skipped rather than produced.
type Deferral struct {
	Target build.Target
	Reason string
}

// Result is the outcome of one resolution pass. State is the resolver state
// to carry into the next pass; the input state is never modified.
type Result struct {
	Targets        []build.Target
	Effects        []Effect
	Deferred       []Deferral
	SupplyOverride bool
	State          *State
}

type Resolver struct {
	catalog    *build.Catalog
	supply     SupplyRule
	normalizer counts.Normalizer
}

type Option func(*Resolver)

func WithSupplyRule(r SupplyRule) Option {
	return func(res *Resolver) { res.supply = r }
}

func WithMineralRadius(radius float64) Option {
	return func(res *Resolver) { res.normalizer.MineralRadius = radius }
}

func New(catalog *build.Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:    catalog,
		supply:     DefaultSupplyRule(),
		normalizer: counts.Normalizer{MineralRadius: counts.DefaultMineralRadius},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Resolver) Catalog() *build.Catalog { return r.catalog }

// Resolve runs one pass over stack against gs and returns at most n targets.
// It is a pure function of its arguments.
func (r *Resolver) Resolve(gs model.GameState, stack *Stack, st *State, n int) Result {
	res := Result{State: st.Clone()}
	if n <= 0 {
		return res
	}

	if r.supply.Fires(gs) {
		res.Targets = []build.Target{gamedata.SupplyProvider}
		res.SupplyOverride = true
		slog.Debug("supply override", "tick", gs.Tick, "buffer", r.supply.Buffer(gs))
		return res
	}

	p := &pass{
		catalog:  r.catalog,
		gs:       gs,
		existing: r.normalizer.Normalize(gs),
		required: make(map[build.Target]int),
		res:      &res,
	}
	p.scan(stack, n)

	slog.Debug("resolution pass",
		"tick", gs.Tick,
		"targets", res.Targets,
		"deferred", len(res.Deferred),
		"effects", len(res.Effects),
	)
	return res
}

// pass holds the accumulators of a single Resolve call.
type pass struct {
	catalog     *build.Catalog
	gs          model.GameState
	existing    counts.Existing
	required    map[build.Target]int
	res         *Result
}

func (p *pass) scan(stack *Stack, n int) {
	var prev build.BuildID
	for _, stage := range build.Stages() {
		id, ok := stack.Slot(stage)
		if !ok {
			p.exhausted(prev)
			return
		}
		for _, node := range p.catalog.OrderOf(id) {
			target, ok := p.eval(node)
			if !ok {
				continue
			}
			if p.existing.Get(string(target)) >= p.required[target] {
				continue
			}
			if reason := p.deferral(target); reason != "" {
				p.res.Deferred = append(p.res.Deferred, Deferral{Target: target, Reason: reason})
				continue
			}

			p.transition(stage)

			if exclusive(target) {
				if len(p.res.Targets) == 0 {
					p.res.Targets = []build.Target{target}
				}
				return
			}
			p.res.Targets = append(p.res.Targets, target)
			p.existing[string(target)]++
			if len(p.res.Targets) >= n {
				return
			}
		}
		prev = id
	}
	p.exhausted(prev)
}

// exhausted runs when the scan reaches an empty slot or the end of the
// stack. A forced build is always promoted; any other build only once the
// whole stack had nothing left to do.
func (p *pass) exhausted(prev build.BuildID) {
	if prev == "" {
		return
	}
	forced := p.catalog.IsForcedDefault(prev)
	idle := len(p.res.Targets) == 0 && len(p.res.Deferred) == 0
	if !forced && !idle {
		return
	}
	if _, ok := p.catalog.DefaultNextOf(prev, p.gs.EnemyRace); !ok {
		return
	}
	p.res.Effects = append(p.res.Effects, Effect{
		Kind:  EffectPromoteDefault,
		Stage: p.catalog.StageOf(prev),
		Build: prev,
	})
}

// transition emits the stage-change effects when a resolved target comes from
// a stage past the recorded one. The recorded stage only moves forward here;
// the planner rewinds it when the stack itself is rewound.
func (p *pass) transition(stage build.Stage) {
	st := p.res.State
	if st.HasLastStage && stage <= st.LastStage {
		return
	}
	p.res.Effects = append(p.res.Effects,
		Effect{Kind: EffectStageTransition, Prev: st.LastStage, Stage: stage},
		publish(bus.KindReleaseHeldResources, stage.String()),
	)
	st.LastStage = stage
	st.HasLastStage = true
}

// eval applies a node to the required counts and returns the target to test
// for a deficit, if any.
func (p *pass) eval(n build.Node) (build.Target, bool) {
	switch v := n.(type) {
	case build.Target:
		p.required[v]++
		return v, true

	case *build.AtLeast:
		t, ok := p.inner(v.Target)
		if !ok {
			return "", false
		}
		if p.required[t] < v.N {
			p.required[t] = v.N
		}
		return t, true

	case *build.IfHasThenBuild:
		t, ok := p.inner(v.Target)
		if !ok {
			return "", false
		}
		if p.existing.Get(string(v.Condition)) >= 1 {
			p.required[t] += v.N
		}
		return t, true

	case *build.IfHasThenDontBuild:
		t, ok := p.inner(v.Target)
		if !ok {
			return "", false
		}
		if p.existing.Get(string(v.Condition)) == 0 {
			p.required[t] += v.N
		}
		return t, true

	case *build.OneForEach:
		// Higher tiers count as the type they morphed from: a Lair is still
		// a base that wants its queen.
		c := p.gs.ReadyEquivalentCount(string(v.ForEach))
		p.required[v.Target] += c
		return v.Target, c > 0

	case *build.CanAfford:
		if !p.gs.CanAfford(string(v.Target)) {
			return "", false
		}
		p.required[v.Target]++
		return v.Target, true

	case *build.PullWorkersOffVespeneUntil:
		p.pullWorkers(v)
		return "", false

	case *build.PublishMessage:
		p.publishOnce(v)
		return "", false
	}
	return "", false
}

// inner resolves the target of a wrapper. A plain target is taken as is; a
// special node is evaluated once, with its own effect on the counts.
func (p *pass) inner(n build.Node) (build.Target, bool) {
	if t, ok := n.(build.Target); ok {
		return t, true
	}
	return p.eval(n)
}

func (p *pass) pullWorkers(v *build.PullWorkersOffVespeneUntil) {
	st := p.res.State
	have := p.existing.Get(string(v.Target))
	switch {
	case have == 0 && !st.Armed[v.ID()]:
		st.Armed[v.ID()] = true
		p.res.Effects = append(p.res.Effects, publish(bus.KindPullWorkersOffGas, v.N))
	case have > 0 && st.Armed[v.ID()]:
		delete(st.Armed, v.ID())
		p.res.Effects = append(p.res.Effects, publish(bus.KindResumeGas, string(v.Target)))
	}
}

func (p *pass) publishOnce(v *build.PublishMessage) {
	st := p.res.State
	if st.Fired[v.ID()] || len(p.res.Targets) > 0 {
		return
	}
	st.Fired[v.ID()] = true
	p.res.Effects = append(p.res.Effects, publish(v.Message, v.Value))
}

// deferral returns why target cannot be produced this pass, or "".
func (p *pass) deferral(target build.Target) string {
	t := string(target)
	if !p.gs.TechAvailable(t) {
		return DeferTech
	}
	if p.suppressed(t) {
		return DeferSuppressed
	}
	if pre, ok := gamedata.MorphPrecursor(t); ok && p.gs.IdleCount(pre) == 0 {
		return DeferPrecursor
	}
	if g, ok := p.catalog.GateFor(target); ok {
		allowed, err := g.Allows(p.gs)
		if err != nil {
			slog.Warn("gate evaluation failed", "target", t, "error", err)
		}
		if !allowed {
			return DeferGate
		}
	}
	return ""
}

// suppressed applies the suppression flags, which are lifted while no
// first-tier production structure exists so the opening cannot stall.
func (p *pass) suppressed(t string) bool {
	if p.existing.Get(gamedata.FirstTierProduction) == 0 {
		return false
	}
	st := p.res.State
	tick := p.gs.Tick
	if t == gamedata.Worker && st.workersSuppressed(tick) {
		return true
	}
	return gamedata.IsTownhall(t) && st.townhallsSuppressed(tick)
}

func exclusive(t build.Target) bool {
	s := string(t)
	return gamedata.IsTownhall(s) || gamedata.IsStructureTrained(s) || gamedata.IsUpgrade(s)
}
