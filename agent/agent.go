package agent

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nstehr/vimy/vimy-zerg/build"
	"github.com/nstehr/vimy/vimy-zerg/bus"
	"github.com/nstehr/vimy/vimy-zerg/config"
	"github.com/nstehr/vimy/vimy-zerg/ipc"
	"github.com/nstehr/vimy/vimy-zerg/metrics"
	"github.com/nstehr/vimy/vimy-zerg/model"
	"github.com/nstehr/vimy/vimy-zerg/resolver"
	"github.com/nstehr/vimy/vimy-zerg/rules"
)

// Sender delivers outbound envelopes to the game adapter.
type Sender interface {
	Send(msgType string, data any) error
}

// forwarded are the bus kinds relayed to subsystems that live in the adapter.
// Kinds published by catalog builds are added per catalog.
var forwarded = []string{
	bus.KindStageChanged,
	bus.KindReleaseHeldResources,
	bus.KindPlanSwitched,
	bus.KindPullWorkersOffGas,
	bus.KindResumeGas,
}

// Deps is what every agent of a process shares.
type Deps struct {
	Config    *config.Config
	Catalog   *build.Catalog
	Reactions func() ([]*rules.Rule, error) // fresh rules per agent
	Collector *metrics.Collector             // optional
}

// Agent owns the build planning for a single player session.
type Agent struct {
	Conn    Sender
	Player  string
	Race    string
	Engine  *rules.Engine
	Planner *resolver.Planner

	cfg       *config.Config
	collector *metrics.Collector
	events    *bus.Client
	outbox    *bus.Client
	control   *controller
	prev      *stateSnapshot
	pressured bool
}

// controller lets reaction rules act on the planner and the bus.
type controller struct {
	planner *resolver.Planner
	client  *bus.Client
}

func (c *controller) Install(id build.BuildID) error { return c.planner.Install(id) }

func (c *controller) Publish(kind string, value any) int { return c.client.Publish(kind, value) }

func New(conn Sender, deps Deps) (*Agent, error) {
	if deps.Config == nil || deps.Catalog == nil || deps.Reactions == nil {
		return nil, errors.New("agent: config, catalog and reactions are required")
	}
	cfg := deps.Config

	b := bus.New()
	var plannerOpts []resolver.PlannerOption
	plannerOpts = append(plannerOpts, resolver.WithBatch(cfg.Agent.Batch))
	if deps.Collector != nil {
		b.SetObserver(deps.Collector)
		plannerOpts = append(plannerOpts, resolver.WithObserver(deps.Collector))
	}

	res := resolver.New(deps.Catalog,
		resolver.WithSupplyRule(cfg.SupplyRule()),
		resolver.WithMineralRadius(cfg.Supply.MineralRadius),
	)
	planner := resolver.NewPlanner(res, b.Client("planner"), plannerOpts...)

	rs, err := deps.Reactions()
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	reactions := b.Client("reactions")
	engine, err := rules.NewEngine(rs,
		rules.WithCatalog(deps.Catalog),
		rules.WithMailbox(reactions),
	)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	outbox := b.Client("adapter")
	outbox.Subscribe(forwarded...)
	outbox.Subscribe(deps.Catalog.MessageKinds()...)

	return &Agent{
		Conn:      conn,
		Engine:    engine,
		Planner:   planner,
		cfg:       cfg,
		collector: deps.Collector,
		events:    b.Client("events"),
		outbox:    outbox,
		control:   &controller{planner: planner, client: reactions},
	}, nil
}

// HandleHello installs the opening build and acknowledges the handshake.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := env.Decode(&hello); err != nil {
		return nil, err
	}

	a.Player = hello.Player
	a.Race = hello.Race
	a.Planner.SetEnemyRace(hello.EnemyRace)
	a.prev = &stateSnapshot{enemyRace: hello.EnemyRace}

	opening := build.BuildID(hello.Opening)
	if opening == "" {
		opening = a.cfg.Opening(hello.EnemyRace)
	}
	slog.Info("player identified", "player", a.Player, "race", a.Race, "enemy_race", hello.EnemyRace, "opening", opening)

	ack := ipc.AckMessage{Status: "ok", Opening: string(opening)}
	if err := a.Planner.Start(opening); err != nil {
		slog.Error("opening rejected", "player", a.Player, "opening", opening, "error", err)
		ack = ipc.AckMessage{Status: "error", Error: err.Error()}
	}
	resp, err := ipc.NewEnvelope(ipc.TypeAck, ack)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// HandleGameState runs one tick: detected events go on the bus, reactions
// adjust the plan, the planner resolves, and the resulting targets are the
// reply. Bus traffic for the adapter is sent ahead of it.
func (a *Agent) HandleGameState(env ipc.Envelope) (*ipc.Envelope, error) {
	var gs model.GameState
	if err := env.Decode(&gs); err != nil {
		return nil, err
	}
	if _, ok := a.Planner.Stack().Slot(build.Opening); !ok {
		return nil, errors.New("game state before a successful hello")
	}
	if gs.EnemyRace == "" {
		gs.EnemyRace = a.Planner.EnemyRace()
	}

	for _, e := range detectEvents(gs, a.prev) {
		a.publish(e)
	}
	snap := takeSnapshot(gs)
	a.prev = &snap

	fired := a.Engine.Evaluate(gs, a.Planner.Stack(), a.control)
	if a.collector != nil {
		a.collector.RecordRulesFired(fired)
	}

	res := a.Planner.Tick(gs)
	if err := a.flush(); err != nil {
		return nil, err
	}

	targets := make([]string, len(res.Targets))
	for i, t := range res.Targets {
		targets[i] = string(t)
	}
	slog.Debug("targets resolved", "player", a.Player, "tick", gs.Tick, "targets", targets, "rules", fired)

	resp, err := ipc.NewEnvelope(ipc.TypeProduce, ipc.ProduceCommand{
		Tick:           gs.Tick,
		Targets:        targets,
		SupplyOverride: res.SupplyOverride,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// HandleIntel records scouting reports. Early pressure is reported once per game.
func (a *Agent) HandleIntel(env ipc.Envelope) (*ipc.Envelope, error) {
	var intel ipc.IntelMessage
	if err := env.Decode(&intel); err != nil {
		return nil, err
	}
	if intel.EnemyRace != "" {
		a.Planner.SetEnemyRace(intel.EnemyRace)
	}
	if a.pressured {
		return nil, nil
	}
	th := PressureThresholds{Units: a.cfg.Events.PressureUnits, Until: a.cfg.Events.PressureUntil}
	if e, ok := detectPressure(intel, th); ok {
		a.pressured = true
		a.publish(e)
	}
	return nil, nil
}

// HandleSetBuild lets the adapter switch a stage's build directly.
func (a *Agent) HandleSetBuild(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.SetBuildMessage
	if err := env.Decode(&msg); err != nil {
		return nil, err
	}
	ack := ipc.AckMessage{Status: "ok"}
	stage, err := build.ParseStage(msg.Stage)
	if err == nil {
		err = a.Planner.SetBuild(stage, build.BuildID(msg.Build))
	}
	if err != nil {
		ack = ipc.AckMessage{Status: "error", Error: err.Error()}
	}
	if err := a.flush(); err != nil {
		return nil, err
	}
	resp, err := ipc.NewEnvelope(ipc.TypeAck, ack)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Handlers maps message types to this agent's handlers.
func (a *Agent) Handlers() map[string]ipc.Handler {
	return map[string]ipc.Handler{
		ipc.TypeHello:     a.HandleHello,
		ipc.TypeGameState: a.HandleGameState,
		ipc.TypeIntel:     a.HandleIntel,
		ipc.TypeSetBuild:  a.HandleSetBuild,
	}
}

func (a *Agent) publish(e Event) {
	slog.Info("event detected", "player", a.Player, "kind", e.Kind, "tick", e.Tick, "detail", e.Detail)
	a.events.Publish(e.Kind, e.Value)
}

// flush sends every pending outbox message to the adapter.
func (a *Agent) flush() error {
	for _, m := range a.outbox.Pending() {
		if err := a.Conn.Send(ipc.TypeMessage, ipc.BusMessage{Kind: m.Kind, Value: m.Value, From: m.From}); err != nil {
			return fmt.Errorf("forward %s: %w", m.Kind, err)
		}
		a.outbox.Ack(m.Kind)
	}
	return nil
}
