package rules

import (
	"errors"
	"testing"

	"github.com/nstehr/vimy/vimy-zerg/build"
	"github.com/nstehr/vimy/vimy-zerg/bus"
	"github.com/nstehr/vimy/vimy-zerg/model"
)

func TestCompileSpecs(t *testing.T) {
	off := false
	specs := []Spec{
		{Name: "zerg-mirror", Priority: 80, Exclusive: true, When: `EnemyRace() == "Zerg"`, Action: ActSetBuild, Build: "ling_bane"},
		{Name: "float", Priority: 10, Category: "workers", When: `Minerals() > 1000`, Action: ActSuppressWorkers, On: &off},
		{Name: "pause", When: `Received("townhall_lost")`, Action: ActHoldProduction, Ticks: 50},
		{Name: "tell", When: `true`, Action: ActPublish, Message: "attack", Value: "now"},
	}
	rules, err := Compile(specs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(rules) != 4 {
		t.Fatalf("expected 4 rules, got %d", len(rules))
	}
	if rules[0].Category != "zerg-mirror" {
		t.Errorf("category should default to the name, got %q", rules[0].Category)
	}

	engine, err := NewEngine(rules)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	ctl := &fakeController{}
	gs := model.GameState{EnemyRace: "Zerg", Player: model.Player{Minerals: 1500}}
	engine.Evaluate(gs, fakeStack{}, ctl)

	if len(ctl.installed) != 1 || ctl.installed[0] != build.BuildID("ling_bane") {
		t.Errorf("installed = %v", ctl.installed)
	}
	want := []published{{bus.KindSuppressWorkers, false}, {"attack", "now"}}
	if len(ctl.published) != len(want) {
		t.Fatalf("published = %+v, want %+v", ctl.published, want)
	}
	for i := range want {
		if ctl.published[i] != want[i] {
			t.Errorf("published[%d] = %+v, want %+v", i, ctl.published[i], want[i])
		}
	}
}

func TestCompileSpecFollowUps(t *testing.T) {
	rules, err := Compile([]Spec{{
		Name:   "defend",
		When:   `true`,
		Action: ActSetBuild,
		Build:  "spine_defense",
		Then:   []Spec{{Action: ActHoldProduction, Ticks: 40}, {Action: ActPublish, Message: "defend", Value: "base"}},
	}})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	engine, err := NewEngine(rules)
	if err != nil {
		t.Fatal(err)
	}
	ctl := &fakeController{}
	engine.Evaluate(model.GameState{}, fakeStack{}, ctl)

	if len(ctl.installed) != 1 || ctl.installed[0] != "spine_defense" {
		t.Errorf("installed = %v", ctl.installed)
	}
	want := []published{{bus.KindHoldProduction, 40}, {"defend", "base"}}
	if len(ctl.published) != len(want) {
		t.Fatalf("published = %+v, want %+v", ctl.published, want)
	}
	for i := range want {
		if ctl.published[i] != want[i] {
			t.Errorf("published[%d] = %+v, want %+v", i, ctl.published[i], want[i])
		}
	}
}

func TestSequenceStopsAtFirstError(t *testing.T) {
	ctl := &fakeController{failWith: errors.New("no such build")}
	act := Sequence(SwitchBuild("spine_defense"), Publish("after", 1))
	if err := act(RuleEnv{Memory: map[string]any{}}, ctl); err == nil {
		t.Fatal("expected install error")
	}
	if len(ctl.published) != 0 {
		t.Errorf("later actions ran: %+v", ctl.published)
	}
}

func TestCompileSpecErrors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"no name", Spec{When: `true`, Action: ActPublish, Message: "x"}},
		{"no condition", Spec{Name: "a", Action: ActPublish, Message: "x"}},
		{"no action", Spec{Name: "a", When: `true`}},
		{"unknown action", Spec{Name: "a", When: `true`, Action: "explode"}},
		{"set_build without build", Spec{Name: "a", When: `true`, Action: ActSetBuild}},
		{"hold without ticks", Spec{Name: "a", When: `true`, Action: ActHoldProduction}},
		{"publish without message", Spec{Name: "a", When: `true`, Action: ActPublish}},
		{"bad follow-up", Spec{Name: "a", When: `true`, Action: ActPublish, Message: "x", Then: []Spec{{Action: ActHoldProduction}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Compile([]Spec{tc.spec}); err == nil {
				t.Errorf("expected error for %+v", tc.spec)
			}
		})
	}
}

func TestRuleEnvHelpers(t *testing.T) {
	env := RuleEnv{
		State: model.GameState{
			Units: []model.Unit{
				{Type: "Drone", BuildProgress: 1},
				{Type: "Drone", BuildProgress: 0.5},
				{Type: "Hatchery", BuildProgress: 1, Idle: true},
			},
		},
		Messages: map[string]bus.Message{
			bus.KindEnemyRace: {Kind: bus.KindEnemyRace, Value: "Terran"},
		},
		Stack:  [build.NumStages]build.BuildID{"open", "early"},
		Builds: map[build.BuildID]build.Stage{"open": build.Opening},
		Memory: map[string]any{},
	}

	if got := env.UnitCount("Drone"); got != 2 {
		t.Errorf("UnitCount(Drone) = %d, want 2", got)
	}
	if got := env.ReadyCount("Drone"); got != 1 {
		t.Errorf("ReadyCount(Drone) = %d, want 1", got)
	}
	if got := env.IdleCount("Hatchery"); got != 1 {
		t.Errorf("IdleCount(Hatchery) = %d, want 1", got)
	}
	if !env.Received(bus.KindEnemyRace) || env.Received(bus.KindTownhallLost) {
		t.Errorf("Received mismatch")
	}
	if got := env.MessageText(bus.KindEnemyRace); got != "Terran" {
		t.Errorf("MessageText = %q", got)
	}
	if got := env.Stage(); got != "early_game" {
		t.Errorf("Stage() = %q, want early_game", got)
	}
	if got := env.Build("early_game"); got != "early" {
		t.Errorf("Build(early_game) = %q", got)
	}
	if got := env.Build("bogus"); got != "" {
		t.Errorf("Build(bogus) = %q", got)
	}
	if !env.Known("open") || env.Known("early") {
		t.Errorf("Known mismatch")
	}
	if env.WorkersSuppressed() {
		t.Errorf("workers not suppressed yet")
	}
}
