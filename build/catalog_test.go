package build

import (
	"errors"
	"testing"

	"github.com/nstehr/vimy/vimy-zerg/gamedata"
	"github.com/nstehr/vimy/vimy-zerg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLookups(t *testing.T) {
	c, err := NewRegistry().
		Register("pool_first", Opening, Target(gamedata.SpawningPool), Target(gamedata.Drone)).
		Register("ling_bane", EarlyGame, NewAtLeast(2, Target(gamedata.Queen))).
		Register("roach_push", EarlyGame, Target(gamedata.RoachWarren)).
		Register("hydra_mid", MidGame, Target(gamedata.HydraliskDen)).
		Default("pool_first", "ling_bane").
		Override(gamedata.RaceTerran, "pool_first", "roach_push").
		Default("ling_bane", "hydra_mid").
		Force("ling_bane").
		Catalog()
	require.NoError(t, err)

	assert.Equal(t, EarlyGame, c.StageOf("ling_bane"))
	assert.Len(t, c.OrderOf("pool_first"), 2)
	assert.True(t, c.Has("hydra_mid"))
	assert.False(t, c.Has("nope"))

	next, ok := c.DefaultNextOf("pool_first", gamedata.RaceProtoss)
	require.True(t, ok)
	assert.Equal(t, BuildID("ling_bane"), next)

	next, ok = c.DefaultNextOf("pool_first", gamedata.RaceTerran)
	require.True(t, ok)
	assert.Equal(t, BuildID("roach_push"), next, "race override wins over default")

	_, ok = c.DefaultNextOf("hydra_mid", gamedata.RaceTerran)
	assert.False(t, ok, "plan ends after hydra_mid")

	assert.True(t, c.IsForcedDefault("ling_bane"))
	assert.False(t, c.IsForcedDefault("pool_first"))

	assert.Equal(t, []BuildID{"pool_first", "ling_bane", "roach_push", "hydra_mid"}, c.IDs())
}

func TestCatalogMessageKinds(t *testing.T) {
	c, err := NewRegistry().
		Register("a", Opening, NewPublishMessage("scout", nil), Target(gamedata.Drone)).
		Register("b", EarlyGame, NewPublishMessage("attack", 1), NewPublishMessage("scout", nil)).
		Catalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"attack", "scout"}, c.MessageKinds())
}

func TestCatalogRejectsNestedStatefulNodes(t *testing.T) {
	_, err := NewRegistry().
		Register("bad", Opening,
			NewAtLeast(1, NewPublishMessage("hello", 1)),
			NewIfHasThenBuild(gamedata.Extractor, NewPullWorkersOffVespeneUntil(gamedata.Lair, 0), 1),
		).
		Catalog()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCatalog))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Violations, 2)
}

func TestCatalogAllowsWrappedNonStatefulSpecial(t *testing.T) {
	_, err := NewRegistry().
		Register("ok", Opening, NewAtLeast(3, NewOneForEach(gamedata.Queen, gamedata.Hatchery))).
		Catalog()
	assert.NoError(t, err)
}

func TestCatalogValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func(r *Registry)
	}{
		{"default to unregistered", func(r *Registry) {
			r.Register("a", Opening, Target(gamedata.Drone)).Default("a", "missing")
		}},
		{"override to unregistered", func(r *Registry) {
			r.Register("a", Opening, Target(gamedata.Drone)).Override(gamedata.RaceZerg, "a", "missing")
		}},
		{"invalid stage", func(r *Registry) {
			r.Register("a", Stage(9), Target(gamedata.Drone))
		}},
		{"duplicate id", func(r *Registry) {
			r.Register("a", Opening, Target(gamedata.Drone)).Register("a", EarlyGame)
		}},
		{"empty id", func(r *Registry) {
			r.Register("", Opening, Target(gamedata.Drone))
		}},
		{"non-positive count", func(r *Registry) {
			r.Register("a", Opening, NewAtLeast(0, Target(gamedata.Drone)))
		}},
		{"wrapper without target", func(r *Registry) {
			r.Register("a", Opening, NewAtLeast(2, nil))
		}},
		{"forced unregistered", func(r *Registry) {
			r.Register("a", Opening).Force("b")
		}},
		{"bad gate", func(r *Registry) {
			r.Register("a", Opening).Gate(gamedata.Baneling, "Minerals() +")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			tt.build(r)
			_, err := r.Catalog()
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestCatalogGates(t *testing.T) {
	c, err := NewRegistry().
		Register("a", Opening, Target(gamedata.Baneling)).
		Gate(gamedata.Baneling, `IdleCount("Zergling") > 0`).
		Catalog()
	require.NoError(t, err)

	g, ok := c.GateFor(gamedata.Baneling)
	require.True(t, ok)

	gs := model.GameState{}
	allowed, err := g.Allows(gs)
	require.NoError(t, err)
	assert.False(t, allowed)

	gs.Units = []model.Unit{{Type: gamedata.Zergling, BuildProgress: 1, Idle: true}}
	allowed, err = g.Allows(gs)
	require.NoError(t, err)
	assert.True(t, allowed)

	_, ok = c.GateFor(gamedata.Drone)
	assert.False(t, ok)
}

func TestNodeIdentityIsNotContent(t *testing.T) {
	a := NewPublishMessage("expand", 1)
	b := NewPublishMessage("expand", 1)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestParseStage(t *testing.T) {
	for _, name := range []string{"mid_game", "MidGame", "mid-game"} {
		s, err := ParseStage(name)
		require.NoError(t, err, name)
		assert.Equal(t, MidGame, s)
	}
	_, err := ParseStage("endgame")
	assert.Error(t, err)
}
