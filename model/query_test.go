package model

import (
	"testing"

	"github.com/nstehr/vimy/vimy-zerg/gamedata"
)

func baseGameState() GameState {
	return GameState{
		Tick: 100,
		Player: Player{
			Minerals:   300,
			Vespene:    0,
			SupplyUsed: 14,
			SupplyCap:  14,
		},
		Units: []Unit{
			{ID: 1, Type: gamedata.Hatchery, X: 10, Y: 10, BuildProgress: 1, Idle: true},
			{ID: 2, Type: gamedata.SpawningPool, BuildProgress: 0.5},
			{ID: 3, Type: gamedata.Drone, BuildProgress: 1, Idle: true},
			{ID: 4, Type: gamedata.Drone, BuildProgress: 1, Orders: []string{"mine"}},
		},
		MineralFields: []Resource{
			{X: 15, Y: 10, Contents: 900},
			{X: 80, Y: 80, Contents: 0},
		},
	}
}

func TestReadyAndIdleCount(t *testing.T) {
	gs := baseGameState()
	if got := gs.ReadyCount(gamedata.Drone); got != 2 {
		t.Errorf("ReadyCount(Drone) = %d, want 2", got)
	}
	if got := gs.IdleCount(gamedata.Drone); got != 1 {
		t.Errorf("IdleCount(Drone) = %d, want 1", got)
	}
	if got := gs.ReadyCount(gamedata.SpawningPool); got != 0 {
		t.Errorf("ReadyCount(SpawningPool) = %d, want 0 (under construction)", got)
	}
}

func TestCanAfford(t *testing.T) {
	gs := baseGameState()
	if !gs.CanAfford(gamedata.Hatchery) {
		t.Error("expected 300 minerals to afford a hatchery")
	}
	if gs.CanAfford(gamedata.Drone) {
		t.Error("drone needs free supply")
	}
	if !gs.CanAfford(gamedata.Overlord) {
		t.Error("overlord needs no supply")
	}
	if gs.CanAfford(gamedata.ZerglingMovementSpeed) {
		t.Error("speed needs vespene")
	}
}

func TestTechAvailable(t *testing.T) {
	gs := baseGameState()
	if gs.TechAvailable(gamedata.Zergling) {
		t.Error("zergling needs a finished spawning pool")
	}
	if !gs.TechAvailable(gamedata.SpawningPool) {
		t.Error("spawning pool only needs a hatchery")
	}
	gs.Units[1].BuildProgress = 1
	gs.Units[1].Idle = true
	if !gs.TechAvailable(gamedata.Queen) {
		t.Error("queen should be available with an idle hatchery and a pool")
	}
	gs.Units[0].Orders = []string{gamedata.Queen}
	gs.Units[0].Idle = false
	if gs.TechAvailable(gamedata.Queen) {
		t.Error("busy hatchery cannot train a second queen")
	}
	if !gs.TechAvailable(gamedata.ZerglingMovementSpeed) {
		t.Error("idle finished pool should research speed")
	}
}

func TestHasMineralsNear(t *testing.T) {
	gs := baseGameState()
	if !gs.HasMineralsNear(10, 10, 10) {
		t.Error("expected minerals near the hatchery")
	}
	if gs.HasMineralsNear(80, 80, 5) {
		t.Error("mined-out field must not count")
	}
}

func TestReadyEquivalentCount(t *testing.T) {
	gs := baseGameState()
	gs.Units = append(gs.Units,
		Unit{Type: gamedata.Lair, BuildProgress: 1},
		Unit{Type: gamedata.Hatchery, BuildProgress: 0.4},
	)
	if got := gs.ReadyEquivalentCount(gamedata.Hatchery); got != 2 {
		t.Errorf("ReadyEquivalentCount(Hatchery) = %d, want 2", got)
	}
}
