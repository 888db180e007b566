package model

import (
	"math"

	"github.com/nstehr/vimy/vimy-zerg/gamedata"
)

// ReadyCount counts finished units of exactly type t.
func (gs GameState) ReadyCount(t string) int {
	n := 0
	for _, u := range gs.Units {
		if u.Type == t && u.Ready() {
			n++
		}
	}
	return n
}

// IdleCount counts finished, order-free units of exactly type t.
func (gs GameState) IdleCount(t string) int {
	n := 0
	for _, u := range gs.Units {
		if u.Type == t && u.Ready() && u.Idle && len(u.Orders) == 0 {
			n++
		}
	}
	return n
}

// CanAfford reports whether the bank and free supply cover one t.
func (gs GameState) CanAfford(t string) bool {
	c := gamedata.CostOf(t)
	if gs.Player.Minerals < c.Minerals || gs.Player.Vespene < c.Vespene {
		return false
	}
	return c.Supply == 0 || gs.Player.SupplyLeft() >= c.Supply
}

// HasFinished reports whether a finished structure satisfying need exists,
// counting higher tiers (a Lair satisfies a Hatchery requirement).
func (gs GameState) HasFinished(need string) bool {
	for _, u := range gs.Units {
		if u.Ready() && gamedata.Satisfies(u.Type, need) {
			return true
		}
	}
	return false
}

// TechAvailable reports whether t's tech requirement is finished and, for
// structure-issued production, whether an idle producer is free.
func (gs GameState) TechAvailable(t string) bool {
	if req, ok := gamedata.TechRequirement(t); ok && !gs.HasFinished(req) {
		return false
	}
	producers := gamedata.Producers(t)
	if len(producers) == 0 {
		return true
	}
	for _, p := range producers {
		if gs.IdleCount(p) > 0 {
			return true
		}
	}
	return false
}

// HasMineralsNear reports whether any unmined mineral field lies within
// radius of (x, y).
func (gs GameState) HasMineralsNear(x, y, radius float64) bool {
	for _, m := range gs.MineralFields {
		if m.Contents <= 0 {
			continue
		}
		if math.Hypot(m.X-x, m.Y-y) <= radius {
			return true
		}
	}
	return false
}

// ReadyEquivalentCount counts finished units that satisfy t, so Lairs and
// Hives are counted when t is Hatchery.
func (gs GameState) ReadyEquivalentCount(t string) int {
	n := 0
	for _, u := range gs.Units {
		if u.Ready() && gamedata.Satisfies(u.Type, t) {
			n++
		}
	}
	return n
}
