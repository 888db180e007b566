package resolver

import (
	"github.com/nstehr/vimy/vimy-zerg/gamedata"
	"github.com/nstehr/vimy/vimy-zerg/model"
)

// MaxSupply is the game's hard supply cap.
const MaxSupply = 200

// SupplyRule decides when to bypass the build stack and queue a supply
// provider. The effective buffer is
//
//	cap - used + 8*pending providers - 8*damaged providers
//
// and the rule fires when it drops below Base + cap/Divisor.
type SupplyRule struct {
	Base            int
	Divisor         int
	DamagedFraction float64
	MinProviders    int
}

func DefaultSupplyRule() SupplyRule {
	return SupplyRule{Base: 2, Divisor: 8, DamagedFraction: 0.5, MinProviders: 3}
}

// Threshold is the buffer below which the rule fires.
func (r SupplyRule) Threshold(supplyCap int) int {
	t := r.Base
	if r.Divisor > 0 {
		t += supplyCap / r.Divisor
	}
	return t
}

// Buffer is the effective free supply counting providers on the way and
// discounting those likely to die.
func (r SupplyRule) Buffer(gs model.GameState) int {
	pending := gs.Pending[gamedata.SupplyProvider]
	damaged := 0
	for _, u := range gs.Units {
		if u.HasOrder(gamedata.SupplyProvider) {
			pending++
		}
		if gamedata.IsSupplyProvider(u.Type) && u.Ready() && u.HealthFraction() < r.DamagedFraction {
			damaged++
		}
	}
	return gs.Player.SupplyCap - gs.Player.SupplyUsed +
		gamedata.SupplyPerProvider*pending - gamedata.SupplyPerProvider*damaged
}

// Fires reports whether the emergency override applies to gs.
func (r SupplyRule) Fires(gs model.GameState) bool {
	if gs.Player.SupplyCap >= MaxSupply {
		return false
	}
	providers := 0
	for _, u := range gs.Units {
		if gamedata.IsSupplyProvider(u.Type) && u.Ready() {
			providers++
		}
	}
	if providers < r.MinProviders {
		return false
	}
	return r.Buffer(gs) < r.Threshold(gs.Player.SupplyCap)
}
