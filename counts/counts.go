// Package counts folds a raw world snapshot into one canonical count per
// production target, so the resolver sees morphing, burrowed, cocooned and
// uprooted forms as the type a build order asks for.
package counts

import (
	"math"
	"sort"

	"github.com/nstehr/vimy/vimy-zerg/gamedata"
	"github.com/nstehr/vimy/vimy-zerg/model"
)

// DefaultMineralRadius is how far from a townhall a mineral field may lie and
// still count as that townhall's resources.
const DefaultMineralRadius = 10.0

// Existing maps a target type to how many are secured or in progress.
// Missing keys read as zero.
type Existing map[string]int

// Get returns the count for t, zero when absent.
func (e Existing) Get(t string) int { return e[t] }

// Clone returns an independent copy.
func (e Existing) Clone() Existing {
	out := make(Existing, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Types returns the non-zero types in name order.
func (e Existing) Types() []string {
	out := make([]string, 0, len(e))
	for k, v := range e {
		if v > 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (e Existing) add(t string, n int) {
	e[t] += n
}

func (e Existing) sub(t string, n int) {
	e[t] -= n
	if e[t] < 0 {
		e[t] = 0
	}
}

// Normalizer converts snapshots into Existing counts.
type Normalizer struct {
	MineralRadius float64
}

// Normalize uses DefaultMineralRadius.
func Normalize(gs model.GameState) Existing {
	return Normalizer{MineralRadius: DefaultMineralRadius}.Normalize(gs)
}

// Normalize applies, in order: raw and in-progress counts, pending orders,
// burrowed/uprooted/cocoon folding, tier credit, exhausted extractors,
// upgrade progress, and finally the townhall recount.
func (n Normalizer) Normalize(gs model.GameState) Existing {
	radius := n.MineralRadius
	if radius <= 0 {
		radius = DefaultMineralRadius
	}

	out := make(Existing)
	orderedUpgrades := make(map[string]bool)

	for _, u := range gs.Units {
		t := u.Type
		switch {
		case gamedata.IsExtractor(t):
			out.add(gamedata.Extractor, 1)
			if u.Ready() && u.VespeneContents <= 0 {
				out.sub(gamedata.Extractor, 1)
			}
		default:
			if base, ok := gamedata.UnburrowedOf(t); ok {
				t = base
			} else if rooted, ok := gamedata.RootedOf(t); ok {
				t = rooted
			} else if hatch, ok := gamedata.CocoonTarget(t); ok {
				// the cocoon already is the in-progress unit; its order adds nothing
				out.add(hatch, 1)
				continue
			}
			out.add(t, 1)
		}

		if lower, ok := gamedata.LowerTierOf(t); ok {
			out.add(lower, 1)
		}

		for _, o := range u.Orders {
			if gamedata.IsUpgrade(o) {
				orderedUpgrades[o] = true
				continue
			}
			if gamedata.Known(o) {
				out.add(o, 1)
			}
		}
	}

	for t, p := range gs.Pending {
		if p > 0 && !gamedata.IsUpgrade(t) {
			out.add(t, p)
		}
	}

	for up, progress := range gs.Upgrades {
		c := int(math.Ceil(progress))
		if c > 1 {
			c = 1
		}
		if c > 0 {
			out[up] = c
		}
	}
	for up := range orderedUpgrades {
		out[up] = 1
	}
	for up, p := range gs.Pending {
		if p > 0 && gamedata.IsUpgrade(up) {
			out[up] = 1
		}
	}

	out[gamedata.Hatchery] = townhalls(gs, radius)

	for t, v := range out {
		if v == 0 {
			delete(out, t)
		}
	}
	return out
}

// townhalls counts townhall-class structures that still have unmined
// minerals nearby, plus hatcheries ordered but not yet placed. A mined-out
// base does not satisfy a build order's expansion count.
func townhalls(gs model.GameState, radius float64) int {
	n := 0
	for _, u := range gs.Units {
		if gamedata.IsTownhall(u.Type) && gs.HasMineralsNear(u.X, u.Y, radius) {
			n++
		}
		for _, o := range u.Orders {
			if o == gamedata.Hatchery && !gamedata.IsTownhall(u.Type) {
				n++
			}
		}
	}
	return n + gs.Pending[gamedata.Hatchery]
}
