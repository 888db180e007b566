package build

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/vimy/vimy-zerg/model"
)

// GateEnv exposes world queries to gate expressions, e.g.
// `IdleCount("Hydralisk") > 0 && Vespene() >= 100`.
type GateEnv struct {
	State model.GameState
}

func (e GateEnv) ReadyCount(t string) int { return e.State.ReadyCount(t) }
func (e GateEnv) IdleCount(t string) int  { return e.State.IdleCount(t) }
func (e GateEnv) Minerals() int           { return e.State.Player.Minerals }
func (e GateEnv) Vespene() int            { return e.State.Player.Vespene }
func (e GateEnv) SupplyLeft() int         { return e.State.Player.SupplyLeft() }
func (e GateEnv) SupplyUsed() int         { return e.State.Player.SupplyUsed }
func (e GateEnv) Tick() int               { return e.State.Tick }
func (e GateEnv) EnemyRace() string       { return e.State.EnemyRace }

// HasUpgrade reports whether research of u has at least started.
func (e GateEnv) HasUpgrade(u string) bool { return e.State.Upgrades[u] > 0 }

// Gate is an extra feasibility predicate attached to a target in the catalog.
// A target whose gate evaluates false is skipped for the pass.
type Gate struct {
	Target Target
	Src    string
	prog   *vm.Program
}

func compileGate(target Target, src string) (*Gate, error) {
	prog, err := expr.Compile(src, expr.Env(GateEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile gate for %s: %w", target, err)
	}
	return &Gate{Target: target, Src: src, prog: prog}, nil
}

// Allows evaluates the gate. Evaluation errors close the gate.
func (g *Gate) Allows(gs model.GameState) (bool, error) {
	out, err := vm.Run(g.prog, GateEnv{State: gs})
	if err != nil {
		return false, fmt.Errorf("gate for %s: %w", g.Target, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}
