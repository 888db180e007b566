package model

// GameState is one tick's world snapshot as reported by the game adapter.
// It is fully materialized before the engine runs and never mutated by it.
type GameState struct {
	Tick          int                `json:"tick"`
	Player        Player             `json:"player"`
	EnemyRace     string             `json:"enemyRace"`
	Units         []Unit             `json:"units"`
	Upgrades      map[string]float64 `json:"upgrades"` // research progress, 1 when complete
	Pending       map[string]int     `json:"pending"`  // ordered but not yet started or placed
	MineralFields []Resource         `json:"mineralFields"`
}

type Player struct {
	Name       string `json:"name"`
	Race       string `json:"race"`
	Minerals   int    `json:"minerals"`
	Vespene    int    `json:"vespene"`
	SupplyUsed int    `json:"supplyUsed"`
	SupplyCap  int    `json:"supplyCap"`
}

// SupplyLeft is the free supply, never negative.
func (p Player) SupplyLeft() int {
	if p.SupplyCap < p.SupplyUsed {
		return 0
	}
	return p.SupplyCap - p.SupplyUsed
}

type Unit struct {
	ID              int      `json:"id"`
	Type            string   `json:"type"`
	X               float64  `json:"x"`
	Y               float64  `json:"y"`
	HP              int      `json:"hp"`
	MaxHP           int      `json:"maxHp"`
	BuildProgress   float64  `json:"buildProgress"` // 1 when finished
	Idle            bool     `json:"idle"`
	Orders          []string `json:"orders"`          // type names being produced or morphed into
	VespeneContents int      `json:"vespeneContents"` // extractors only
}

func (u Unit) TypeName() string { return u.Type }

// Ready reports whether the unit has finished construction.
func (u Unit) Ready() bool { return u.BuildProgress >= 1 }

// HealthFraction is hp/maxHp, 1 when max hp is unknown.
func (u Unit) HealthFraction() float64 {
	if u.MaxHP <= 0 {
		return 1
	}
	return float64(u.HP) / float64(u.MaxHP)
}

// HasOrder reports whether the unit is currently producing t.
func (u Unit) HasOrder(t string) bool {
	for _, o := range u.Orders {
		if o == t {
			return true
		}
	}
	return false
}

// Resource is a mineral field with its remaining contents.
type Resource struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Contents int     `json:"contents"`
}
