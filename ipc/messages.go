package ipc

// Message types shared with the game adapter.
const (
	TypeHello     = "hello"
	TypeAck       = "ack"
	TypeGameState = "game_state"
	TypeIntel     = "intel"
	TypeSetBuild  = "set_build"
	TypeProduce   = "produce"
	TypeMessage   = "message"
)

type HelloMessage struct {
	Player    string `json:"player"`
	Race      string `json:"race"`
	EnemyRace string `json:"enemyRace,omitempty"` // often unknown until scouted
	Opening   string `json:"opening,omitempty"`   // overrides the configured opening
}

type AckMessage struct {
	Status  string `json:"status"`
	Opening string `json:"opening,omitempty"`
	Error   string `json:"error,omitempty"`
}

// IntelMessage carries what scouting has seen since the last report.
type IntelMessage struct {
	Tick           int      `json:"tick"`
	EnemyRace      string   `json:"enemyRace,omitempty"`
	EnemyNearBase  int      `json:"enemyNearBase"` // enemy army units close to our townhalls
	EnemyTypesSeen []string `json:"enemyTypesSeen,omitempty"`
}

// SetBuildMessage asks the planner to switch the build in a stage.
type SetBuildMessage struct {
	Stage string `json:"stage"`
	Build string `json:"build"`
}

// ProduceCommand hands the next targets to the construction executor.
type ProduceCommand struct {
	Tick           int      `json:"tick"`
	Targets        []string `json:"targets"`
	SupplyOverride bool     `json:"supplyOverride,omitempty"`
}

// BusMessage forwards a bus publish to subsystems living in the adapter,
// such as the gas manager.
type BusMessage struct {
	Kind  string `json:"kind"`
	Value any    `json:"value,omitempty"`
	From  string `json:"from"`
}
