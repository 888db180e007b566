package build

import (
	"fmt"
	"strings"
)

// Stage is the coarse phase of a production plan. Each build order belongs to
// exactly one stage and the stack holds one build per stage.
type Stage int

const (
	Opening Stage = iota
	EarlyGame
	MidGame
	LateGame
)

// NumStages is the number of stack slots.
const NumStages = 4

var stageNames = [NumStages]string{"opening", "early_game", "mid_game", "late_game"}

func (s Stage) String() string {
	if !s.Valid() {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Valid reports whether s names one of the four stack slots.
func (s Stage) Valid() bool {
	return s >= Opening && s <= LateGame
}

// ParseStage accepts the snake_case stage names used in catalogs and config.
func ParseStage(name string) (Stage, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	for i, s := range stageNames {
		if s == n || strings.ReplaceAll(s, "_", "") == n {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

// Stages returns all stages in stack order.
func Stages() []Stage {
	return []Stage{Opening, EarlyGame, MidGame, LateGame}
}
