package agent

import (
	"fmt"
	"maps"
	"slices"

	"github.com/nstehr/vimy/vimy-zerg/bus"
	"github.com/nstehr/vimy/vimy-zerg/gamedata"
	"github.com/nstehr/vimy/vimy-zerg/ipc"
	"github.com/nstehr/vimy/vimy-zerg/model"
)

// Event kinds are the bus kinds they are published under.
const (
	EventEnemyRace     = bus.KindEnemyRace
	EventTownhallLost  = bus.KindTownhallLost
	EventEarlyPressure = bus.KindEarlyPressure
)

// Event is a notable change between two snapshots.
type Event struct {
	Kind   string
	Tick   int
	Value  any
	Detail string
}

// stateSnapshot is the part of a tick the detector diffs against.
type stateSnapshot struct {
	townhalls map[int]string // finished townhalls by unit id
	alive     map[int]bool
	enemyRace string
}

// PressureThresholds decide when scouting intel counts as early pressure.
type PressureThresholds struct {
	Units int // enemy units near our townhalls
	Until int // last tick that still counts as early
}

func takeSnapshot(gs model.GameState) stateSnapshot {
	snap := stateSnapshot{
		townhalls: make(map[int]string),
		alive:     make(map[int]bool, len(gs.Units)),
		enemyRace: gs.EnemyRace,
	}
	for _, u := range gs.Units {
		snap.alive[u.ID] = true
		if gamedata.IsTownhall(u.Type) && u.Ready() {
			snap.townhalls[u.ID] = u.Type
		}
	}
	return snap
}

// knownRace reports whether r names an actual race rather than a pick still
// hidden behind Random.
func knownRace(r string) bool {
	race, ok := gamedata.CanonicalRace(r)
	return ok && race != gamedata.RaceRandom
}

// detectEvents compares the current game state against the previous snapshot
// and returns any triggered events. Returns nil if prev is nil (first tick).
func detectEvents(gs model.GameState, prev *stateSnapshot) []Event {
	if prev == nil {
		return nil
	}

	var events []Event
	cur := takeSnapshot(gs)

	// 1. enemy race discovered: a Random opponent revealed, or the first report
	if knownRace(cur.enemyRace) && !knownRace(prev.enemyRace) {
		race, _ := gamedata.CanonicalRace(cur.enemyRace)
		events = append(events, Event{
			Kind:   EventEnemyRace,
			Tick:   gs.Tick,
			Value:  race,
			Detail: fmt.Sprintf("Enemy race discovered: %s", race),
		})
	}

	// 2. townhall lost: a finished townhall present last tick is now gone.
	// Morphing keeps the unit id, so Hatchery → Lair is not a loss.
	// Ids are visited in order so the lowest lost id is the one reported.
	for _, id := range slices.Sorted(maps.Keys(prev.townhalls)) {
		if typ := prev.townhalls[id]; !cur.alive[id] {
			events = append(events, Event{
				Kind:   EventTownhallLost,
				Tick:   gs.Tick,
				Value:  id,
				Detail: fmt.Sprintf("Lost townhall: %s (id %d)", typ, id),
			})
			break // one event per tick is enough
		}
	}

	return events
}

// detectPressure turns a scouting report into an early-pressure event.
func detectPressure(intel ipc.IntelMessage, th PressureThresholds) (Event, bool) {
	if th.Units <= 0 || intel.EnemyNearBase < th.Units || intel.Tick > th.Until {
		return Event{}, false
	}
	return Event{
		Kind:   EventEarlyPressure,
		Tick:   intel.Tick,
		Value:  intel.EnemyNearBase,
		Detail: fmt.Sprintf("Early pressure: %d enemy units near base", intel.EnemyNearBase),
	}, true
}
