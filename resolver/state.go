package resolver

import "github.com/nstehr/vimy/vimy-zerg/build"

// Expiring is a flag that may lapse at a tick. An armed flag without an
// expiry stays set until disarmed.
type Expiring struct {
	Armed     bool
	ExpiresAt int
	HasExpiry bool
}

// Active reports whether the flag holds at tick.
func (e Expiring) Active(tick int) bool {
	return e.Armed && (!e.HasExpiry || tick < e.ExpiresAt)
}

// State is what the resolver carries from one tick to the next. Everything
// else is recomputed from the snapshot.
type State struct {
	Armed             map[build.NodeID]bool
	Fired             map[build.NodeID]bool
	SuppressWorkers   bool
	SuppressTownhalls bool
	Hold              Expiring

	LastStage    build.Stage
	HasLastStage bool
}

func NewState() *State {
	return &State{
		Armed: make(map[build.NodeID]bool),
		Fired: make(map[build.NodeID]bool),
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	out := *s
	out.Armed = make(map[build.NodeID]bool, len(s.Armed))
	for k, v := range s.Armed {
		out.Armed[k] = v
	}
	out.Fired = make(map[build.NodeID]bool, len(s.Fired))
	for k, v := range s.Fired {
		out.Fired[k] = v
	}
	return &out
}

// HoldUntil suppresses worker and townhall production until tick.
func (s *State) HoldUntil(tick int) {
	s.Hold = Expiring{Armed: true, ExpiresAt: tick, HasExpiry: true}
}

func (s *State) workersSuppressed(tick int) bool {
	return s.SuppressWorkers || s.Hold.Active(tick)
}

func (s *State) townhallsSuppressed(tick int) bool {
	return s.SuppressTownhalls || s.Hold.Active(tick)
}
