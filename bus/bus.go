// Package bus is the in-process message bus the planner and its neighbouring
// subsystems use to signal each other. Every subscriber holds one mailbox slot
// per message kind: a newer publish overwrites an unacknowledged older one.
package bus

import (
	"log/slog"
	"sort"
	"sync"
)

// Message kinds produced or consumed by the build engine.
const (
	KindStageChanged         = "stage_changed"
	KindReleaseHeldResources = "release_held_resources"
	KindPlanSwitched         = "plan_switched"
	KindPullWorkersOffGas    = "pull_workers_off_gas"
	KindResumeGas            = "resume_gas"
	KindSuppressWorkers      = "suppress_workers"
	KindSuppressTownhalls    = "suppress_townhalls"
	KindHoldProduction       = "hold_production"
	KindEnemyRace            = "enemy_race"
	KindTownhallLost         = "townhall_lost"
	KindEarlyPressure        = "early_pressure"
)

// Message is one published value.
type Message struct {
	Kind  string `json:"kind"`
	Value any    `json:"value,omitempty"`
	From  string `json:"from"`
	Seq   uint64 `json:"seq"`
}

// Observer is notified after every publish.
type Observer interface {
	Published(kind string, delivered int)
}

type Bus struct {
	mu       sync.Mutex
	subs     map[string]map[*Client]struct{}
	seq      uint64
	observer Observer
}

func New() *Bus {
	return &Bus{subs: make(map[string]map[*Client]struct{})}
}

// SetObserver installs o; nil disables observation.
func (b *Bus) SetObserver(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observer = o
}

// Client returns a new participant named name.
func (b *Bus) Client(name string) *Client {
	return &Client{bus: b, name: name, mailbox: make(map[string]Message)}
}

func (b *Bus) publish(from *Client, kind string, value any) int {
	b.mu.Lock()
	b.seq++
	msg := Message{Kind: kind, Value: value, From: from.name, Seq: b.seq}
	delivered := 0
	for c := range b.subs[kind] {
		if c == from {
			continue
		}
		c.mailbox[kind] = msg
		delivered++
	}
	obs := b.observer
	b.mu.Unlock()

	slog.Debug("message published", "kind", kind, "from", from.name, "delivered", delivered)
	if obs != nil {
		obs.Published(kind, delivered)
	}
	return delivered
}

// Client is one bus participant. Its mailbox is guarded by the bus lock.
type Client struct {
	bus     *Bus
	name    string
	mailbox map[string]Message
}

func (c *Client) Name() string { return c.name }

// Subscribe starts receiving the given kinds.
func (c *Client) Subscribe(kinds ...string) {
	c.bus.mu.Lock()
	defer c.bus.mu.Unlock()
	for _, k := range kinds {
		if c.bus.subs[k] == nil {
			c.bus.subs[k] = make(map[*Client]struct{})
		}
		c.bus.subs[k][c] = struct{}{}
	}
}

// Unsubscribe stops receiving kind and drops any pending value of it.
func (c *Client) Unsubscribe(kind string) {
	c.bus.mu.Lock()
	defer c.bus.mu.Unlock()
	delete(c.bus.subs[kind], c)
	delete(c.mailbox, kind)
}

// Publish delivers value to every subscriber of kind except c and returns how
// many received it.
func (c *Client) Publish(kind string, value any) int {
	return c.bus.publish(c, kind, value)
}

// Peek returns the pending message of kind without acknowledging it.
func (c *Client) Peek(kind string) (Message, bool) {
	c.bus.mu.Lock()
	defer c.bus.mu.Unlock()
	m, ok := c.mailbox[kind]
	return m, ok
}

// Ack removes the pending message of kind.
func (c *Client) Ack(kind string) {
	c.bus.mu.Lock()
	defer c.bus.mu.Unlock()
	delete(c.mailbox, kind)
}

// Take returns and acknowledges the pending message of kind.
func (c *Client) Take(kind string) (Message, bool) {
	c.bus.mu.Lock()
	defer c.bus.mu.Unlock()
	m, ok := c.mailbox[kind]
	if ok {
		delete(c.mailbox, kind)
	}
	return m, ok
}

// Pending lists every unacknowledged message ordered by publish sequence.
func (c *Client) Pending() []Message {
	c.bus.mu.Lock()
	defer c.bus.mu.Unlock()
	out := make([]Message, 0, len(c.mailbox))
	for _, m := range c.mailbox {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
