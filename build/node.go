package build

import (
	"fmt"

	"github.com/google/uuid"
)

// Node is one entry of a build order: either a Target leaf or one of the
// special node kinds below. The set is closed; nothing outside this package
// can implement Node.
type Node interface {
	node()
	String() string
}

// NodeID identifies a special node for the lifetime of the process. It is
// assigned at construction so two nodes with identical content stay distinct.
type NodeID = uuid.UUID

// Special is implemented by every non-leaf node.
type Special interface {
	Node
	ID() NodeID
}

// Target is a producible unit, structure or upgrade type.
type Target string

func (Target) node()            {}
func (t Target) String() string { return string(t) }

// AtLeast raises the required count of Target to N if it is below N.
type AtLeast struct {
	id     NodeID
	N      int
	Target Node
}

// IfHasThenBuild adds N to Target when at least one Condition exists.
type IfHasThenBuild struct {
	id        NodeID
	Condition Target
	Target    Node
	N         int
}

// IfHasThenDontBuild adds N to Target when no Condition exists.
type IfHasThenDontBuild struct {
	id        NodeID
	Condition Target
	Target    Node
	N         int
}

// OneForEach requires one Target per finished ForEach in the world.
type OneForEach struct {
	id      NodeID
	Target  Target
	ForEach Target
}

// CanAfford requires one more Target only while it is affordable.
type CanAfford struct {
	id     NodeID
	Target Target
}

// PullWorkersOffVespeneUntil asks the gas manager to leave N workers on
// vespene until the first Target exists.
type PullWorkersOffVespeneUntil struct {
	id     NodeID
	Target Target
	N      int
}

// PublishMessage broadcasts Message with Value once, the first time the scan
// reaches it with nothing queued ahead of it.
type PublishMessage struct {
	id      NodeID
	Message string
	Value   any
}

func NewAtLeast(n int, target Node) *AtLeast {
	return &AtLeast{id: uuid.New(), N: n, Target: target}
}

func NewIfHasThenBuild(condition Target, target Node, n int) *IfHasThenBuild {
	return &IfHasThenBuild{id: uuid.New(), Condition: condition, Target: target, N: n}
}

func NewIfHasThenDontBuild(condition Target, target Node, n int) *IfHasThenDontBuild {
	return &IfHasThenDontBuild{id: uuid.New(), Condition: condition, Target: target, N: n}
}

func NewOneForEach(target, forEach Target) *OneForEach {
	return &OneForEach{id: uuid.New(), Target: target, ForEach: forEach}
}

func NewCanAfford(target Target) *CanAfford {
	return &CanAfford{id: uuid.New(), Target: target}
}

func NewPullWorkersOffVespeneUntil(target Target, n int) *PullWorkersOffVespeneUntil {
	return &PullWorkersOffVespeneUntil{id: uuid.New(), Target: target, N: n}
}

func NewPublishMessage(message string, value any) *PublishMessage {
	return &PublishMessage{id: uuid.New(), Message: message, Value: value}
}

// Repeat expands to n copies of the target leaf.
func Repeat(t Target, n int) []Node {
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = t
	}
	return nodes
}

func (n *AtLeast) node()                    {}
func (n *IfHasThenBuild) node()             {}
func (n *IfHasThenDontBuild) node()         {}
func (n *OneForEach) node()                 {}
func (n *CanAfford) node()                  {}
func (n *PullWorkersOffVespeneUntil) node() {}
func (n *PublishMessage) node()             {}

func (n *AtLeast) ID() NodeID                    { return n.id }
func (n *IfHasThenBuild) ID() NodeID             { return n.id }
func (n *IfHasThenDontBuild) ID() NodeID         { return n.id }
func (n *OneForEach) ID() NodeID                 { return n.id }
func (n *CanAfford) ID() NodeID                  { return n.id }
func (n *PullWorkersOffVespeneUntil) ID() NodeID { return n.id }
func (n *PublishMessage) ID() NodeID             { return n.id }

func (n *AtLeast) String() string {
	return fmt.Sprintf("AtLeast(%d, %s)", n.N, n.Target)
}

func (n *IfHasThenBuild) String() string {
	return fmt.Sprintf("IfHasThenBuild(%s, %s, %d)", n.Condition, n.Target, n.N)
}

func (n *IfHasThenDontBuild) String() string {
	return fmt.Sprintf("IfHasThenDontBuild(%s, %s, %d)", n.Condition, n.Target, n.N)
}

func (n *OneForEach) String() string {
	return fmt.Sprintf("OneForEach(%s, %s)", n.Target, n.ForEach)
}

func (n *CanAfford) String() string {
	return fmt.Sprintf("CanAfford(%s)", n.Target)
}

func (n *PullWorkersOffVespeneUntil) String() string {
	return fmt.Sprintf("PullWorkersOffVespeneUntil(%s, %d)", n.Target, n.N)
}

func (n *PublishMessage) String() string {
	return fmt.Sprintf("PublishMessage(%s, %v)", n.Message, n.Value)
}

// Inner returns the node wrapped by AtLeast, IfHasThenBuild or
// IfHasThenDontBuild, or nil for every other kind.
func Inner(n Node) Node {
	switch w := n.(type) {
	case *AtLeast:
		return w.Target
	case *IfHasThenBuild:
		return w.Target
	case *IfHasThenDontBuild:
		return w.Target
	}
	return nil
}

// Stateful reports whether n carries state across resolution passes. Such
// nodes may only appear at the top level of a build order.
func Stateful(n Node) bool {
	switch n.(type) {
	case *PullWorkersOffVespeneUntil, *PublishMessage:
		return true
	}
	return false
}
