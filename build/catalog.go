package build

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// BuildID names a predefined build order.
type BuildID string

// BuildOrder is an immutable, ordered node sequence.
type BuildOrder []Node

// Build is one catalog entry.
type Build struct {
	ID    BuildID
	Stage Stage
	Order BuildOrder
}

// Catalog is the validated, read-only registry of build orders and the
// default-next graph between them. It is safe for concurrent readers.
type Catalog struct {
	builds    map[BuildID]Build
	defaults  map[BuildID]BuildID
	overrides map[string]map[BuildID]BuildID // enemy race → from → next
	forced    map[BuildID]bool
	gates     map[Target]*Gate
}

// Lookup returns the build registered under id.
func (c *Catalog) Lookup(id BuildID) (Build, bool) {
	b, ok := c.builds[id]
	return b, ok
}

// Has reports whether id is registered.
func (c *Catalog) Has(id BuildID) bool {
	_, ok := c.builds[id]
	return ok
}

// StageOf returns the stage id belongs to. Unregistered ids map to Opening;
// validation guarantees every id the stack can hold is registered.
func (c *Catalog) StageOf(id BuildID) Stage {
	return c.builds[id].Stage
}

// OrderOf returns the node sequence of id.
func (c *Catalog) OrderOf(id BuildID) BuildOrder {
	return c.builds[id].Order
}

// DefaultNextOf returns the build that follows id: the override registered
// for enemyRace if any, else the race-agnostic default. ok is false when the
// plan simply ends after id.
func (c *Catalog) DefaultNextOf(id BuildID, enemyRace string) (BuildID, bool) {
	if next, ok := c.overrides[enemyRace][id]; ok {
		return next, true
	}
	next, ok := c.defaults[id]
	return next, ok
}

// IsForcedDefault reports whether id is replaced by its default as soon as the
// stack scan runs past it.
func (c *Catalog) IsForcedDefault(id BuildID) bool {
	return c.forced[id]
}

// GateFor returns the extra feasibility predicate for t, if one is declared.
func (c *Catalog) GateFor(t Target) (*Gate, bool) {
	g, ok := c.gates[t]
	return g, ok
}

// IDs returns every registered build id, sorted by stage then name.
func (c *Catalog) IDs() []BuildID {
	ids := make([]BuildID, 0, len(c.builds))
	for id := range c.builds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		si, sj := c.builds[ids[i]].Stage, c.builds[ids[j]].Stage
		if si != sj {
			return si < sj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// MessageKinds returns the distinct message kinds published by builds in the
// catalog, sorted.
func (c *Catalog) MessageKinds() []string {
	seen := make(map[string]bool)
	for _, b := range c.builds {
		for _, n := range b.Order {
			if p, ok := n.(*PublishMessage); ok {
				seen[p.Message] = true
			}
		}
	}
	kinds := make([]string, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ErrInvalidCatalog is wrapped by every ValidationError.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Violation is a single catalog construction problem.
type Violation struct {
	Build  BuildID
	Reason string
}

func (v Violation) String() string {
	if v.Build == "" {
		return v.Reason
	}
	return fmt.Sprintf("%s: %s", v.Build, v.Reason)
}

// ValidationError lists every violation found while constructing a catalog.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%v: %s", ErrInvalidCatalog, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidCatalog }

// Registry accumulates catalog entries. Catalog() validates and freezes them.
type Registry struct {
	builds     map[BuildID]Build
	defaults   map[BuildID]BuildID
	overrides  map[string]map[BuildID]BuildID
	forced     map[BuildID]bool
	gateSrc    map[Target]string
	violations []Violation
}

func NewRegistry() *Registry {
	return &Registry{
		builds:    make(map[BuildID]Build),
		defaults:  make(map[BuildID]BuildID),
		overrides: make(map[string]map[BuildID]BuildID),
		forced:    make(map[BuildID]bool),
		gateSrc:   make(map[Target]string),
	}
}

// Register adds a build order. Duplicate ids are reported by Catalog().
func (r *Registry) Register(id BuildID, stage Stage, nodes ...Node) *Registry {
	if _, dup := r.builds[id]; dup {
		r.violations = append(r.violations, Violation{Build: id, Reason: "registered twice"})
		return r
	}
	order := make(BuildOrder, len(nodes))
	copy(order, nodes)
	r.builds[id] = Build{ID: id, Stage: stage, Order: order}
	return r
}

// Default sets the race-agnostic build that follows from.
func (r *Registry) Default(from, next BuildID) *Registry {
	r.defaults[from] = next
	return r
}

// Override sets the build that follows from when the enemy plays race.
func (r *Registry) Override(race string, from, next BuildID) *Registry {
	if r.overrides[race] == nil {
		r.overrides[race] = make(map[BuildID]BuildID)
	}
	r.overrides[race][from] = next
	return r
}

// Force marks id as replaced by its default as soon as the scan passes it.
func (r *Registry) Force(id BuildID) *Registry {
	r.forced[id] = true
	return r
}

// Gate attaches an expr predicate that must hold before t is produced.
func (r *Registry) Gate(t Target, src string) *Registry {
	r.gateSrc[t] = src
	return r
}

// Catalog validates the registry and returns the frozen catalog, or a
// *ValidationError listing every problem.
func (r *Registry) Catalog() (*Catalog, error) {
	violations := append([]Violation(nil), r.violations...)

	for _, id := range sortedIDs(r.builds) {
		b := r.builds[id]
		if strings.TrimSpace(string(id)) == "" {
			violations = append(violations, Violation{Reason: "build with empty id"})
		}
		if !b.Stage.Valid() {
			violations = append(violations, Violation{Build: id, Reason: fmt.Sprintf("invalid stage %d", int(b.Stage))})
		}
		for i, n := range b.Order {
			for _, reason := range validateNode(n, false) {
				violations = append(violations, Violation{Build: id, Reason: fmt.Sprintf("node %d: %s", i, reason)})
			}
		}
	}

	for _, from := range sortedIDs(r.defaults) {
		violations = append(violations, r.checkEdge("default", from, r.defaults[from])...)
	}
	races := make([]string, 0, len(r.overrides))
	for race := range r.overrides {
		races = append(races, race)
	}
	sort.Strings(races)
	for _, race := range races {
		table := r.overrides[race]
		for _, from := range sortedIDs(table) {
			violations = append(violations, r.checkEdge("override "+race, from, table[from])...)
		}
	}
	for _, id := range sortedIDs(r.forced) {
		if _, ok := r.builds[id]; !ok {
			violations = append(violations, Violation{Build: id, Reason: "forced default on unregistered build"})
		}
	}

	gates := make(map[Target]*Gate, len(r.gateSrc))
	for t, src := range r.gateSrc {
		g, err := compileGate(t, src)
		if err != nil {
			violations = append(violations, Violation{Reason: err.Error()})
			continue
		}
		gates[t] = g
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	c := &Catalog{
		builds:    make(map[BuildID]Build, len(r.builds)),
		defaults:  make(map[BuildID]BuildID, len(r.defaults)),
		overrides: make(map[string]map[BuildID]BuildID, len(r.overrides)),
		forced:    make(map[BuildID]bool, len(r.forced)),
		gates:     gates,
	}
	for id, b := range r.builds {
		c.builds[id] = b
	}
	for from, next := range r.defaults {
		c.defaults[from] = next
	}
	for race, table := range r.overrides {
		c.overrides[race] = make(map[BuildID]BuildID, len(table))
		for from, next := range table {
			c.overrides[race][from] = next
		}
	}
	for id := range r.forced {
		c.forced[id] = true
	}
	return c, nil
}

func (r *Registry) checkEdge(kind string, from, next BuildID) []Violation {
	var out []Violation
	if _, ok := r.builds[from]; !ok {
		out = append(out, Violation{Build: from, Reason: kind + " from unregistered build"})
	}
	if _, ok := r.builds[next]; !ok {
		out = append(out, Violation{Build: from, Reason: fmt.Sprintf("%s points at unregistered build %q", kind, next)})
	}
	return out
}

// validateNode checks one node. nested is true when n is the target of a
// wrapping special node.
func validateNode(n Node, nested bool) []string {
	if n == nil {
		return []string{"nil node"}
	}
	if nested && Stateful(n) {
		return []string{fmt.Sprintf("%s cannot be the target of another node", n)}
	}

	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	switch v := n.(type) {
	case Target:
		check(v != "", "empty target")
	case *AtLeast:
		check(v.N > 0, "%s: count must be positive", v)
	case *IfHasThenBuild:
		check(v.Condition != "", "%s: empty condition", v)
		check(v.N > 0, "%s: count must be positive", v)
	case *IfHasThenDontBuild:
		check(v.Condition != "", "%s: empty condition", v)
		check(v.N > 0, "%s: count must be positive", v)
	case *OneForEach:
		check(v.Target != "" && v.ForEach != "", "%s: empty type", v)
	case *CanAfford:
		check(v.Target != "", "%s: empty target", v)
	case *PullWorkersOffVespeneUntil:
		check(v.Target != "", "%s: empty target", v)
		check(v.N >= 0, "%s: worker count cannot be negative", v)
	case *PublishMessage:
		check(v.Message != "", "%s: empty message", v)
	}

	if inner := Inner(n); inner != nil || isWrapper(n) {
		problems = append(problems, validateNode(inner, true)...)
	}
	return problems
}

func isWrapper(n Node) bool {
	switch n.(type) {
	case *AtLeast, *IfHasThenBuild, *IfHasThenDontBuild:
		return true
	}
	return false
}

func sortedIDs[V any](m map[BuildID]V) []BuildID {
	ids := make([]BuildID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
