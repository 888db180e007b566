// Package dsl loads build catalogs written in HCL.
//
// A catalog file declares its schema version, any number of build blocks and
// optional feasibility gates:
//
//	version = "1.0.0"
//
//	build "hatch_gas_pool" {
//	  stage = "opening"
//	  next  = "ling_queen_macro"
//	  override "Terran" { next = "roach_ravager" }
//
//	  step "at_least" {
//	    n      = 16
//	    target = "Drone"
//	  }
//	  step "target" { target = "Hatchery" }
//	}
//
//	gate "Lair" { when = "ReadyCount(\"Queen\") >= 2" }
package dsl

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/nstehr/vimy/vimy-zerg/build"
	"github.com/nstehr/vimy/vimy-zerg/gamedata"
)

// SupportedVersions is the schema constraint every catalog file must meet.
const SupportedVersions = ">= 1.0.0, < 2.0.0"

//go:embed zerg.hcl
var defaultCatalog []byte

// DefaultFilename names the embedded catalog in diagnostics.
const DefaultFilename = "zerg.hcl"

// Default parses the catalog compiled into the binary.
func Default() (*build.Catalog, error) {
	return NewLoader().Parse(DefaultFilename, defaultCatalog)
}

// DefaultSource returns the embedded catalog text.
func DefaultSource() []byte {
	out := make([]byte, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}

// Loader turns HCL catalog files into a validated build.Catalog.
type Loader struct {
	constraint *semver.Constraints
}

func NewLoader() *Loader {
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		panic(fmt.Sprintf("dsl: bad version constraint: %v", err))
	}
	return &Loader{constraint: c}
}

// Load reads every .hcl file under the given paths (files or directories) and
// merges them into a single catalog. Build ids must be unique across files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*build.Catalog, error) {
	files, err := findHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no catalog files found in %v", paths)
	}

	parser := hclparse.NewParser()
	roots := make([]namedRoot, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parse catalog %s: %w", file, diags)
		}
		root, err := l.decode(file, f)
		if err != nil {
			return nil, err
		}
		roots = append(roots, namedRoot{name: file, root: root})
	}

	cat, err := translate(roots)
	if err != nil {
		return nil, err
	}
	slog.Info("catalog loaded", "files", len(files), "builds", len(cat.IDs()))
	return cat, nil
}

// Parse builds a catalog from a single in-memory file.
func (l *Loader) Parse(filename string, src []byte) (*build.Catalog, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse catalog %s: %w", filename, diags)
	}
	root, err := l.decode(filename, f)
	if err != nil {
		return nil, err
	}
	return translate([]namedRoot{{name: filename, root: root}})
}

type namedRoot struct {
	name string
	root *fileRoot
}

func (l *Loader) decode(filename string, f *hcl.File) (*fileRoot, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decode catalog %s: %w", filename, diags)
	}
	v, err := semver.NewVersion(root.Version)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: version %q: %w", filename, root.Version, err)
	}
	if !l.constraint.Check(v) {
		return nil, fmt.Errorf("catalog %s: version %s not supported (want %s)", filename, v, SupportedVersions)
	}
	return &root, nil
}

// translator collects every problem instead of stopping at the first, so a
// catalog author sees the full list in one run.
type translator struct {
	file       string
	violations []build.Violation
}

func (t *translator) fail(id string, format string, args ...any) {
	t.violations = append(t.violations, build.Violation{
		Build:  build.BuildID(id),
		Reason: fmt.Sprintf("%s: %s", t.file, fmt.Sprintf(format, args...)),
	})
}

func translate(roots []namedRoot) (*build.Catalog, error) {
	reg := build.NewRegistry()
	var violations []build.Violation

	for _, nr := range roots {
		t := &translator{file: nr.name}
		for _, b := range nr.root.Builds {
			t.build(reg, b)
		}
		for _, g := range nr.root.Gates {
			target, ok := t.typeName("", g.Target)
			if ok {
				reg.Gate(target, g.When)
			}
		}
		violations = append(violations, t.violations...)
	}
	if len(violations) > 0 {
		return nil, &build.ValidationError{Violations: violations}
	}
	return reg.Catalog()
}

func (t *translator) build(reg *build.Registry, b *buildBlock) {
	stage, err := build.ParseStage(b.Stage)
	if err != nil {
		t.fail(b.ID, "%v", err)
		return
	}

	var nodes []build.Node
	for i, s := range b.Steps {
		nodes = append(nodes, t.step(b.ID, i, s, false)...)
	}
	id := build.BuildID(b.ID)
	reg.Register(id, stage, nodes...)

	if b.Next != nil {
		reg.Default(id, build.BuildID(*b.Next))
	}
	if b.ForceDefault != nil && *b.ForceDefault {
		reg.Force(id)
	}
	for _, o := range b.Overrides {
		race, ok := gamedata.CanonicalRace(o.Race)
		if !ok {
			t.fail(b.ID, "override for unknown race %q", o.Race)
			continue
		}
		reg.Override(race, id, build.BuildID(o.Next))
	}
}

// step translates one step block. Plain targets with repeat expand to several
// nodes; every other kind yields exactly one.
func (t *translator) step(id string, idx int, s *stepBlock, nested bool) []build.Node {
	where := fmt.Sprintf("step %d (%s)", idx, s.Kind)
	if nested {
		where = "nested " + where
	}

	switch s.Kind {
	case KindTarget:
		target, ok := t.requiredType(id, where, "target", s.Target)
		if !ok {
			return nil
		}
		n := 1
		if s.Repeat != nil {
			if nested {
				t.fail(id, "%s: repeat is not allowed on a wrapped target", where)
				return nil
			}
			n = *s.Repeat
			if n <= 0 {
				t.fail(id, "%s: repeat must be positive", where)
				return nil
			}
		}
		return build.Repeat(target, n)

	case KindAtLeast:
		inner, ok := t.wrapped(id, where, s)
		n, nok := t.count(id, where, s.N)
		if !ok || !nok {
			return nil
		}
		return []build.Node{build.NewAtLeast(n, inner)}

	case KindIfHasThenBuild, KindIfHasThenDontBuild:
		cond, cok := t.requiredType(id, where, "condition", s.Condition)
		inner, ok := t.wrapped(id, where, s)
		n, nok := t.count(id, where, s.N)
		if !cok || !ok || !nok {
			return nil
		}
		if s.Kind == KindIfHasThenBuild {
			return []build.Node{build.NewIfHasThenBuild(cond, inner, n)}
		}
		return []build.Node{build.NewIfHasThenDontBuild(cond, inner, n)}

	case KindOneForEach:
		target, ok := t.requiredType(id, where, "target", s.Target)
		each, eok := t.requiredType(id, where, "for_each", s.ForEach)
		if !ok || !eok {
			return nil
		}
		return []build.Node{build.NewOneForEach(target, each)}

	case KindCanAfford:
		target, ok := t.requiredType(id, where, "target", s.Target)
		if !ok {
			return nil
		}
		return []build.Node{build.NewCanAfford(target)}

	case KindPullWorkersOffVespeneUntil:
		target, ok := t.requiredType(id, where, "target", s.Target)
		if !ok {
			return nil
		}
		n := 0
		if s.N != nil {
			n = *s.N
		}
		return []build.Node{build.NewPullWorkersOffVespeneUntil(target, n)}

	case KindPublishMessage:
		if s.Message == nil || *s.Message == "" {
			t.fail(id, "%s: message is required", where)
			return nil
		}
		value, err := t.value(s.Value)
		if err != nil {
			t.fail(id, "%s: value: %v", where, err)
			return nil
		}
		return []build.Node{build.NewPublishMessage(*s.Message, value)}
	}

	t.fail(id, "%s: unknown step kind", where)
	return nil
}

// wrapped resolves the target of a wrapping kind: either a type name or a
// single nested step block.
func (t *translator) wrapped(id, where string, s *stepBlock) (build.Node, bool) {
	switch {
	case s.Target != nil && len(s.Inner) == 0:
		target, ok := t.typeName(id, *s.Target)
		return target, ok
	case s.Target == nil && len(s.Inner) == 1:
		nodes := t.step(id, 0, s.Inner[0], true)
		if len(nodes) != 1 {
			return nil, false
		}
		return nodes[0], true
	}
	t.fail(id, "%s: needs either target or exactly one nested step", where)
	return nil, false
}

func (t *translator) requiredType(id, where, attr string, v *string) (build.Target, bool) {
	if v == nil {
		t.fail(id, "%s: %s is required", where, attr)
		return "", false
	}
	return t.typeName(id, *v)
}

func (t *translator) typeName(id, name string) (build.Target, bool) {
	if !gamedata.Known(name) {
		t.fail(id, "unknown type %q", name)
		return "", false
	}
	return build.Target(gamedata.Canonical(name)), true
}

func (t *translator) count(id, where string, n *int) (int, bool) {
	if n == nil {
		t.fail(id, "%s: n is required", where)
		return 0, false
	}
	return *n, true
}

func (t *translator) value(expr hcl.Expression) (any, error) {
	if expr == nil {
		return nil, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	return ctyToNative(v)
}

// findHCLFiles expands directories into their .hcl files. Missing paths are
// an error; the caller asked for them explicitly.
func findHCLFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			files = append(files, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("catalog path %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk catalog dir %s: %w", path, err)
		}
	}
	sort.Strings(files)
	return files, nil
}
