package dsl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block of a catalog file.
type fileRoot struct {
	Version string        `hcl:"version"`
	Builds  []*buildBlock `hcl:"build,block"`
	Gates   []*gateBlock  `hcl:"gate,block"`
	Remain  hcl.Body      `hcl:",remain"`
}

type buildBlock struct {
	ID           string           `hcl:"id,label"`
	Stage        string           `hcl:"stage"`
	Next         *string          `hcl:"next,optional"`
	ForceDefault *bool            `hcl:"force_default,optional"`
	Overrides    []*overrideBlock `hcl:"override,block"`
	Steps        []*stepBlock     `hcl:"step,block"`
}

type overrideBlock struct {
	Race string `hcl:"race,label"`
	Next string `hcl:"next"`
}

// stepBlock is one node. A wrapping kind either names its target directly or
// carries exactly one nested step block.
type stepBlock struct {
	Kind      string         `hcl:"kind,label"`
	Target    *string        `hcl:"target,optional"`
	N         *int           `hcl:"n,optional"`
	Condition *string        `hcl:"condition,optional"`
	ForEach   *string        `hcl:"for_each,optional"`
	Message   *string        `hcl:"message,optional"`
	Value     hcl.Expression `hcl:"value,optional"`
	Repeat    *int           `hcl:"repeat,optional"`
	Inner     []*stepBlock   `hcl:"step,block"`
}

type gateBlock struct {
	Target string `hcl:"target,label"`
	When   string `hcl:"when"`
}

// Step kinds accepted in step block labels.
const (
	KindTarget                     = "target"
	KindAtLeast                    = "at_least"
	KindIfHasThenBuild             = "if_has_then_build"
	KindIfHasThenDontBuild         = "if_has_then_dont_build"
	KindOneForEach                 = "one_for_each"
	KindCanAfford                  = "can_afford"
	KindPullWorkersOffVespeneUntil = "pull_workers_off_vespene_until"
	KindPublishMessage             = "publish_message"
)
