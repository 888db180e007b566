package resolver

import (
	"fmt"

	"github.com/nstehr/vimy/vimy-zerg/build"
)

type EffectKind int

const (
	// EffectPublish asks for Message/Value to go out on the bus.
	EffectPublish EffectKind = iota
	// EffectStageTransition records that the active stage moved from Prev to Stage.
	EffectStageTransition
	// EffectPromoteDefault asks the stack to replace the build in slot Stage
	// with its default-next build.
	EffectPromoteDefault
	// EffectPlanSwitched reports that Build replaced From in slot Stage.
	EffectPlanSwitched
)

func (k EffectKind) String() string {
	switch k {
	case EffectPublish:
		return "publish"
	case EffectStageTransition:
		return "stage_transition"
	case EffectPromoteDefault:
		return "promote_default"
	case EffectPlanSwitched:
		return "plan_switched"
	}
	return fmt.Sprintf("effect(%d)", int(k))
}

// Effect is a side effect produced during resolution or by the stack. The
// resolver never performs them; the planner does.
type Effect struct {
	Kind    EffectKind
	Message string
	Value   any
	Stage   build.Stage
	Prev    build.Stage
	Build   build.BuildID
	From    build.BuildID
}

func (e Effect) String() string {
	switch e.Kind {
	case EffectPublish:
		return fmt.Sprintf("publish %s=%v", e.Message, e.Value)
	case EffectStageTransition:
		return fmt.Sprintf("stage %s -> %s", e.Prev, e.Stage)
	case EffectPromoteDefault:
		return fmt.Sprintf("promote default of %s (%s)", e.Build, e.Stage)
	case EffectPlanSwitched:
		return fmt.Sprintf("switched %s: %s -> %s", e.Stage, e.From, e.Build)
	}
	return e.Kind.String()
}

func publish(msg string, value any) Effect {
	return Effect{Kind: EffectPublish, Message: msg, Value: value}
}
