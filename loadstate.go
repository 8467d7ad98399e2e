package viewbridge

// loadState is the per-slot content-load state. A slot is caller-visibly
// ready exactly when its state is stateReady.
type loadState int

const (
	stateReady loadState = iota
	statePriming
	stateBinding
)

func (s loadState) String() string {
	switch s {
	case stateReady:
		return "ready"
	case statePriming:
		return "priming"
	case stateBinding:
		return "binding"
	}
	return "unknown"
}

// Tick thresholds. The engine needs a few processing cycles after surface
// creation before it accepts content, and a few more after each load
// before its script context is safe to touch.
const (
	primingTicks = 2
	bindingTicks = 3
)

// loadAction tells the tick handler what engine work a state transition
// requires.
type loadAction int

const (
	actionNone           loadAction = iota
	actionIssueLoad                 // issue the deferred load, enter binding
	actionInstallBinding            // render and attempt bindings, enter ready
)

// advanceLoadState advances one slot's load state by one tick. Pure
// function of (state, ticks); the caller performs the returned action
// against the engine.
func advanceLoadState(state loadState, ticks int) (loadState, int, loadAction) {
	switch state {
	case statePriming:
		if ticks+1 >= primingTicks {
			return stateBinding, 0, actionIssueLoad
		}
		return statePriming, ticks + 1, actionNone
	case stateBinding:
		if ticks+1 >= bindingTicks {
			return stateReady, 0, actionInstallBinding
		}
		return stateBinding, ticks + 1, actionNone
	default:
		return stateReady, 0, actionNone
	}
}
