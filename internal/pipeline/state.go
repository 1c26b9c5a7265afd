package pipeline

// Step names one checkpointed unit of work.
type Step string

const (
	StepTranscribe      Step = "transcribe"
	StepFetchContext    Step = "fetch-context"
	StepGenerateContent Step = "generate-content"
	StepGenerateImages  Step = "generate-images"
	StepPersist         Step = "persist"
)

// Steps lists every step in execution order.
var Steps = []Step{
	StepTranscribe,
	StepFetchContext,
	StepGenerateContent,
	StepGenerateImages,
	StepPersist,
}

// State is the orchestrator's position in the run.
type State string

const (
	StateCreated          State = "Created"
	StateTranscribing     State = "Transcribing"
	StateContextLoaded    State = "ContextLoaded"
	StateContentGenerated State = "ContentGenerated"
	StateImagesResolved   State = "ImagesResolved"
	StatePersisted        State = "Persisted"
	StateFailed           State = "Failed"
)

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StatePersisted || s == StateFailed
}

// completedState is the state a run is in once step has been checkpointed.
// transcribe runs inside Transcribing and does not advance the state itself.
func (s Step) completedState() State {
	switch s {
	case StepTranscribe:
		return StateTranscribing
	case StepFetchContext:
		return StateContextLoaded
	case StepGenerateContent:
		return StateContentGenerated
	case StepGenerateImages:
		return StateImagesResolved
	case StepPersist:
		return StatePersisted
	default:
		return StateFailed
	}
}

// ResumeState returns the state implied by the set of checkpointed steps.
func ResumeState(done map[Step]bool) State {
	state := StateTranscribing
	for _, step := range Steps {
		if !done[step] {
			break
		}
		state = step.completedState()
	}
	return state
}

// transitionAllowed enforces the forward-only order plus Failed from any
// non-terminal state.
func transitionAllowed(from, to State) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	order := []State{StateCreated, StateTranscribing, StateContextLoaded, StateContentGenerated, StateImagesResolved, StatePersisted}
	fromIdx, toIdx := -1, -1
	for i, s := range order {
		if s == from {
			fromIdx = i
		}
		if s == to {
			toIdx = i
		}
	}
	return fromIdx >= 0 && toIdx >= fromIdx
}
