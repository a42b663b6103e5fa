package workflow

// Phase is the discrete workflow state. Exactly one phase is active at
// a time; the presentation layer renders whatever surface the current
// phase calls for.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGenerating
	PhasePreviewing
	PhaseRefining
	PhaseFinalizing
	PhaseDownloaded
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseGenerating:
		return "generating"
	case PhasePreviewing:
		return "previewing"
	case PhaseRefining:
		return "refining"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseDownloaded:
		return "downloaded"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}
