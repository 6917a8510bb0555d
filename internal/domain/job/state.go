package job

// State is a step of the ranking state machine.
type State string

// Ranking states, in pipeline order. Failed is reachable from any non-terminal state.
const (
	StateValidating           State = "validating"
	StateExtractingReference  State = "extracting_reference"
	StateExtractingCandidates State = "extracting_candidates"
	StateEmbedding            State = "embedding"
	StateRanking              State = "ranking"
	StateComplete             State = "complete"
	StateFailed               State = "failed"
)

var next = map[State]State{
	StateValidating:           StateExtractingReference,
	StateExtractingReference:  StateExtractingCandidates,
	StateExtractingCandidates: StateEmbedding,
	StateEmbedding:            StateRanking,
	StateRanking:              StateComplete,
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// CanTransition reports whether s -> to is a legal step.
func (s State) CanTransition(to State) bool {
	if s.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return next[s] == to
}

// Stable user-visible failure reasons.
const (
	ReasonEmptyReference    = "empty or invalid job description"
	ReasonNoValidCandidates = "no valid CV texts extracted"
	ReasonEmbedding         = "embedding service unavailable"
	ReasonInternal          = "internal ranking error"
)
