package service

// State is the position of a session in the query pipeline.
type State int32

const (
	StateStarting State = iota
	StateIdle
	StateEmbedding
	StateRanking
	StatePrompting
	StateGenerating
	StateFinalizing
	StateErrored
)

var stateNames = [...]string{"starting", "idle", "embedding", "ranking", "prompting", "generating", "finalizing", "errored"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Busy reports whether a question is being answered.
func (s State) Busy() bool {
	return s != StateIdle && s != StateErrored && s != StateStarting
}
