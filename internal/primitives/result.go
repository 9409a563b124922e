package primitives

// TransitionResult reports the outcome of a single send. ActionsExecuted lists
// action names in the exact order they ran: exit, then transition, then entry.
type TransitionResult struct {
	Handled         bool     `json:"handled" yaml:"handled"`
	NewState        string   `json:"newState,omitempty" yaml:"newState,omitempty"`
	ActionsExecuted []string `json:"actionsExecuted" yaml:"actionsExecuted"`
}

// Unhandled is the result for an unmatched event or a failed guard.
func Unhandled() TransitionResult {
	return TransitionResult{ActionsExecuted: []string{}}
}
