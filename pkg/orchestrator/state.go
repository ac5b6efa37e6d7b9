package orchestrator

import "fmt"

// States of a run, in the order they're entered. StateFailed can follow any
// non-terminal state.
const (
	// StateIdle is the state before anything has touched the server.
	StateIdle State = "idle"
	// StateSchemaEnsured is entered once schema_versions exists.
	StateSchemaEnsured State = "schema_ensured"
	// StateReconciled is entered once history has been checked against the
	// scripts on disk.
	StateReconciled State = "reconciled"
	// StateApplying is entered once per pending script.
	StateApplying State = "applying"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

type (
	// State is a step of a migration run.
	State string

	// Transition records entering a state. Version is set for StateApplying.
	Transition struct {
		State   State
		Version int
	}
)

// Terminal reports whether no further transitions can follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

func (t Transition) String() string {
	if t.State == StateApplying {
		return fmt.Sprintf("%s(%d)", t.State, t.Version)
	}
	return string(t.State)
}
