package toolchain

import "fmt"

// State is the position of one Compile invocation.
type State string

const (
	StateIdle                State = "Idle"
	StateScriptPrepared      State = "ScriptPrepared"
	StateChildProcessRunning State = "ChildProcessRunning"
	StateChildProcessExited  State = "ChildProcessExited"
	StateArtifactsVerified   State = "ArtifactsVerified"
	StateArtifactRead        State = "ArtifactRead"

	StateScriptMissing          State = "ScriptMissing"
	StateIntermediateMissing    State = "IntermediateMissing"
	StateResourceCompileMissing State = "ResourceCompileMissing"
	StateLinkMissing            State = "LinkMissing"
)

// IsTerminal reports whether no further transition is possible.
func IsTerminal(s State) bool {
	switch s {
	case StateArtifactRead, StateScriptMissing, StateIntermediateMissing, StateResourceCompileMissing, StateLinkMissing:
		return true
	default:
		return false
	}
}

// IsFailure reports whether s is a terminal failure state.
func IsFailure(s State) bool {
	return IsTerminal(s) && s != StateArtifactRead
}

// Transition validates a move from one state to another.
func Transition(from, to State) error {
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed toolchain transition: %s -> %s", from, to)
	}
	return nil
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateScriptPrepared || to == StateScriptMissing
	case StateScriptPrepared:
		return to == StateChildProcessRunning || to == StateScriptMissing
	case StateChildProcessRunning:
		return to == StateChildProcessExited || to == StateScriptMissing
	case StateChildProcessExited:
		return to == StateArtifactsVerified || to == StateIntermediateMissing ||
			to == StateResourceCompileMissing || to == StateLinkMissing
	case StateArtifactsVerified:
		return to == StateArtifactRead || to == StateLinkMissing
	default:
		return false
	}
}

// failureState maps a stage to its terminal state.
func failureState(stage Stage) State {
	switch stage {
	case StageMarkup:
		return StateIntermediateMissing
	case StageResource:
		return StateResourceCompileMissing
	case StageLink:
		return StateLinkMissing
	default:
		return StateScriptMissing
	}
}
