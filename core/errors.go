package core

import (
	"errors"
	"fmt"
)

var (
	// ErrRuntimeUnavailable signals the agent runtime cannot produce or resume
	// a session. Fatal for the request; nothing has been persisted, so the
	// caller may safely retry from scratch.
	ErrRuntimeUnavailable = errors.New("agent runtime unavailable")

	// ErrNotFound is returned when a turn, session or artifact does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied is returned when a record exists but belongs to a
	// different user.
	ErrAccessDenied = errors.New("access denied")
)

// PersistPhase identifies which write a PersistenceError belongs to, since
// the two phases have opposite blast radius (see PersistenceError).
type PersistPhase string

const (
	// PhaseHumanTurn covers the synchronous prompt write before the run.
	PhaseHumanTurn PersistPhase = "human_turn"
	// PhaseAssistantTurn covers the aggregated write after the run.
	PhaseAssistantTurn PersistPhase = "assistant_turn"
)

// PersistenceError wraps a message-store failure. In the human phase it is
// fatal for the request: the agent must not be invoked without a durable
// record of what was asked. In the assistant phase the caller's stream has
// already been delivered; only the durable record is at risk and the failure
// is a reportable inconsistency, not a stream error.
type PersistenceError struct {
	Phase PersistPhase
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure (%s): %v", e.Phase, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceFailure reports whether err is a PersistenceError for the
// given phase.
func IsPersistenceFailure(err error, phase PersistPhase) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Phase == phase
}
