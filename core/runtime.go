package core

import "context"

// Runtime is the backend's boundary to the external agent-orchestration
// engine. The engine owns conversational memory keyed by runtime session id;
// the backend never inspects that state, it only ensures a session exists and
// drives runs.
//
// Semantics and guarantees:
//   - CreateSession is idempotent per (userID, runtimeSessionID) pair.
//   - Run starts an asynchronous agent execution. The returned event channel
//     delivers raw events in production order and is closed when the run ends
//     (success, internal error, or cancellation). The error channel carries at
//     most one terminal error then closes; a terminal error means the stream
//     was cut short without an explicit interruption flag.
//   - A run may emit zero events then close.
//   - The immediate error return covers startup failures only (unknown
//     session, engine unreachable).
type Runtime interface {
	CreateSession(ctx context.Context, userID, runtimeSessionID string) error
	Run(ctx context.Context, userID, runtimeSessionID, prompt string) (<-chan RawEvent, <-chan error, error)
}
