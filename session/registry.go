package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/logging"
)

// Registry tracks which (userID, sessionID) pairs already have a session
// inside the agent runtime, creating one on first use. Ensure is idempotent
// and safe for concurrent use: concurrent callers for the same pair serialize
// on a single creation, and a failed creation leaves the pair absent so a
// later call retries.
type Registry struct {
	runtime core.Runtime
	logger  *logging.RunLogger

	mu      sync.Mutex
	entries map[registryKey]*registryEntry
}

type registryKey struct {
	userID    string
	sessionID string
}

// registryEntry serializes creation for one key. ready is set under mu once
// the runtime session exists.
type registryEntry struct {
	creating sync.Mutex
	ready    bool
}

// NewRegistry creates an empty registry over the given runtime.
func NewRegistry(runtime core.Runtime, logger logging.Logger) *Registry {
	return &Registry{
		runtime: runtime,
		logger:  logging.NewRunLogger(logger, "session_registry"),
		entries: map[registryKey]*registryEntry{},
	}
}

// Ensure guarantees the runtime session for (userID, sessionID) exists. The
// first call per pair creates it; later calls return immediately. A creation
// failure is reported as core.ErrRuntimeUnavailable and forgotten, so the
// pair stays retryable.
func (r *Registry) Ensure(ctx context.Context, userID, sessionID string) error {
	key := registryKey{userID: userID, sessionID: sessionID}

	r.mu.Lock()
	entry, ok := r.entries[key]
	if !ok {
		entry = &registryEntry{}
		r.entries[key] = entry
	}
	r.mu.Unlock()

	entry.creating.Lock()
	defer entry.creating.Unlock()

	r.mu.Lock()
	ready := entry.ready
	r.mu.Unlock()
	if ready {
		return nil
	}

	if err := r.runtime.CreateSession(ctx, userID, sessionID); err != nil {
		r.mu.Lock()
		// Drop the failed entry only if no later call replaced it.
		if r.entries[key] == entry {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		r.logger.WithSession(sessionID, userID).Error("runtime session creation failed", "error", err.Error())
		return fmt.Errorf("%w: %v", core.ErrRuntimeUnavailable, err)
	}

	r.mu.Lock()
	entry.ready = true
	r.mu.Unlock()
	r.logger.WithSession(sessionID, userID).Debug("runtime session created")
	return nil
}

// Known reports whether the pair has a live runtime session without creating
// one.
func (r *Registry) Known(userID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[registryKey{userID: userID, sessionID: sessionID}]
	return ok && entry.ready
}

// Drop forgets the pair so the next Ensure recreates the runtime session.
// Used when the backing chat session is deleted.
func (r *Registry) Drop(userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, registryKey{userID: userID, sessionID: sessionID})
}
