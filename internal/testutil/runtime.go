package testutil

import (
	"context"
	"sync"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

// ScriptedRuntime implements core.Runtime by replaying a fixed event script
// per run. It honors the Run contract: events are delivered in order and the
// channels close when the script ends or the context is cancelled.
type ScriptedRuntime struct {
	// Events is the script replayed on every Run call.
	Events []core.RawEvent
	// RunErr, when set, is delivered as the terminal error after the script
	// (abrupt close).
	RunErr error
	// StartErr, when set, is returned by Run immediately.
	StartErr error
	// CreateErr, when set, is returned by CreateSession.
	CreateErr error
	// BlockAfter, when >= 0, stops the script after that many events and
	// blocks until the run context is cancelled (slow-runtime simulation).
	BlockAfter int

	mu       sync.Mutex
	created  []string
	runs     int
	lastRun  string
	lastUser string
}

// NewScriptedRuntime creates a runtime replaying the given events.
func NewScriptedRuntime(events ...core.RawEvent) *ScriptedRuntime {
	return &ScriptedRuntime{Events: events, BlockAfter: -1}
}

// CreateSession records the pair and returns CreateErr.
func (r *ScriptedRuntime) CreateSession(ctx context.Context, userID, runtimeSessionID string) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, userID+"/"+runtimeSessionID)
	return nil
}

// Run replays the script asynchronously.
func (r *ScriptedRuntime) Run(ctx context.Context, userID, runtimeSessionID, prompt string) (<-chan core.RawEvent, <-chan error, error) {
	if r.StartErr != nil {
		return nil, nil, r.StartErr
	}
	r.mu.Lock()
	r.runs++
	r.lastRun = runtimeSessionID
	r.lastUser = userID
	r.mu.Unlock()

	events := make(chan core.RawEvent)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(events)
		for i, ev := range r.Events {
			if r.BlockAfter >= 0 && i == r.BlockAfter {
				<-ctx.Done()
				errs <- ctx.Err()
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if r.RunErr != nil {
			errs <- r.RunErr
		}
	}()
	return events, errs, nil
}

// CreateCalls returns how many times CreateSession succeeded.
func (r *ScriptedRuntime) CreateCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created)
}

// Runs returns how many runs were started.
func (r *ScriptedRuntime) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

var _ core.Runtime = (*ScriptedRuntime)(nil)
