package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/logging"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/session"
)

// SessionEnsurer guarantees that a runtime session exists for the given user
// and chat session before a run starts. session.Registry is the standard
// implementation.
type SessionEnsurer interface {
	Ensure(ctx context.Context, userID, sessionID string) error
}

// Options configure a Runner.
type Options struct {
	// Registry ensures runtime sessions. Defaults to a fresh session.Registry
	// over the Runner's runtime.
	Registry SessionEnsurer
	// Logger receives pipeline logs. Defaults to NoOpLogger.
	Logger logging.Logger
	// WriteTimeout bounds how long a dispatched frame may wait for the caller
	// before the run is cancelled. Zero disables the timeout.
	WriteTimeout time.Duration
}

// Runner orchestrates one user message end to end: ensure the runtime
// session, persist the prompt, drive the agent run while streaming each event
// to the caller, then persist the aggregated assistant turn.
type Runner struct {
	runtime      core.Runtime
	store        core.MessageStore
	registry     SessionEnsurer
	logger       logging.Logger
	writeTimeout time.Duration
}

// New creates a Runner over the given agent runtime and message store.
func New(runtime core.Runtime, store core.MessageStore, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		opts.Registry = session.NewRegistry(runtime, opts.Logger)
	}
	return &Runner{
		runtime:      runtime,
		store:        store,
		registry:     opts.Registry,
		logger:       opts.Logger,
		writeTimeout: opts.WriteTimeout,
	}
}

// ProcessMessage runs one user message through the pipeline.
//
// Failures before the agent run starts (session ensure, human-turn persist,
// runtime startup) are returned immediately with nil channels; nothing has
// been streamed and, except for the persisted prompt, nothing has changed.
// Once the run starts, the frames channel carries one JSON object per agent
// event in sequence order, then a single {"done": true} sentinel, then
// closes. The error channel reports at most one post-stream failure (the
// assistant-turn persist) and closes with the frames channel.
//
// The frames channel is unbuffered. A caller that stops reading stalls the
// pipeline; after WriteTimeout the run is cancelled, but the events received
// up to that point are still aggregated and persisted as a partial turn.
func (r *Runner) ProcessMessage(ctx context.Context, userID, sessionID, content string) (<-chan json.RawMessage, <-chan error, error) {
	runID := core.NewID()
	log := logging.NewRunLogger(r.logger, "runner").WithSession(sessionID, userID).WithRun(runID)
	phases := newPhaseTracker(log)
	p := &persister{store: r.store, logger: log}

	phases.advance(PhaseSessionEnsuring)
	if err := r.registry.Ensure(ctx, userID, sessionID); err != nil {
		phases.fail()
		return nil, nil, err
	}

	phases.advance(PhaseHumanPersisting)
	humanTurn, err := p.persistHuman(ctx, sessionID, userID, content)
	if err != nil {
		phases.fail()
		return nil, nil, err
	}

	phases.advance(PhaseAgentStreaming)
	runCtx, cancel := context.WithCancel(ctx)
	events, runErrs, err := r.runtime.Run(runCtx, userID, sessionID, content)
	if err != nil {
		cancel()
		phases.fail()
		return nil, nil, fmt.Errorf("%w: %v", core.ErrRuntimeUnavailable, err)
	}

	frames := make(chan json.RawMessage)
	errCh := make(chan error, 1)

	go r.drive(ctx, cancel, driveState{
		sessionID: sessionID,
		userID:    userID,
		runID:     runID,
		parentID:  humanTurn.ID,
		events:    events,
		runErrs:   runErrs,
		frames:    frames,
		errCh:     errCh,
		phases:    phases,
		persist:   p,
		logger:    log,
	})

	return frames, errCh, nil
}

type driveState struct {
	sessionID string
	userID    string
	runID     string
	parentID  string
	events    <-chan core.RawEvent
	runErrs   <-chan error
	frames    chan<- json.RawMessage
	errCh     chan<- error
	phases    *phaseTracker
	persist   *persister
	logger    *logging.RunLogger
}

// drive consumes the raw event stream to completion. Each event is normalized,
// appended to the turn and dispatched before the next one is read, so frame
// order, sequence numbers and storage order are all the same order.
func (r *Runner) drive(ctx context.Context, cancel context.CancelFunc, st driveState) {
	defer cancel()
	defer close(st.errCh)
	defer close(st.frames)

	builder := NewTurnBuilder(st.sessionID, st.userID, func(o *TurnBuilderOptions) {
		o.ParentTurnID = st.parentID
		o.Metadata = map[string]any{
			"run_id":             st.runID,
			"runtime_session_id": st.sessionID,
		}
	})
	disp := newDispatcher(st.frames, ctx.Done(), r.writeTimeout, cancel, st.logger)

	for raw := range st.events {
		ev := builder.Append(Normalize(raw))
		disp.dispatch(ev)
	}

	// The runtime closes the error channel after the event channel; a value
	// here means the stream was cut short without an interrupted event.
	aborted := false
	if err, ok := <-st.runErrs; ok && err != nil {
		aborted = true
		st.logger.Warn("agent run ended abnormally",
			"error", err.Error(),
			"events_aggregated", builder.Len(),
		)
	}
	if disp.stalled {
		aborted = true
	}

	st.phases.advance(PhaseFinalizing)
	turn := builder.Finalize(aborted)

	// The caller may be gone; the durable write still has to happen.
	stored, err := st.persist.persistAssistant(context.WithoutCancel(ctx), turn)
	if err != nil {
		st.errCh <- err
		st.phases.fail()
	} else {
		st.phases.advance(PhaseDone)
		st.logger.Info("message run completed",
			"turn_id", stored.ID,
			"event_count", len(stored.Events),
			"processing_complete", stored.ProcessingComplete,
			"has_errors", stored.HasErrors,
		)
	}

	disp.dispatchSentinel()
}

// ProcessMessageSync runs ProcessMessage and collects the full frame stream.
// It returns the frames (sentinel included) and any post-stream error.
func (r *Runner) ProcessMessageSync(ctx context.Context, userID, sessionID, content string) ([]json.RawMessage, error) {
	frames, errCh, err := r.ProcessMessage(ctx, userID, sessionID, content)
	if err != nil {
		return nil, err
	}
	var out []json.RawMessage
	for frame := range frames {
		out = append(out, frame)
	}
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return out, errors.Join(errs...)
}
