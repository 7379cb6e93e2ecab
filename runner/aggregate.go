package runner

import (
	"time"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

// TurnBuilder accumulates the ordered event sequence of one assistant turn
// and maintains the turn-level derived fields incrementally. It assigns
// sequence numbers in arrival order starting at 1; that ordering, not the
// advisory wall-clock timestamps, is the authoritative event order in storage.
//
// A builder belongs to a single pipeline goroutine and is not safe for
// concurrent use.
type TurnBuilder struct {
	sessionID    string
	userID       string
	parentTurnID *string
	metadata     map[string]any

	events       []core.AgentEvent
	authors      []string
	authorSeen   map[string]struct{}
	usage        *core.UsageMetadata
	hasErrors    bool
	errorSummary map[string]core.TurnError

	started   time.Time
	finalized *core.ConversationTurn
}

// TurnBuilderOptions configure a TurnBuilder.
type TurnBuilderOptions struct {
	// ParentTurnID links the assistant turn back to the human turn it answers.
	ParentTurnID string
	// Metadata is stored verbatim on the finalized turn (runtime session id,
	// app name and similar correlation keys).
	Metadata map[string]any
}

// NewTurnBuilder creates an empty builder for an assistant turn in the given
// session.
func NewTurnBuilder(sessionID, userID string, optFns ...func(o *TurnBuilderOptions)) *TurnBuilder {
	opts := TurnBuilderOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	b := &TurnBuilder{
		sessionID:  sessionID,
		userID:     userID,
		metadata:   opts.Metadata,
		authorSeen: map[string]struct{}{},
		started:    time.Now().UTC(),
	}
	if opts.ParentTurnID != "" {
		id := opts.ParentTurnID
		b.parentTurnID = &id
	}
	return b
}

// Append records the event as the next in the turn, assigns its sequence
// number and updates the derived fields. The stamped event is returned so the
// dispatcher forwards exactly what will be persisted. Append panics if called
// after Finalize; the events list is frozen once the stream has ended.
func (b *TurnBuilder) Append(ev core.AgentEvent) core.AgentEvent {
	if b.finalized != nil {
		panic("runner: append to finalized turn")
	}

	ev.SequenceNumber = len(b.events) + 1
	b.events = append(b.events, ev)

	if _, seen := b.authorSeen[ev.Author]; !seen {
		b.authorSeen[ev.Author] = struct{}{}
		b.authors = append(b.authors, ev.Author)
	}

	b.usage = b.usage.Add(ev.Usage)

	if ev.HasError() {
		// hasErrors is sticky: once set it is never reset, and an error event
		// does not stop aggregation of subsequent events.
		b.hasErrors = true
		if b.errorSummary == nil {
			b.errorSummary = map[string]core.TurnError{}
		}
		b.errorSummary[ev.EventID] = core.TurnError{Code: *ev.ErrorCode, Message: ev.ErrorMessage}
	}

	return ev
}

// Len returns the number of events appended so far.
func (b *TurnBuilder) Len() int { return len(b.events) }

// Finalize freezes the turn when the underlying event stream ends, normally
// or abnormally. aborted reports that the stream was cut short from outside
// the event sequence (abrupt runtime close, caller disconnect, write
// timeout); in that case, or when the last event carries the interrupted
// flag, ProcessingComplete stays false. Partial turns are finalized and
// persisted, never discarded.
//
// Finalize is idempotent; repeated calls return the same turn.
func (b *TurnBuilder) Finalize(aborted bool) *core.ConversationTurn {
	if b.finalized != nil {
		return b.finalized
	}

	complete := !aborted
	if n := len(b.events); n > 0 && b.events[n-1].IsInterrupted() {
		complete = false
	}

	now := time.Now().UTC()
	b.finalized = &core.ConversationTurn{
		ID:                 core.NewID(),
		SessionID:          b.sessionID,
		UserID:             b.userID,
		Role:               core.RoleAssistant,
		Events:             b.events,
		ParentTurnID:       b.parentTurnID,
		Authors:            b.authors,
		AggregateUsage:     b.usage,
		HasErrors:          b.hasErrors,
		ErrorSummary:       b.errorSummary,
		ProcessingComplete: complete,
		Metadata:           b.metadata,
		CreatedAt:          b.started,
		UpdatedAt:          now,
	}
	return b.finalized
}
