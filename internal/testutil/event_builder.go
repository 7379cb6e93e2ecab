package testutil

import (
	"time"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

// RawEventBuilder provides a fluent helper for constructing raw runtime
// events in tests. Example:
//
//	ev := NewRawEventBuilder().Author("root_agent").Text("hello").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type RawEventBuilder struct {
	id            string
	invocationID  string
	author        string
	timestamp     time.Time
	role          string
	textParts     []string
	funcCalls     []core.FunctionCall
	funcResponses []core.FunctionResponse
	usage         *core.RawUsage
	errorCode     *string
	errorMessage  *string
	interrupted   *bool
	partial       *bool
	turnComplete  *bool
}

// NewRawEventBuilder creates a builder with default author "root_agent".
func NewRawEventBuilder() *RawEventBuilder { return &RawEventBuilder{author: "root_agent"} }

// ID overrides the auto-generated event id (chainable).
func (b *RawEventBuilder) ID(id string) *RawEventBuilder { b.id = id; return b }

// NoID clears the event id so normalization must mint one (chainable).
func (b *RawEventBuilder) NoID() *RawEventBuilder { b.id = ""; return b }

// Invocation sets the invocation id (chainable).
func (b *RawEventBuilder) Invocation(id string) *RawEventBuilder { b.invocationID = id; return b }

// Author sets the author name; empty is allowed to exercise the fallback
// (chainable).
func (b *RawEventBuilder) Author(a string) *RawEventBuilder { b.author = a; return b }

// At sets the event timestamp (chainable).
func (b *RawEventBuilder) At(ts time.Time) *RawEventBuilder { b.timestamp = ts; return b }

// Text appends a text part (chainable).
func (b *RawEventBuilder) Text(t string) *RawEventBuilder {
	b.textParts = append(b.textParts, t)
	return b
}

// Role sets the content role (chainable). Defaults to "assistant" when parts
// are present.
func (b *RawEventBuilder) Role(r string) *RawEventBuilder { b.role = r; return b }

// FunctionCall adds a tool invocation part with a JSON argument string
// (chainable).
func (b *RawEventBuilder) FunctionCall(id, name, args string) *RawEventBuilder {
	b.funcCalls = append(b.funcCalls, core.FunctionCall{ID: id, Name: name, Arguments: args})
	return b
}

// FunctionResponse adds a tool result part (chainable).
func (b *RawEventBuilder) FunctionResponse(id, name string, result any, err error) *RawEventBuilder {
	fr := core.FunctionResponse{ID: id, Name: name, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	b.funcResponses = append(b.funcResponses, fr)
	return b
}

// Usage sets token counts (chainable). Pass negative values to leave a count
// unreported.
func (b *RawEventBuilder) Usage(prompt, response, total int64) *RawEventBuilder {
	u := &core.RawUsage{}
	if prompt >= 0 {
		u.PromptTokens = &prompt
	}
	if response >= 0 {
		u.ResponseTokens = &response
	}
	if total >= 0 {
		u.TotalTokens = &total
	}
	b.usage = u
	return b
}

// Model sets the usage model name (chainable).
func (b *RawEventBuilder) Model(name string) *RawEventBuilder {
	if b.usage == nil {
		b.usage = &core.RawUsage{}
	}
	b.usage.ModelName = &name
	return b
}

// Error marks the event as erroneous (chainable).
func (b *RawEventBuilder) Error(code, message string) *RawEventBuilder {
	b.errorCode = &code
	if message != "" {
		b.errorMessage = &message
	}
	return b
}

// Interrupted sets the interrupted flag (chainable).
func (b *RawEventBuilder) Interrupted(v bool) *RawEventBuilder { b.interrupted = &v; return b }

// Partial marks the event as a streaming fragment (chainable).
func (b *RawEventBuilder) Partial(v bool) *RawEventBuilder { b.partial = &v; return b }

// TurnComplete sets the turn completion flag (chainable).
func (b *RawEventBuilder) TurnComplete(v bool) *RawEventBuilder { b.turnComplete = &v; return b }

// Build constructs the core.RawEvent value.
func (b *RawEventBuilder) Build() core.RawEvent {
	ev := core.RawEvent{
		ID:           b.id,
		InvocationID: b.invocationID,
		Author:       b.author,
		Timestamp:    b.timestamp,
		Usage:        b.usage,
		ErrorCode:    b.errorCode,
		ErrorMessage: b.errorMessage,
		Interrupted:  b.interrupted,
		Partial:      b.partial,
		TurnComplete: b.turnComplete,
	}

	parts := make([]core.Part, 0, len(b.textParts)+len(b.funcCalls)+len(b.funcResponses))
	for _, t := range b.textParts {
		parts = append(parts, core.TextPart{Text: t})
	}
	for _, fc := range b.funcCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}
	for _, fr := range b.funcResponses {
		parts = append(parts, core.FunctionResponsePart{FunctionResponse: fr})
	}
	if len(parts) > 0 {
		role := b.role
		if role == "" {
			role = "assistant"
		}
		ev.Content = &core.Content{Role: role, Parts: parts}
	}
	return ev
}
