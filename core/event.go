package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ToolCall records a single tool invocation request extracted from a raw
// runtime event. Args is kept opaque; callers that need the payload decode it
// themselves.
type ToolCall struct {
	ID   *string         `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ToolResult records the outcome of a previously requested tool invocation.
// ID matches the originating ToolCall when the runtime supplies one.
type ToolResult struct {
	ID       *string         `json:"id,omitempty"`
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response,omitempty"`
}

// UsageMetadata carries token and cost counters for a single event (or, on a
// finalized turn, the aggregate across all events). All fields are pointers so
// absence can be distinguished from a legitimate zero count.
type UsageMetadata struct {
	PromptTokens   *int64   `json:"prompt_token_count,omitempty"`
	ResponseTokens *int64   `json:"response_token_count,omitempty"`
	TotalTokens    *int64   `json:"total_token_count,omitempty"`
	ModelName      *string  `json:"model_name,omitempty"`
	InvocationID   *string  `json:"invocation_id,omitempty"`
	ProcessingTime *float64 `json:"processing_time,omitempty"`
	CostEstimate   *float64 `json:"cost_estimate,omitempty"`
}

// Add returns the field-wise sum of u and other. Numeric fields are summed
// only when present on at least one side; a field absent on both sides stays
// absent. ModelName and InvocationID are carried from the most recent non-nil
// value since summing them is meaningless.
func (u *UsageMetadata) Add(other *UsageMetadata) *UsageMetadata {
	if other == nil {
		return u
	}
	if u == nil {
		cp := *other
		return &cp
	}
	sum := &UsageMetadata{
		PromptTokens:   addInt64(u.PromptTokens, other.PromptTokens),
		ResponseTokens: addInt64(u.ResponseTokens, other.ResponseTokens),
		TotalTokens:    addInt64(u.TotalTokens, other.TotalTokens),
		ProcessingTime: addFloat64(u.ProcessingTime, other.ProcessingTime),
		CostEstimate:   addFloat64(u.CostEstimate, other.CostEstimate),
		ModelName:      u.ModelName,
		InvocationID:   u.InvocationID,
	}
	if other.ModelName != nil {
		sum.ModelName = other.ModelName
	}
	if other.InvocationID != nil {
		sum.InvocationID = other.InvocationID
	}
	return sum
}

func addInt64(a, b *int64) *int64 {
	if a == nil && b == nil {
		return nil
	}
	var v int64
	if a != nil {
		v += *a
	}
	if b != nil {
		v += *b
	}
	return &v
}

func addFloat64(a, b *float64) *float64 {
	if a == nil && b == nil {
		return nil
	}
	var v float64
	if a != nil {
		v += *a
	}
	if b != nil {
		v += *b
	}
	return &v
}

// AgentEvent is the canonical, versioned record of one atomic unit emitted by
// the agent runtime during an assistant turn. Events are produced by the
// normalizer, sequenced by the aggregator and never mutated afterwards. They
// exist only inside the turn that contains them.
type AgentEvent struct {
	EventID        string         `json:"event_id"`
	SequenceNumber int            `json:"sequence_number"`
	Timestamp      time.Time      `json:"timestamp"`
	Author         string         `json:"author"`
	Content        *string        `json:"content,omitempty"`
	ToolCalls      []ToolCall     `json:"tool_calls,omitempty"`
	ToolResults    []ToolResult   `json:"tool_results,omitempty"`
	Usage          *UsageMetadata `json:"usage_metadata,omitempty"`
	ErrorCode      *string        `json:"error_code,omitempty"`
	ErrorMessage   *string        `json:"error_message,omitempty"`
	Interrupted    *bool          `json:"interrupted,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// HasError reports whether the event carries an upstream agent error. An
// erroneous event marks the containing turn but never stops aggregation.
func (e AgentEvent) HasError() bool { return e.ErrorCode != nil && *e.ErrorCode != "" }

// IsInterrupted reports whether the runtime flagged this event as cutting the
// turn short.
func (e AgentEvent) IsInterrupted() bool { return e.Interrupted != nil && *e.Interrupted }

// Text returns the event's text fragment or "" when none is present.
func (e AgentEvent) Text() string {
	if e.Content == nil {
		return ""
	}
	return *e.Content
}

// NewID generates a unique identifier for events, turns, sessions and
// artifacts.
func NewID() string { return uuid.NewString() }
