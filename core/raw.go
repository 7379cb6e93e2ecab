package core

import "time"

// RawEvent is the agent runtime's native event shape as delivered over the
// Run stream, before normalization. Every field besides Author is optional;
// the normalizer performs a total, best-effort extraction and never rejects a
// raw event. After emission a RawEvent should be treated as immutable.
type RawEvent struct {
	ID           string    `json:"id,omitempty"`
	InvocationID string    `json:"invocation_id,omitempty"`
	Author       string    `json:"author,omitempty"`
	Timestamp    time.Time `json:"timestamp,omitzero"`
	Content      *Content  `json:"content,omitempty"`
	Usage        *RawUsage `json:"usage_metadata,omitempty"`
	ErrorCode    *string   `json:"error_code,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	Interrupted  *bool     `json:"interrupted,omitempty"`
	Partial      *bool     `json:"partial,omitempty"`
	TurnComplete *bool     `json:"turn_complete,omitempty"`
}

// RawUsage is the runtime's token accounting for a single event. Pointer
// fields distinguish "not reported" from a zero count.
type RawUsage struct {
	PromptTokens   *int64  `json:"prompt_token_count,omitempty"`
	ResponseTokens *int64  `json:"response_token_count,omitempty"`
	TotalTokens    *int64  `json:"total_token_count,omitempty"`
	ModelName      *string `json:"model_name,omitempty"`
}

// Content holds a role plus ordered heterogeneous parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text     string
	Metadata map[string]any
}

func (TextPart) isPart() {}

// DataPart is a structured data segment (e.g. a chart payload).
type DataPart struct {
	Data     map[string]any
	Metadata map[string]any
}

func (DataPart) isPart() {}

// FunctionCall describes a tool invocation request. Arguments is a serialized
// JSON payload as produced by the runtime.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall
	Metadata     map[string]any
}

func (FunctionCallPart) isPart() {}

// FunctionResponse describes the outcome of a function call. ID matches the
// originating FunctionCall when known.
type FunctionResponse struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
	Metadata         map[string]any
}

func (FunctionResponsePart) isPart() {}

// NewRawEvent creates a bare raw event authored by author bound to an
// invocation, stamped with a fresh id and the current UTC time.
func NewRawEvent(invocationID, author string) RawEvent {
	return RawEvent{
		ID:           NewID(),
		InvocationID: invocationID,
		Author:       author,
		Timestamp:    time.Now().UTC(),
	}
}

// NewTextRawEvent creates an assistant text event.
func NewTextRawEvent(invocationID, author, text string) RawEvent {
	ev := NewRawEvent(invocationID, author)
	ev.Content = &Content{Role: "assistant", Parts: []Part{TextPart{Text: text}}}
	return ev
}

// NewFunctionCallRawEvent creates an event carrying a single tool invocation
// request.
func NewFunctionCallRawEvent(invocationID, author string, call FunctionCall) RawEvent {
	ev := NewRawEvent(invocationID, author)
	ev.Content = &Content{Role: "assistant", Parts: []Part{FunctionCallPart{FunctionCall: call}}}
	return ev
}

// NewFunctionResponseRawEvent creates an event carrying a single tool result.
// If err is non-nil its message is copied into the response's Error field.
func NewFunctionResponseRawEvent(invocationID, author string, resp FunctionResponse, err error) RawEvent {
	if err != nil {
		resp.Error = err.Error()
	}
	ev := NewRawEvent(invocationID, author)
	ev.Content = &Content{Role: "tool", Parts: []Part{FunctionResponsePart{FunctionResponse: resp}}}
	return ev
}

// NewErrorRawEvent creates an event carrying an upstream agent error. Error
// events are recorded on the turn but never stop the stream.
func NewErrorRawEvent(invocationID, author, code, message string) RawEvent {
	ev := NewRawEvent(invocationID, author)
	ev.ErrorCode = &code
	ev.ErrorMessage = &message
	return ev
}

// GetFunctionCalls returns any FunctionCall parts contained within the event
// content, preserving their original order.
func (e RawEvent) GetFunctionCalls() []FunctionCall {
	if e.Content == nil {
		return nil
	}
	var calls []FunctionCall
	for _, p := range e.Content.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// GetFunctionResponses returns any FunctionResponse parts contained within the
// event content, preserving their original order.
func (e RawEvent) GetFunctionResponses() []FunctionResponse {
	if e.Content == nil {
		return nil
	}
	var responses []FunctionResponse
	for _, p := range e.Content.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			responses = append(responses, fr.FunctionResponse)
		}
	}
	return responses
}

// IsPartial reports whether this raw event is a streaming fragment that will
// be followed by further events composing the same content block.
func (e RawEvent) IsPartial() bool { return e.Partial != nil && *e.Partial }
