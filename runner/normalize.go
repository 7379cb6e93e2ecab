package runner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

// UnknownAuthor is substituted when a raw event does not name its producer.
// A missing author never fails the pipeline.
const UnknownAuthor = "unknown_agent"

// Normalize converts one raw runtime event into its canonical AgentEvent
// record. The mapping is total: every RawEvent, including the zero value,
// yields a valid event. Missing fields become nil/absent, they are never
// zero-filled, and tool calls/results are never dropped.
//
// The canonical id rule: use the runtime-supplied id when non-empty, else
// generate a fresh one. SequenceNumber is left unset; the aggregator assigns
// it in arrival order.
func Normalize(raw core.RawEvent) core.AgentEvent {
	ev := core.AgentEvent{
		EventID:      raw.ID,
		Author:       raw.Author,
		Timestamp:    raw.Timestamp,
		ErrorCode:    raw.ErrorCode,
		ErrorMessage: raw.ErrorMessage,
		Interrupted:  raw.Interrupted,
	}
	if ev.EventID == "" {
		ev.EventID = core.NewID()
	}
	if ev.Author == "" {
		ev.Author = UnknownAuthor
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	if text := collectText(raw.Content); text != "" {
		ev.Content = &text
	}
	ev.ToolCalls = collectToolCalls(raw)
	ev.ToolResults = collectToolResults(raw)
	ev.Usage = normalizeUsage(raw)
	ev.Metadata = eventMetadata(raw)

	return ev
}

// collectText concatenates all text-bearing parts in order. No separator is
// added beyond what the fragments already contain.
func collectText(content *core.Content) string {
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range content.Parts {
		if tp, ok := p.(core.TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

func collectToolCalls(raw core.RawEvent) []core.ToolCall {
	var calls []core.ToolCall
	for _, fc := range raw.GetFunctionCalls() {
		call := core.ToolCall{Name: fc.Name, Args: toRawJSON(fc.Arguments)}
		if fc.ID != "" {
			id := fc.ID
			call.ID = &id
		}
		calls = append(calls, call)
	}
	return calls
}

func collectToolResults(raw core.RawEvent) []core.ToolResult {
	var results []core.ToolResult
	for _, fr := range raw.GetFunctionResponses() {
		result := core.ToolResult{Name: fr.Name, Response: marshalOpaque(fr.Response)}
		if fr.ID != "" {
			id := fr.ID
			result.ID = &id
		}
		if fr.Error != "" && result.Response == nil {
			result.Response = marshalOpaque(map[string]any{"error": fr.Error})
		}
		results = append(results, result)
	}
	return results
}

// toRawJSON passes serialized arguments through verbatim when they already
// form valid JSON, otherwise wraps them as a JSON string so nothing is lost.
func toRawJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	quoted, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return quoted
}

// marshalOpaque serializes an arbitrary payload, degrading to a string
// rendering when the value does not marshal. Extraction must stay total.
func marshalOpaque(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw
	}
	data, err := json.Marshal(v)
	if err != nil {
		// Unmarshalable payloads degrade to their string rendering.
		data, _ = json.Marshal(fmt.Sprint(v))
	}
	return data
}

func normalizeUsage(raw core.RawEvent) *core.UsageMetadata {
	if raw.Usage == nil {
		return nil
	}
	usage := &core.UsageMetadata{
		PromptTokens:   raw.Usage.PromptTokens,
		ResponseTokens: raw.Usage.ResponseTokens,
		TotalTokens:    raw.Usage.TotalTokens,
		ModelName:      raw.Usage.ModelName,
	}
	if raw.InvocationID != "" {
		id := raw.InvocationID
		usage.InvocationID = &id
	}
	return usage
}

// eventMetadata captures advisory runtime flags that are not first-class
// AgentEvent fields but are worth keeping on the durable record.
func eventMetadata(raw core.RawEvent) map[string]any {
	md := map[string]any{}
	if raw.InvocationID != "" {
		md["invocation_id"] = raw.InvocationID
	}
	if raw.Partial != nil {
		md["partial"] = *raw.Partial
	}
	if raw.TurnComplete != nil {
		md["turn_complete"] = *raw.TurnComplete
	}
	if len(md) == 0 {
		return nil
	}
	return md
}
