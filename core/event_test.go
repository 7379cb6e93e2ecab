package core

import "testing"

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func TestUsageMetadata_Add(t *testing.T) {
	var agg *UsageMetadata

	agg = agg.Add(&UsageMetadata{PromptTokens: i64(10), ResponseTokens: i64(5), TotalTokens: i64(15)})
	agg = agg.Add(&UsageMetadata{PromptTokens: i64(7), TotalTokens: i64(7), ModelName: str("gemini-pro")})

	if agg == nil || *agg.PromptTokens != 17 || *agg.ResponseTokens != 5 || *agg.TotalTokens != 22 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
	if agg.ModelName == nil || *agg.ModelName != "gemini-pro" {
		t.Fatalf("expected model name carried forward: %+v", agg)
	}
	if agg.CostEstimate != nil {
		t.Fatalf("absent cost fields must stay absent, got %v", *agg.CostEstimate)
	}
}

func TestUsageMetadata_AddZeroIsPresent(t *testing.T) {
	// Zero is a valid token count, not an indicator of absence.
	agg := (&UsageMetadata{PromptTokens: i64(0)}).Add(&UsageMetadata{PromptTokens: i64(0)})
	if agg.PromptTokens == nil || *agg.PromptTokens != 0 {
		t.Fatalf("zero counts must survive aggregation: %+v", agg)
	}
}

func TestUsageMetadata_AddNils(t *testing.T) {
	var agg *UsageMetadata
	if got := agg.Add(nil); got != nil {
		t.Fatalf("nil+nil should stay nil, got %+v", got)
	}
	sum := agg.Add(&UsageMetadata{TotalTokens: i64(3)})
	if sum == nil || *sum.TotalTokens != 3 {
		t.Fatalf("nil+usage should copy usage: %+v", sum)
	}
}

func TestAgentEvent_Helpers(t *testing.T) {
	ev := AgentEvent{EventID: NewID(), Author: "root_agent"}
	if ev.HasError() || ev.IsInterrupted() || ev.Text() != "" {
		t.Fatalf("zero-value helpers misbehaved: %+v", ev)
	}

	code := "RESOURCE_EXHAUSTED"
	ev.ErrorCode = &code
	if !ev.HasError() {
		t.Error("expected HasError with error code set")
	}

	empty := ""
	ev.ErrorCode = &empty
	if ev.HasError() {
		t.Error("empty error code must not mark the event erroneous")
	}

	interrupted := true
	ev.Interrupted = &interrupted
	if !ev.IsInterrupted() {
		t.Error("expected IsInterrupted with flag set")
	}
}

func TestRawEvent_ConstructorsAndHelpers(t *testing.T) {
	e := NewRawEvent("inv-1", "root_agent")
	if e.ID == "" || e.Author != "root_agent" || e.InvocationID != "inv-1" || e.Timestamp.IsZero() {
		t.Fatalf("NewRawEvent did not initialize fields: %+v", e)
	}

	txt := NewTextRawEvent("inv-1", "root_agent", "hello")
	if txt.Content == nil || txt.Content.Role != "assistant" || len(txt.Content.Parts) != 1 {
		t.Fatalf("NewTextRawEvent malformed: %+v", txt)
	}

	call := NewFunctionCallRawEvent("inv-1", "root_agent", FunctionCall{ID: "t1", Name: "get_balance", Arguments: "{}"})
	calls := call.GetFunctionCalls()
	if len(calls) != 1 || calls[0].Name != "get_balance" || calls[0].ID != "t1" {
		t.Fatalf("GetFunctionCalls extraction failed: %+v", calls)
	}

	resp := NewFunctionResponseRawEvent("inv-1", "root_agent", FunctionResponse{ID: "t1", Name: "get_balance", Response: map[string]any{"balance": 500}}, nil)
	resps := resp.GetFunctionResponses()
	if len(resps) != 1 || resps[0].Name != "get_balance" || resps[0].Error != "" {
		t.Fatalf("GetFunctionResponses extraction failed: %+v", resps)
	}

	errEv := NewErrorRawEvent("inv-1", "root_agent", "UNAVAILABLE", "backend hiccup")
	if errEv.ErrorCode == nil || *errEv.ErrorCode != "UNAVAILABLE" || errEv.ErrorMessage == nil {
		t.Fatalf("NewErrorRawEvent malformed: %+v", errEv)
	}
}
