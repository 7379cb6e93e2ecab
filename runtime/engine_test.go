package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

func drainRun(t *testing.T, events <-chan core.RawEvent, errs <-chan error) ([]core.RawEvent, error) {
	t.Helper()
	var out []core.RawEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out, <-errs
}

func TestEngine_RunRequiresSession(t *testing.T) {
	e := NewEngine(NewMockProvider())
	_, _, err := e.Run(context.Background(), "user-1", "sess-1", "hi")
	assert.Error(t, err)
}

func TestEngine_CreateSessionIdempotent(t *testing.T) {
	e := NewEngine(NewMockProvider())
	ctx := context.Background()
	require.NoError(t, e.CreateSession(ctx, "user-1", "sess-1"))
	require.NoError(t, e.CreateSession(ctx, "user-1", "sess-1"))
}

func TestEngine_TextRun(t *testing.T) {
	provider := NewMockProvider()
	provider.AddResponse("hi", "hello there")
	e := NewEngine(provider)
	ctx := context.Background()
	require.NoError(t, e.CreateSession(ctx, "user-1", "sess-1"))

	events, errs, err := e.Run(ctx, "user-1", "sess-1", "hi")
	require.NoError(t, err)
	got, runErr := drainRun(t, events, errs)
	require.NoError(t, runErr)

	require.Len(t, got, 1)
	ev := got[0]
	assert.Equal(t, "root_agent", ev.Author)
	require.NotNil(t, ev.Content)
	require.Len(t, ev.Content.Parts, 1)
	assert.Equal(t, core.TextPart{Text: "hello there"}, ev.Content.Parts[0])
	require.NotNil(t, ev.Usage)
	require.NotNil(t, ev.Usage.TotalTokens)
}

func TestEngine_HistoryCarriesAcrossRuns(t *testing.T) {
	provider := NewMockProvider()
	e := NewEngine(provider)
	ctx := context.Background()
	require.NoError(t, e.CreateSession(ctx, "user-1", "sess-1"))

	events, errs, err := e.Run(ctx, "user-1", "sess-1", "first")
	require.NoError(t, err)
	_, runErr := drainRun(t, events, errs)
	require.NoError(t, runErr)

	// The second run sees the first exchange in its session memory.
	e.mu.Lock()
	history := e.sessions[sessionKey("user-1", "sess-1")]
	e.mu.Unlock()
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
}

// toolProvider requests one tool call, then answers with the tool's output.
type toolProvider struct {
	calls int
}

func (p *toolProvider) Generate(ctx context.Context, contents []core.Content, tools []Tool) (*Completion, error) {
	p.calls++
	if p.calls == 1 {
		return &Completion{
			Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID: "c1", Name: "get_balance", Arguments: `{"account":"all"}`,
			}}},
			StopReason: "tool_use",
		}, nil
	}
	last := contents[len(contents)-1]
	resp := last.Parts[0].(core.FunctionResponsePart).FunctionResponse.Response
	return &Completion{
		Parts:      []core.Part{core.TextPart{Text: fmt.Sprintf("balance: %v", resp)}},
		StopReason: "stop",
	}, nil
}

func (p *toolProvider) Name() string { return "scripted" }

func TestEngine_ToolLoop(t *testing.T) {
	e := NewEngine(&toolProvider{}, func(o *Options) {
		o.Tools = []Tool{{
			Name: "get_balance",
			Run: func(ctx context.Context, args json.RawMessage) (any, error) {
				return "4200", nil
			},
		}}
	})
	ctx := context.Background()
	require.NoError(t, e.CreateSession(ctx, "user-1", "sess-1"))

	events, errs, err := e.Run(ctx, "user-1", "sess-1", "balance?")
	require.NoError(t, err)
	got, runErr := drainRun(t, events, errs)
	require.NoError(t, runErr)

	// tool call event, tool result event, final answer event
	require.Len(t, got, 3)
	require.Len(t, got[0].GetFunctionCalls(), 1)
	results := got[1].GetFunctionResponses()
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
	assert.Equal(t, "4200", results[0].Response)
	require.NotNil(t, got[2].Content)
	assert.Equal(t, core.TextPart{Text: "balance: 4200"}, got[2].Content.Parts[0])
}

func TestEngine_UnknownToolReportedInResult(t *testing.T) {
	e := NewEngine(&toolProvider{})
	ctx := context.Background()
	require.NoError(t, e.CreateSession(ctx, "user-1", "sess-1"))

	events, errs, err := e.Run(ctx, "user-1", "sess-1", "balance?")
	require.NoError(t, err)
	got, runErr := drainRun(t, events, errs)
	require.NoError(t, runErr)

	require.Len(t, got, 3)
	results := got[1].GetFunctionResponses()
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "unknown tool")
}

func TestEngine_ToolRoundLimit(t *testing.T) {
	// Always requests another tool call; the loop must stop on its own.
	e := NewEngine(&loopingProvider{}, func(o *Options) {
		o.MaxToolRounds = 2
		o.Tools = []Tool{{
			Name: "noop",
			Run: func(ctx context.Context, args json.RawMessage) (any, error) {
				return "ok", nil
			},
		}}
	})
	ctx := context.Background()
	require.NoError(t, e.CreateSession(ctx, "user-1", "sess-1"))

	events, errs, err := e.Run(ctx, "user-1", "sess-1", "go")
	require.NoError(t, err)
	got, runErr := drainRun(t, events, errs)
	require.NoError(t, runErr)
	// round 1: call + result, round 2: call (limit reached, no execution)
	assert.Len(t, got, 3)
}

type loopingProvider struct{ n int }

func (p *loopingProvider) Generate(ctx context.Context, contents []core.Content, tools []Tool) (*Completion, error) {
	p.n++
	return &Completion{
		Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID: fmt.Sprintf("c%d", p.n), Name: "noop", Arguments: `{}`,
		}}},
		StopReason: "tool_use",
	}, nil
}

func (p *loopingProvider) Name() string { return "looping" }
