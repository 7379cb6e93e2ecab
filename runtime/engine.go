package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/logging"
)

// Completion is one provider reply: the assistant content parts, token
// accounting when the provider reports it, and the provider's stop reason.
type Completion struct {
	Parts      []core.Part
	Usage      *core.RawUsage
	StopReason string
}

// Provider abstracts an LLM vendor API behind a single-shot generate call.
// Implementations convert the normalized contents and tool definitions into
// the vendor's message format and back.
type Provider interface {
	Generate(ctx context.Context, contents []core.Content, tools []Tool) (*Completion, error)
	Name() string
}

// Options configure an Engine.
type Options struct {
	// AgentName is stamped as the author on every emitted event.
	AgentName string
	// SystemPrompt, when set, is prepended to every provider call.
	SystemPrompt string
	// Tools the model may invoke during a run.
	Tools []Tool
	// MaxToolRounds bounds the generate/execute loop per run.
	MaxToolRounds int
	// Logger receives runtime logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Engine implements core.Runtime over a Provider. It keeps per-session
// conversation history in memory; sessions must be created before runs.
type Engine struct {
	provider Provider
	opts     Options
	logger   *logging.RunLogger

	mu       sync.Mutex
	sessions map[string][]core.Content
}

// NewEngine creates an engine over the given provider.
func NewEngine(provider Provider, optFns ...func(o *Options)) *Engine {
	opts := Options{
		AgentName:     "root_agent",
		MaxToolRounds: 5,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		provider: provider,
		opts:     opts,
		logger:   logging.NewRunLogger(opts.Logger, "runtime"),
		sessions: map[string][]core.Content{},
	}
}

func sessionKey(userID, runtimeSessionID string) string { return userID + "/" + runtimeSessionID }

// CreateSession registers empty conversation memory for the pair. Calling it
// again for an existing pair is a no-op.
func (e *Engine) CreateSession(ctx context.Context, userID, runtimeSessionID string) error {
	key := sessionKey(userID, runtimeSessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sessions[key]; !ok {
		e.sessions[key] = nil
	}
	return nil
}

// Run starts an asynchronous agent execution for the prompt. It fails
// immediately when the session is unknown; everything after startup is
// reported through the returned channels.
func (e *Engine) Run(ctx context.Context, userID, runtimeSessionID, prompt string) (<-chan core.RawEvent, <-chan error, error) {
	key := sessionKey(userID, runtimeSessionID)
	e.mu.Lock()
	history, ok := e.sessions[key]
	e.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("unknown runtime session %s", runtimeSessionID)
	}

	events := make(chan core.RawEvent)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(events)
		if err := e.run(ctx, key, history, prompt, events); err != nil {
			errs <- err
		}
	}()
	return events, errs, nil
}

// run drives the bounded generate/execute-tools loop, emitting events as they
// are produced and committing the grown history on success.
func (e *Engine) run(ctx context.Context, key string, history []core.Content, prompt string, events chan<- core.RawEvent) error {
	invocationID := core.NewID()
	log := e.logger.WithRun(invocationID)

	contents := make([]core.Content, 0, len(history)+2)
	if e.opts.SystemPrompt != "" {
		contents = append(contents, core.Content{Role: "system", Parts: []core.Part{core.TextPart{Text: e.opts.SystemPrompt}}})
	}
	contents = append(contents, history...)
	contents = append(contents, core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: prompt}}})

	for round := 0; ; round++ {
		start := time.Now()
		completion, err := e.provider.Generate(ctx, contents, e.opts.Tools)
		dur := time.Since(start)
		if err != nil {
			log.LogModelCall(e.provider.Name(), 0, dur, err)
			return fmt.Errorf("%s generate: %w", e.provider.Name(), err)
		}
		log.LogModelCall(e.provider.Name(), totalTokens(completion.Usage), dur, nil)

		reply := core.Content{Role: "assistant", Parts: completion.Parts}
		contents = append(contents, reply)

		ev := core.NewRawEvent(invocationID, e.opts.AgentName)
		ev.Content = &reply
		ev.Usage = completion.Usage
		if err := emit(ctx, events, ev); err != nil {
			return err
		}

		calls := ev.GetFunctionCalls()
		if len(calls) == 0 {
			break
		}
		if round+1 >= e.opts.MaxToolRounds {
			log.Warn("tool round limit reached", "rounds", round+1)
			break
		}

		results := make([]core.Part, 0, len(calls))
		for _, call := range calls {
			resp := e.executeTool(ctx, log, call)
			resultEv := core.NewFunctionResponseRawEvent(invocationID, e.opts.AgentName, resp, nil)
			if err := emit(ctx, events, resultEv); err != nil {
				return err
			}
			results = append(results, core.FunctionResponsePart{FunctionResponse: resp})
		}
		contents = append(contents, core.Content{Role: "tool", Parts: results})
	}

	// Commit the grown history, minus the system prompt.
	if e.opts.SystemPrompt != "" {
		contents = contents[1:]
	}
	e.mu.Lock()
	e.sessions[key] = contents
	e.mu.Unlock()
	return nil
}

// executeTool runs one tool call. Failures are folded into the response so
// the model can react to them; they never abort the run.
func (e *Engine) executeTool(ctx context.Context, log *logging.RunLogger, call core.FunctionCall) core.FunctionResponse {
	resp := core.FunctionResponse{ID: call.ID, Name: call.Name}
	tool := e.findTool(call.Name)
	if tool == nil {
		resp.Error = fmt.Sprintf("unknown tool %q", call.Name)
		return resp
	}
	start := time.Now()
	result, err := tool.Run(ctx, json.RawMessage(call.Arguments))
	log.LogToolCall(call.Name, time.Since(start), err)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Response = result
	return resp
}

func (e *Engine) findTool(name string) *Tool {
	for i := range e.opts.Tools {
		if e.opts.Tools[i].Name == name {
			return &e.opts.Tools[i]
		}
	}
	return nil
}

func emit(ctx context.Context, events chan<- core.RawEvent, ev core.RawEvent) error {
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func totalTokens(u *core.RawUsage) int64 {
	if u == nil || u.TotalTokens == nil {
		return 0
	}
	return *u.TotalTokens
}

var _ core.Runtime = (*Engine)(nil)
