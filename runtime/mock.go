package runtime

import (
	"context"
	"fmt"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

// MockProvider is a lightweight in-memory Provider useful for tests and
// examples. It replies with a canned completion keyed by the latest user
// text, falling back to an echo.
type MockProvider struct {
	responses map[string]string
}

// NewMockProvider constructs an empty MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{responses: map[string]string{}}
}

// AddResponse registers a deterministic canned completion for an input
// prompt.
func (m *MockProvider) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Provider.
func (m *MockProvider) Generate(ctx context.Context, contents []core.Content, tools []Tool) (*Completion, error) {
	if len(contents) == 0 {
		return nil, fmt.Errorf("no contents provided")
	}
	var inputText string
	for _, c := range contents {
		if c.Role != "user" {
			continue
		}
		inputText = ""
		for _, p := range c.Parts {
			if tp, ok := p.(core.TextPart); ok {
				inputText += tp.Text
			}
		}
	}
	full := m.responses[inputText]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", inputText)
	}
	prompt := int64(len(inputText))
	response := int64(len(full))
	total := prompt + response
	model := "mock"
	return &Completion{
		Parts:      []core.Part{core.TextPart{Text: full}},
		Usage:      &core.RawUsage{PromptTokens: &prompt, ResponseTokens: &response, TotalTokens: &total, ModelName: &model},
		StopReason: "stop",
	}, nil
}

// Name implements Provider.
func (m *MockProvider) Name() string { return "mock" }

var _ Provider = (*MockProvider)(nil)
