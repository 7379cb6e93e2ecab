package testutil

import (
	"context"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

// FailingMessageStore wraps a core.MessageStore and fails selected writes,
// for exercising the two persistence phases independently.
type FailingMessageStore struct {
	core.MessageStore

	// FailHuman, when set, is returned by CreateHumanTurn.
	FailHuman error
	// FailAssistant, when set, is returned by CreateAssistantTurn.
	FailAssistant error
}

// CreateHumanTurn fails with FailHuman or delegates.
func (s *FailingMessageStore) CreateHumanTurn(ctx context.Context, sessionID, userID, content string) (*core.ConversationTurn, error) {
	if s.FailHuman != nil {
		return nil, s.FailHuman
	}
	return s.MessageStore.CreateHumanTurn(ctx, sessionID, userID, content)
}

// CreateAssistantTurn fails with FailAssistant or delegates.
func (s *FailingMessageStore) CreateAssistantTurn(ctx context.Context, turn *core.ConversationTurn) (*core.ConversationTurn, error) {
	if s.FailAssistant != nil {
		return nil, s.FailAssistant
	}
	return s.MessageStore.CreateAssistantTurn(ctx, turn)
}
