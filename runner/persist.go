package runner

import (
	"context"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/logging"
)

// persister records turns through the external message store. It adds no
// business rules beyond passing the aggregated fields through unchanged; its
// one responsibility besides delegation is classifying failures by phase,
// because the two phases fail very differently (see core.PersistenceError).
type persister struct {
	store  core.MessageStore
	logger *logging.RunLogger
}

// persistHuman durably records the user's prompt. A failure here aborts the
// request before any stream begins: the agent must never hold a conversation
// the backend has no record of.
func (p *persister) persistHuman(ctx context.Context, sessionID, userID, content string) (*core.ConversationTurn, error) {
	turn, err := p.store.CreateHumanTurn(ctx, sessionID, userID, content)
	if err != nil {
		return nil, &core.PersistenceError{Phase: core.PhaseHumanTurn, Err: err}
	}
	p.logger.Debug("human turn persisted", "turn_id", turn.ID)
	return turn, nil
}

// persistAssistant durably records the finalized assistant turn. By the time
// it runs the caller has already received every event, so a failure is
// surfaced as a reportable inconsistency rather than a stream error.
func (p *persister) persistAssistant(ctx context.Context, turn *core.ConversationTurn) (*core.ConversationTurn, error) {
	stored, err := p.store.CreateAssistantTurn(ctx, turn)
	if err != nil {
		p.logger.LogPersistenceInconsistency(turn.ID, err)
		return nil, &core.PersistenceError{Phase: core.PhaseAssistantTurn, Err: err}
	}
	p.logger.Debug("assistant turn persisted",
		"turn_id", stored.ID,
		"event_count", len(stored.Events),
		"processing_complete", stored.ProcessingComplete,
	)
	return stored, nil
}
