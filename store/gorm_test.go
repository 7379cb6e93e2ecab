package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

func newSQLiteStores(t *testing.T) (*GormMessageStore, *GormSessionStore) {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	return NewGormMessageStore(db), NewGormSessionStore(db)
}

func sampleAssistantTurn(sessionID, userID string) *core.ConversationTurn {
	seven := int64(7)
	model := "gpt-4"
	msg := "backend down"
	callID := "c1"
	return &core.ConversationTurn{
		SessionID: sessionID,
		UserID:    userID,
		Role:      core.RoleAssistant,
		Events: []core.AgentEvent{
			{
				EventID:        "e1",
				SequenceNumber: 1,
				Author:         "root_agent",
				ToolCalls:      []core.ToolCall{{ID: &callID, Name: "get_balance", Args: []byte(`{"account":"all"}`)}},
				Usage:          &core.UsageMetadata{TotalTokens: &seven, ModelName: &model},
			},
		},
		Authors:            []string{"root_agent"},
		AggregateUsage:     &core.UsageMetadata{TotalTokens: &seven, ModelName: &model},
		HasErrors:          true,
		ErrorSummary:       map[string]core.TurnError{"e1": {Code: "tool_failure", Message: &msg}},
		ProcessingComplete: false,
		Metadata:           map[string]any{"run_id": "run-1"},
	}
}

func TestGormMessageStore_RoundTrip(t *testing.T) {
	messages, _ := newSQLiteStores(t)
	ctx := context.Background()

	human, err := messages.CreateHumanTurn(ctx, "sess-1", "user-1", "what is my balance?")
	require.NoError(t, err)

	stored, err := messages.CreateAssistantTurn(ctx, sampleAssistantTurn("sess-1", "user-1"))
	require.NoError(t, err)

	got, err := messages.GetTurn(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, got.Role)
	require.Len(t, got.Events, 1)
	ev := got.Events[0]
	assert.Equal(t, "e1", ev.EventID)
	assert.Equal(t, 1, ev.SequenceNumber)
	require.Len(t, ev.ToolCalls, 1)
	assert.JSONEq(t, `{"account":"all"}`, string(ev.ToolCalls[0].Args))
	require.NotNil(t, got.AggregateUsage)
	require.NotNil(t, got.AggregateUsage.TotalTokens)
	assert.EqualValues(t, 7, *got.AggregateUsage.TotalTokens)
	assert.True(t, got.HasErrors)
	require.Contains(t, got.ErrorSummary, "e1")
	assert.Equal(t, "tool_failure", got.ErrorSummary["e1"].Code)
	assert.False(t, got.ProcessingComplete)
	assert.Equal(t, "run-1", got.Metadata["run_id"])

	turns, err := messages.ListSessionTurns(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, human.ID, turns[0].ID)
	assert.Equal(t, stored.ID, turns[1].ID)
}

func TestGormMessageStore_LimitReturnsMostRecent(t *testing.T) {
	messages, _ := newSQLiteStores(t)
	ctx := context.Background()

	var last *core.ConversationTurn
	for i := 0; i < 5; i++ {
		turn, err := messages.CreateHumanTurn(ctx, "sess-1", "user-1", "msg")
		require.NoError(t, err)
		last = turn
	}

	turns, err := messages.ListSessionTurns(ctx, "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, last.ID, turns[1].ID)
}

func TestGormMessageStore_AttachArtifactAndDelete(t *testing.T) {
	messages, _ := newSQLiteStores(t)
	ctx := context.Background()

	turn, err := messages.CreateHumanTurn(ctx, "sess-1", "user-1", "hello")
	require.NoError(t, err)

	require.NoError(t, messages.AttachArtifact(ctx, turn.ID, "art-1"))
	require.NoError(t, messages.AttachArtifact(ctx, turn.ID, "art-1"))
	got, err := messages.GetTurn(ctx, turn.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"art-1"}, got.Artifacts)

	require.NoError(t, messages.DeleteSessionTurns(ctx, "sess-1"))
	count, err := messages.CountSessionTurns(ctx, "sess-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGormSessionStore_RoundTrip(t *testing.T) {
	_, sessions := newSQLiteStores(t)
	ctx := context.Background()

	sess := core.NewChatSession("user-1", "Budget review")
	sess.Metadata = map[string]any{"source": "cli"}
	stored, err := sessions.CreateSession(ctx, sess)
	require.NoError(t, err)

	got, err := sessions.GetSession(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Budget review", got.Title)
	assert.Equal(t, core.DefaultSessionSettings(), got.Settings)
	assert.Equal(t, "cli", got.Metadata["source"])

	require.NoError(t, sessions.UpdateSessionTitle(ctx, stored.ID, "renamed"))
	require.NoError(t, sessions.SetSessionActive(ctx, stored.ID, false))
	got, err = sessions.GetSession(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.False(t, got.IsActive)

	listed, err := sessions.ListUserSessions(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, sessions.DeleteSession(ctx, stored.ID))
	_, err = sessions.GetSession(ctx, stored.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, sessions.UpdateSessionTitle(ctx, stored.ID, "x"), core.ErrNotFound)
}
