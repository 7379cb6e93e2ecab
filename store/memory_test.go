package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

func TestInMemoryMessageStore_TurnOrdering(t *testing.T) {
	s := NewInMemoryMessageStore()
	ctx := context.Background()

	human, err := s.CreateHumanTurn(ctx, "sess-1", "user-1", "hello")
	require.NoError(t, err)

	agent := &core.ConversationTurn{
		SessionID:          "sess-1",
		UserID:             "user-1",
		Role:               core.RoleAssistant,
		ProcessingComplete: true,
	}
	stored, err := s.CreateAssistantTurn(ctx, agent)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)

	turns, err := s.ListSessionTurns(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, human.ID, turns[0].ID)
	assert.Equal(t, stored.ID, turns[1].ID)

	count, err := s.CountSessionTurns(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInMemoryMessageStore_LimitReturnsMostRecent(t *testing.T) {
	s := NewInMemoryMessageStore()
	ctx := context.Background()

	var last *core.ConversationTurn
	for i := 0; i < 5; i++ {
		turn, err := s.CreateHumanTurn(ctx, "sess-1", "user-1", "msg")
		require.NoError(t, err)
		last = turn
	}

	turns, err := s.ListSessionTurns(ctx, "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, last.ID, turns[1].ID)
}

func TestInMemoryMessageStore_CloneOnRead(t *testing.T) {
	s := NewInMemoryMessageStore()
	ctx := context.Background()

	turn, err := s.CreateHumanTurn(ctx, "sess-1", "user-1", "hello")
	require.NoError(t, err)

	got, err := s.GetTurn(ctx, turn.ID)
	require.NoError(t, err)
	*got.HumanContent = "mutated"

	again, err := s.GetTurn(ctx, turn.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", *again.HumanContent)
}

func TestInMemoryMessageStore_AttachArtifact(t *testing.T) {
	s := NewInMemoryMessageStore()
	ctx := context.Background()

	turn, err := s.CreateHumanTurn(ctx, "sess-1", "user-1", "hello")
	require.NoError(t, err)

	require.NoError(t, s.AttachArtifact(ctx, turn.ID, "art-1"))
	require.NoError(t, s.AttachArtifact(ctx, turn.ID, "art-1")) // no duplicate
	require.NoError(t, s.AttachArtifact(ctx, turn.ID, "art-2"))

	got, err := s.GetTurn(ctx, turn.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"art-1", "art-2"}, got.Artifacts)

	err = s.AttachArtifact(ctx, "missing", "art-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInMemoryMessageStore_DeleteSessionTurns(t *testing.T) {
	s := NewInMemoryMessageStore()
	ctx := context.Background()

	turn, err := s.CreateHumanTurn(ctx, "sess-1", "user-1", "hello")
	require.NoError(t, err)
	_, err = s.CreateHumanTurn(ctx, "sess-2", "user-1", "other")
	require.NoError(t, err)

	require.NoError(t, s.DeleteSessionTurns(ctx, "sess-1"))

	_, err = s.GetTurn(ctx, turn.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	count, err := s.CountSessionTurns(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInMemorySessionStore_CRUD(t *testing.T) {
	s := NewInMemorySessionStore()
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, core.NewChatSession("user-1", "t"))
	require.NoError(t, err)

	require.NoError(t, s.UpdateSessionTitle(ctx, sess.ID, "renamed"))
	require.NoError(t, s.SetSessionActive(ctx, sess.ID, false))

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.False(t, got.IsActive)

	require.NoError(t, s.DeleteSession(ctx, sess.ID))
	_, err = s.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteSession(ctx, sess.ID), core.ErrNotFound)
}
