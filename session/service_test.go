package session

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/store"
)

func newTestService() (*Service, core.MessageStore) {
	messages := store.NewInMemoryMessageStore()
	return NewService(store.NewInMemorySessionStore(), messages), messages
}

func TestService_CreateDefaults(t *testing.T) {
	svc, _ := newTestService()

	sess, err := svc.Create(context.Background(), "user-1", "", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sess.Title, "Chat Session "))
	assert.True(t, sess.IsActive)
	assert.Equal(t, core.DefaultSessionSettings(), sess.Settings)
	assert.NotEmpty(t, sess.ID)
}

func TestService_CreateWithSettings(t *testing.T) {
	svc, _ := newTestService()

	settings := core.SessionSettings{Model: "claude-3-5-sonnet", Temperature: 0.2, MaxTokens: 2000, Language: "de"}
	sess, err := svc.Create(context.Background(), "user-1", "Budget review", &settings)
	require.NoError(t, err)

	assert.Equal(t, "Budget review", sess.Title)
	assert.Equal(t, settings, sess.Settings)
}

func TestService_GetEnriches(t *testing.T) {
	svc, messages := newTestService()

	sess, err := svc.Create(context.Background(), "user-1", "t", nil)
	require.NoError(t, err)
	_, err = messages.CreateHumanTurn(context.Background(), sess.ID, "user-1", "hi")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "user-1", sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MessageCount)
	assert.Equal(t, 1, *got.MessageCount)
	require.NotNil(t, got.LastActivity)
}

func TestService_OwnershipEnforced(t *testing.T) {
	svc, _ := newTestService()

	sess, err := svc.Create(context.Background(), "user-1", "t", nil)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "user-2", sess.ID)
	assert.ErrorIs(t, err, core.ErrAccessDenied)
	_, err = svc.Rename(context.Background(), "user-2", sess.ID, "stolen")
	assert.ErrorIs(t, err, core.ErrAccessDenied)
	err = svc.Delete(context.Background(), "user-2", sess.ID)
	assert.ErrorIs(t, err, core.ErrAccessDenied)
}

func TestService_ListOrderedByActivity(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.Create(context.Background(), "user-1", "first", nil)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), "user-1", "second", nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "user-2", "other user", nil)
	require.NoError(t, err)

	// Touching the older session moves it to the front.
	require.NoError(t, svc.Touch(context.Background(), first.ID))

	sessions, err := svc.List(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first.ID, sessions[0].ID)
	assert.Equal(t, second.ID, sessions[1].ID)
}

func TestService_Rename(t *testing.T) {
	svc, _ := newTestService()

	sess, err := svc.Create(context.Background(), "user-1", "old", nil)
	require.NoError(t, err)

	renamed, err := svc.Rename(context.Background(), "user-1", sess.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", renamed.Title)
}

func TestService_DeleteCascades(t *testing.T) {
	svc, messages := newTestService()

	sess, err := svc.Create(context.Background(), "user-1", "t", nil)
	require.NoError(t, err)
	_, err = messages.CreateHumanTurn(context.Background(), sess.ID, "user-1", "hi")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "user-1", sess.ID))

	_, err = svc.Get(context.Background(), "user-1", sess.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	count, err := messages.CountSessionTurns(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
