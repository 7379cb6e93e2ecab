package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

// InMemoryMessageStore keeps conversation turns in process memory. Reads
// return deep copies so callers can never mutate stored state.
type InMemoryMessageStore struct {
	mu    sync.RWMutex
	turns map[string]*core.ConversationTurn
	// order preserves arrival order per session as a same-timestamp tiebreak.
	order map[string][]string
}

// NewInMemoryMessageStore creates an empty message store.
func NewInMemoryMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		turns: map[string]*core.ConversationTurn{},
		order: map[string][]string{},
	}
}

// CreateHumanTurn records the user's prompt as a new turn.
func (s *InMemoryMessageStore) CreateHumanTurn(ctx context.Context, sessionID, userID, content string) (*core.ConversationTurn, error) {
	turn := core.NewHumanTurn(sessionID, userID, content)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.ID] = turn.Clone()
	s.order[sessionID] = append(s.order[sessionID], turn.ID)
	return turn, nil
}

// CreateAssistantTurn records a finalized assistant turn.
func (s *InMemoryMessageStore) CreateAssistantTurn(ctx context.Context, turn *core.ConversationTurn) (*core.ConversationTurn, error) {
	if turn.SessionID == "" || turn.UserID == "" {
		return nil, fmt.Errorf("assistant turn requires session and user ids")
	}
	stored := turn.Clone()
	if stored.ID == "" {
		stored.ID = core.NewID()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.turns[stored.ID]; exists {
		return nil, fmt.Errorf("turn %s already exists", stored.ID)
	}
	s.turns[stored.ID] = stored
	s.order[stored.SessionID] = append(s.order[stored.SessionID], stored.ID)
	return stored.Clone(), nil
}

// GetTurn returns the turn by id, or core.ErrNotFound.
func (s *InMemoryMessageStore) GetTurn(ctx context.Context, turnID string) (*core.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turn, ok := s.turns[turnID]
	if !ok {
		return nil, fmt.Errorf("turn %s: %w", turnID, core.ErrNotFound)
	}
	return turn.Clone(), nil
}

// ListSessionTurns returns the session's turns in creation order. limit <= 0
// means no limit.
func (s *InMemoryMessageStore) ListSessionTurns(ctx context.Context, sessionID string, limit int) ([]*core.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.order[sessionID]
	out := make([]*core.ConversationTurn, 0, len(ids))
	for _, id := range ids {
		if turn, ok := s.turns[id]; ok {
			out = append(out, turn.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// CountSessionTurns returns the number of turns in the session.
func (s *InMemoryMessageStore) CountSessionTurns(ctx context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order[sessionID]), nil
}

// AttachArtifact appends the artifact reference to the turn if absent.
func (s *InMemoryMessageStore) AttachArtifact(ctx context.Context, turnID, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn, ok := s.turns[turnID]
	if !ok {
		return fmt.Errorf("turn %s: %w", turnID, core.ErrNotFound)
	}
	for _, id := range turn.Artifacts {
		if id == artifactID {
			return nil
		}
	}
	turn.Artifacts = append(turn.Artifacts, artifactID)
	turn.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteSessionTurns removes every turn of the session.
func (s *InMemoryMessageStore) DeleteSessionTurns(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order[sessionID] {
		delete(s.turns, id)
	}
	delete(s.order, sessionID)
	return nil
}

// InMemorySessionStore keeps chat sessions in process memory with the same
// copy-on-read discipline as the message store.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.ChatSession
}

// NewInMemorySessionStore creates an empty session store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: map[string]*core.ChatSession{}}
}

// CreateSession stores the session, assigning an id if empty.
func (s *InMemorySessionStore) CreateSession(ctx context.Context, session *core.ChatSession) (*core.ChatSession, error) {
	stored := session.Clone()
	if stored.ID == "" {
		stored.ID = core.NewID()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[stored.ID]; exists {
		return nil, fmt.Errorf("session %s already exists", stored.ID)
	}
	s.sessions[stored.ID] = stored
	return stored.Clone(), nil
}

// GetSession returns the session by id, or core.ErrNotFound.
func (s *InMemorySessionStore) GetSession(ctx context.Context, sessionID string) (*core.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}
	return sess.Clone(), nil
}

// ListUserSessions returns the user's sessions, most recently updated first.
// limit <= 0 means no limit.
func (s *InMemorySessionStore) ListUserSessions(ctx context.Context, userID string, limit int) ([]*core.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.ChatSession
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateSessionTitle renames the session.
func (s *InMemorySessionStore) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	return s.update(sessionID, func(sess *core.ChatSession) { sess.Title = title })
}

// SetSessionActive toggles the session's active flag.
func (s *InMemorySessionStore) SetSessionActive(ctx context.Context, sessionID string, active bool) error {
	return s.update(sessionID, func(sess *core.ChatSession) { sess.IsActive = active })
}

// TouchSession advances the session's updated timestamp.
func (s *InMemorySessionStore) TouchSession(ctx context.Context, sessionID string) error {
	return s.update(sessionID, func(*core.ChatSession) {})
}

// DeleteSession removes the session.
func (s *InMemorySessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemorySessionStore) update(sessionID string, fn func(*core.ChatSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}
	fn(sess)
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

// Interface conformance checks.
var (
	_ core.MessageStore = (*InMemoryMessageStore)(nil)
	_ core.SessionStore = (*InMemorySessionStore)(nil)
)
