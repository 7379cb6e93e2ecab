package session

import (
	"context"
	"fmt"
	"time"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/logging"
)

// Service implements the chat-session lifecycle over a SessionStore, with the
// MessageStore consulted for the computed enrichments and for cascade cleanup
// on delete. Every read checks ownership: a session that exists but belongs
// to another user is reported as core.ErrAccessDenied, never leaked.
type Service struct {
	sessions core.SessionStore
	messages core.MessageStore
	registry *Registry
	logger   *logging.RunLogger
}

// ServiceOptions configure a Service.
type ServiceOptions struct {
	// Registry, when set, is notified on session deletion so the runtime
	// session mapping is dropped with the chat session.
	Registry *Registry
	// Logger receives service logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// NewService creates a Service over the given stores.
func NewService(sessions core.SessionStore, messages core.MessageStore, optFns ...func(o *ServiceOptions)) *Service {
	opts := ServiceOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{
		sessions: sessions,
		messages: messages,
		registry: opts.Registry,
		logger:   logging.NewRunLogger(opts.Logger, "session_service"),
	}
}

// Create starts a new chat session for the user. An empty title gets a
// timestamped default; settings is nil for the defaults.
func (s *Service) Create(ctx context.Context, userID, title string, settings *core.SessionSettings) (*core.ChatSession, error) {
	if title == "" {
		title = "Chat Session " + time.Now().UTC().Format("2006-01-02 15:04")
	}
	sess := core.NewChatSession(userID, title)
	if settings != nil {
		sess.Settings = *settings
	}
	created, err := s.sessions.CreateSession(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.WithSession(created.ID, userID).Info("chat session created", "title", created.Title)
	return created, nil
}

// Get returns the user's session by id, enriched with the message count and
// last activity time.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (*core.ChatSession, error) {
	sess, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// List returns the user's sessions, most recently updated first, each
// enriched like Get. limit <= 0 means no limit.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]*core.ChatSession, error) {
	sessions, err := s.sessions.ListUserSessions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	for _, sess := range sessions {
		if err := s.enrich(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// Rename updates the session title and returns the updated session.
func (s *Service) Rename(ctx context.Context, userID, sessionID, title string) (*core.ChatSession, error) {
	if _, err := s.owned(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateSessionTitle(ctx, sessionID, title); err != nil {
		return nil, fmt.Errorf("rename session: %w", err)
	}
	return s.Get(ctx, userID, sessionID)
}

// Touch advances the session's activity timestamp.
func (s *Service) Touch(ctx context.Context, sessionID string) error {
	return s.sessions.TouchSession(ctx, sessionID)
}

// Delete removes the session, its turns, and the runtime session mapping.
func (s *Service) Delete(ctx context.Context, userID, sessionID string) error {
	if _, err := s.owned(ctx, userID, sessionID); err != nil {
		return err
	}
	if err := s.messages.DeleteSessionTurns(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session turns: %w", err)
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if s.registry != nil {
		s.registry.Drop(userID, sessionID)
	}
	s.logger.WithSession(sessionID, userID).Info("chat session deleted")
	return nil
}

// owned loads the session and verifies it belongs to userID.
func (s *Service) owned(ctx context.Context, userID, sessionID string) (*core.ChatSession, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, core.ErrAccessDenied
	}
	return sess, nil
}

func (s *Service) enrich(ctx context.Context, sess *core.ChatSession) error {
	count, err := s.messages.CountSessionTurns(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("count session turns: %w", err)
	}
	sess.MessageCount = &count
	last := sess.UpdatedAt
	sess.LastActivity = &last
	return nil
}
