// Package paisa provides a high-level façade over the chat backend: session
// lifecycle, message processing with live event streaming, conversation
// history and artifacts. Most applications interact with this package by:
//  1. Creating an App via New() with an agent runtime (optionally overriding
//     the default in-memory stores)
//  2. Creating chat sessions per user
//  3. Sending messages asynchronously (SendMessage) or synchronously
//     (SendMessageSync)
//
// The façade delegates orchestration to runner.Runner while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply the GORM-backed stores and
// a structured logger.
package paisa

import (
	"context"
	"encoding/json"
	"time"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/artifact"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/logging"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/runner"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/session"
	"github.com/HumanInTheLoop-APN/paisa-agent-ai/store"
)

// Options configures the App instance.
type Options struct {
	// Stores (default to in-memory implementations if not provided).
	MessageStore  core.MessageStore
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore

	// WriteTimeout bounds how long a streamed frame may wait for a slow
	// consumer before the run is cancelled. Zero disables the timeout.
	WriteTimeout time.Duration

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// App is the high-level façade aggregating the pipeline and services.
type App struct {
	opts      Options
	runner    *runner.Runner
	sessions  *session.Service
	artifacts core.ArtifactStore
}

// New creates a new App over the given agent runtime with optional overrides.
// Any unset store is initialized with an in-memory implementation.
func New(rt core.Runtime, optFns ...func(o *Options)) *App {
	opts := Options{
		MessageStore:  store.NewInMemoryMessageStore(),
		SessionStore:  store.NewInMemorySessionStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := session.NewRegistry(rt, opts.Logger)
	r := runner.New(rt, opts.MessageStore, func(o *runner.Options) {
		o.Registry = registry
		o.Logger = opts.Logger
		o.WriteTimeout = opts.WriteTimeout
	})
	sessions := session.NewService(opts.SessionStore, opts.MessageStore, func(o *session.ServiceOptions) {
		o.Registry = registry
		o.Logger = opts.Logger
	})

	return &App{opts: opts, runner: r, sessions: sessions, artifacts: opts.ArtifactStore}
}

// CreateSession starts a new chat session for the user. An empty title gets a
// timestamped default.
func (a *App) CreateSession(ctx context.Context, userID, title string) (*core.ChatSession, error) {
	return a.sessions.Create(ctx, userID, title, nil)
}

// CreateSessionWithSettings starts a new chat session with explicit
// generation preferences.
func (a *App) CreateSessionWithSettings(ctx context.Context, userID, title string, settings core.SessionSettings) (*core.ChatSession, error) {
	return a.sessions.Create(ctx, userID, title, &settings)
}

// Sessions lists the user's chat sessions, most recently active first.
// limit <= 0 means no limit.
func (a *App) Sessions(ctx context.Context, userID string, limit int) ([]*core.ChatSession, error) {
	return a.sessions.List(ctx, userID, limit)
}

// Session returns one of the user's chat sessions by id.
func (a *App) Session(ctx context.Context, userID, sessionID string) (*core.ChatSession, error) {
	return a.sessions.Get(ctx, userID, sessionID)
}

// RenameSession updates a session title.
func (a *App) RenameSession(ctx context.Context, userID, sessionID, title string) (*core.ChatSession, error) {
	return a.sessions.Rename(ctx, userID, sessionID, title)
}

// DeleteSession removes a session and all of its turns.
func (a *App) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return a.sessions.Delete(ctx, userID, sessionID)
}

// SendMessage processes one user message against the session, streaming each
// agent event as a JSON frame followed by a {"done": true} sentinel. See
// runner.Runner.ProcessMessage for the full channel semantics.
func (a *App) SendMessage(ctx context.Context, userID, sessionID, content string) (<-chan json.RawMessage, <-chan error, error) {
	if _, err := a.sessions.Get(ctx, userID, sessionID); err != nil {
		return nil, nil, err
	}
	frames, errCh, err := a.runner.ProcessMessage(ctx, userID, sessionID, content)
	if err != nil {
		return nil, nil, err
	}
	// Advance session activity; the turn itself is persisted by the runner.
	_ = a.sessions.Touch(ctx, sessionID)
	return frames, errCh, nil
}

// SendMessageSync is a synchronous helper that drains the frame stream and
// returns all frames (sentinel included) plus any post-stream error.
func (a *App) SendMessageSync(ctx context.Context, userID, sessionID, content string) ([]json.RawMessage, error) {
	frames, errCh, err := a.SendMessage(ctx, userID, sessionID, content)
	if err != nil {
		return nil, err
	}
	var out []json.RawMessage
	for frame := range frames {
		out = append(out, frame)
	}
	for err := range errCh {
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// SessionTurns returns the session's conversation history in order. limit <=
// 0 means no limit; a positive limit returns the most recent turns.
func (a *App) SessionTurns(ctx context.Context, userID, sessionID string, limit int) ([]*core.ConversationTurn, error) {
	if _, err := a.sessions.Get(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return a.opts.MessageStore.ListSessionTurns(ctx, sessionID, limit)
}

// ConversationContext returns the session's recent history as alternating
// role/text pairs, suitable for prompt assembly. limit bounds the number of
// turns considered.
func (a *App) ConversationContext(ctx context.Context, userID, sessionID string, limit int) ([]core.Content, error) {
	turns, err := a.SessionTurns(ctx, userID, sessionID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]core.Content, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == core.RoleAssistant {
			role = "assistant"
		}
		text := turn.Text()
		if text == "" {
			continue
		}
		out = append(out, core.Content{Role: role, Parts: []core.Part{core.TextPart{Text: text}}})
	}
	return out, nil
}

// SaveArtifact stores an artifact and attaches it to its turn when TurnID is
// set.
func (a *App) SaveArtifact(ctx context.Context, art *core.Artifact) (*core.Artifact, error) {
	stored, err := a.artifacts.SaveArtifact(ctx, art)
	if err != nil {
		return nil, err
	}
	if stored.TurnID != "" {
		if err := a.opts.MessageStore.AttachArtifact(ctx, stored.TurnID, stored.ID); err != nil {
			return nil, err
		}
	}
	return stored, nil
}

// Artifact returns one of the user's artifacts by id.
func (a *App) Artifact(ctx context.Context, userID, artifactID string) (*core.Artifact, error) {
	art, err := a.artifacts.GetArtifact(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if art.UserID != userID {
		return nil, core.ErrAccessDenied
	}
	return art, nil
}

// SessionArtifacts lists a session's artifacts in creation order.
func (a *App) SessionArtifacts(ctx context.Context, userID, sessionID string) ([]*core.Artifact, error) {
	if _, err := a.sessions.Get(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return a.artifacts.ListSessionArtifacts(ctx, sessionID)
}
