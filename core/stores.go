package core

import "context"

// MessageStore persists conversation turns. Both create calls must write the
// full turn atomically: a partially visible turn is never acceptable, even
// when the assistant turn itself records a partial (interrupted) run.
type MessageStore interface {
	// CreateHumanTurn durably records the user's prompt. It must complete
	// before the agent runtime is invoked.
	CreateHumanTurn(ctx context.Context, sessionID, userID, content string) (*ConversationTurn, error)

	// CreateAssistantTurn durably records a finalized assistant turn with its
	// ordered events and derived fields unchanged. Implementations assign ID
	// and timestamps when the caller left them empty.
	CreateAssistantTurn(ctx context.Context, turn *ConversationTurn) (*ConversationTurn, error)

	GetTurn(ctx context.Context, turnID string) (*ConversationTurn, error)

	// ListSessionTurns returns the session's turns ordered by creation time.
	// limit <= 0 means no limit.
	ListSessionTurns(ctx context.Context, sessionID string, limit int) ([]*ConversationTurn, error)

	CountSessionTurns(ctx context.Context, sessionID string) (int, error)

	// AttachArtifact appends an artifact reference to a turn (no-op if the
	// reference is already present).
	AttachArtifact(ctx context.Context, turnID, artifactID string) error

	// DeleteSessionTurns removes every turn of a session (cascade cleanup).
	DeleteSessionTurns(ctx context.Context, sessionID string) error
}

// SessionStore persists chat sessions (the backend's own session concept,
// distinct from runtime sessions).
type SessionStore interface {
	CreateSession(ctx context.Context, session *ChatSession) (*ChatSession, error)
	GetSession(ctx context.Context, sessionID string) (*ChatSession, error)

	// ListUserSessions returns the user's sessions, most recently updated
	// first. limit <= 0 means no limit.
	ListUserSessions(ctx context.Context, userID string, limit int) ([]*ChatSession, error)

	UpdateSessionTitle(ctx context.Context, sessionID, title string) error
	SetSessionActive(ctx context.Context, sessionID string, active bool) error

	// TouchSession advances the session's updated timestamp.
	TouchSession(ctx context.Context, sessionID string) error

	DeleteSession(ctx context.Context, sessionID string) error
}

// ArtifactStore persists artifact records (metadata plus opaque content)
// scoped by session and turn.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, artifact *Artifact) (*Artifact, error)
	GetArtifact(ctx context.Context, artifactID string) (*Artifact, error)
	ListSessionArtifacts(ctx context.Context, sessionID string) ([]*Artifact, error)
	ListTurnArtifacts(ctx context.Context, turnID string) ([]*Artifact, error)
	UpdateArtifactStatus(ctx context.Context, artifactID string, status ArtifactStatus) error
	DeleteArtifact(ctx context.Context, artifactID string) error
}
