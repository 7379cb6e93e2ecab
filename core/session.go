package core

import "time"

// SessionSettings are the per-session generation preferences recorded on a
// chat session. They are advisory: runtimes may honor a subset.
type SessionSettings struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Language    string  `json:"language"`
}

// DefaultSessionSettings returns the baseline settings applied when a session
// is created without explicit preferences.
func DefaultSessionSettings() SessionSettings {
	return SessionSettings{Model: "gpt-4", Temperature: 0.7, MaxTokens: 1000, Language: "en"}
}

// ChatSession is the backend's conversational container: it owns turn history
// (via the MessageStore) and maps to a runtime session through the registry.
// MessageCount and LastActivity are computed enrichments, populated by the
// session service, never persisted.
type ChatSession struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	IsActive  bool            `json:"is_active"`
	Settings  SessionSettings `json:"settings"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	MessageCount *int       `json:"message_count,omitempty"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// NewChatSession constructs an active session with default settings.
func NewChatSession(userID, title string) *ChatSession {
	now := time.Now().UTC()
	return &ChatSession{
		ID:        NewID(),
		UserID:    userID,
		Title:     title,
		IsActive:  true,
		Settings:  DefaultSessionSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy safe for independent mutation.
func (s *ChatSession) Clone() *ChatSession {
	cp := *s
	if s.Metadata != nil {
		cp.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			cp.Metadata[k] = v
		}
	}
	if s.MessageCount != nil {
		v := *s.MessageCount
		cp.MessageCount = &v
	}
	if s.LastActivity != nil {
		v := *s.LastActivity
		cp.LastActivity = &v
	}
	return &cp
}
