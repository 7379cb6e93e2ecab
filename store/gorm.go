package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/HumanInTheLoop-APN/paisa-agent-ai/core"
)

// turnRecord is the relational projection of core.ConversationTurn. The
// nested structures (events, usage, error summary) are stored as JSON
// columns; queries never need to reach inside them.
type turnRecord struct {
	ID                 string  `gorm:"primaryKey;size:36"`
	SessionID          string  `gorm:"size:36;not null;index:idx_turns_session"`
	UserID             string  `gorm:"size:64;not null;index"`
	Role               string  `gorm:"size:16;not null"`
	HumanContent       *string `gorm:"type:text"`
	Events             datatypes.JSON
	ParentTurnID       *string `gorm:"size:36"`
	Authors            datatypes.JSON
	AggregateUsage     datatypes.JSON
	HasErrors          bool
	ErrorSummary       datatypes.JSON
	ProcessingComplete bool
	Artifacts          datatypes.JSON
	Metadata           datatypes.JSON
	CreatedAt          time.Time `gorm:"index:idx_turns_session"`
	UpdatedAt          time.Time
}

func (turnRecord) TableName() string { return "conversation_turns" }

// sessionRecord is the relational projection of core.ChatSession.
type sessionRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:64;not null;index"`
	Title     string `gorm:"size:255;not null"`
	IsActive  bool
	Settings  datatypes.JSON
	Metadata  datatypes.JSON
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

func (sessionRecord) TableName() string { return "chat_sessions" }

// Open opens a database through the given dialector and migrates the schema.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&turnRecord{}, &sessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}

// OpenPostgres opens and migrates a PostgreSQL database.
func OpenPostgres(dsn string) (*gorm.DB, error) { return Open(postgres.Open(dsn)) }

// OpenSQLite opens and migrates a SQLite database at path (":memory:" for an
// ephemeral one).
func OpenSQLite(path string) (*gorm.DB, error) { return Open(sqlite.Open(path)) }

// GormMessageStore persists conversation turns through GORM.
type GormMessageStore struct {
	db *gorm.DB
}

// NewGormMessageStore creates a message store over db (see Open).
func NewGormMessageStore(db *gorm.DB) *GormMessageStore { return &GormMessageStore{db: db} }

// CreateHumanTurn records the user's prompt as a new turn.
func (s *GormMessageStore) CreateHumanTurn(ctx context.Context, sessionID, userID, content string) (*core.ConversationTurn, error) {
	turn := core.NewHumanTurn(sessionID, userID, content)
	rec, err := toTurnRecord(turn)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("create human turn: %w", err)
	}
	return turn, nil
}

// CreateAssistantTurn records a finalized assistant turn in one insert.
func (s *GormMessageStore) CreateAssistantTurn(ctx context.Context, turn *core.ConversationTurn) (*core.ConversationTurn, error) {
	stored := turn.Clone()
	if stored.ID == "" {
		stored.ID = core.NewID()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	rec, err := toTurnRecord(stored)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("create assistant turn: %w", err)
	}
	return stored, nil
}

// GetTurn returns the turn by id, or core.ErrNotFound.
func (s *GormMessageStore) GetTurn(ctx context.Context, turnID string) (*core.ConversationTurn, error) {
	var rec turnRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", turnID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("turn %s: %w", turnID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get turn: %w", err)
	}
	return fromTurnRecord(&rec)
}

// ListSessionTurns returns the session's turns in creation order. limit <= 0
// means no limit; a positive limit returns the most recent turns.
func (s *GormMessageStore) ListSessionTurns(ctx context.Context, sessionID string, limit int) ([]*core.ConversationTurn, error) {
	q := s.db.WithContext(ctx).Where("session_id = ?", sessionID)
	var recs []turnRecord
	if limit > 0 {
		// Take the newest N, then restore ascending order below.
		q = q.Order("created_at desc, id desc").Limit(limit)
	} else {
		q = q.Order("created_at asc, id asc")
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list session turns: %w", err)
	}
	if limit > 0 {
		for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
			recs[i], recs[j] = recs[j], recs[i]
		}
	}
	out := make([]*core.ConversationTurn, 0, len(recs))
	for i := range recs {
		turn, err := fromTurnRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, turn)
	}
	return out, nil
}

// CountSessionTurns returns the number of turns in the session.
func (s *GormMessageStore) CountSessionTurns(ctx context.Context, sessionID string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&turnRecord{}).Where("session_id = ?", sessionID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count session turns: %w", err)
	}
	return int(n), nil
}

// AttachArtifact appends the artifact reference to the turn if absent.
func (s *GormMessageStore) AttachArtifact(ctx context.Context, turnID, artifactID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec turnRecord
		err := tx.First(&rec, "id = ?", turnID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("turn %s: %w", turnID, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("attach artifact: %w", err)
		}
		var ids []string
		if len(rec.Artifacts) > 0 {
			if err := json.Unmarshal(rec.Artifacts, &ids); err != nil {
				return fmt.Errorf("decode turn artifacts: %w", err)
			}
		}
		for _, id := range ids {
			if id == artifactID {
				return nil
			}
		}
		ids = append(ids, artifactID)
		raw, err := json.Marshal(ids)
		if err != nil {
			return fmt.Errorf("encode turn artifacts: %w", err)
		}
		return tx.Model(&turnRecord{}).Where("id = ?", turnID).Updates(map[string]any{
			"artifacts":  datatypes.JSON(raw),
			"updated_at": time.Now().UTC(),
		}).Error
	})
}

// DeleteSessionTurns removes every turn of the session.
func (s *GormMessageStore) DeleteSessionTurns(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&turnRecord{}).Error
	if err != nil {
		return fmt.Errorf("delete session turns: %w", err)
	}
	return nil
}

// GormSessionStore persists chat sessions through GORM.
type GormSessionStore struct {
	db *gorm.DB
}

// NewGormSessionStore creates a session store over db (see Open).
func NewGormSessionStore(db *gorm.DB) *GormSessionStore { return &GormSessionStore{db: db} }

// CreateSession stores the session, assigning an id if empty.
func (s *GormSessionStore) CreateSession(ctx context.Context, session *core.ChatSession) (*core.ChatSession, error) {
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
	rec, err := toSessionRecord(stored)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return stored, nil
}

// GetSession returns the session by id, or core.ErrNotFound.
func (s *GormSessionStore) GetSession(ctx context.Context, sessionID string) (*core.ChatSession, error) {
	var rec sessionRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return fromSessionRecord(&rec)
}

// ListUserSessions returns the user's sessions, most recently updated first.
// limit <= 0 means no limit.
func (s *GormSessionStore) ListUserSessions(ctx context.Context, userID string, limit int) ([]*core.ChatSession, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []sessionRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	out := make([]*core.ChatSession, 0, len(recs))
	for i := range recs {
		sess, err := fromSessionRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

// UpdateSessionTitle renames the session.
func (s *GormSessionStore) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	return s.update(ctx, sessionID, map[string]any{"title": title})
}

// SetSessionActive toggles the session's active flag.
func (s *GormSessionStore) SetSessionActive(ctx context.Context, sessionID string, active bool) error {
	return s.update(ctx, sessionID, map[string]any{"is_active": active})
}

// TouchSession advances the session's updated timestamp.
func (s *GormSessionStore) TouchSession(ctx context.Context, sessionID string) error {
	return s.update(ctx, sessionID, map[string]any{})
}

// DeleteSession removes the session.
func (s *GormSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	res := s.db.WithContext(ctx).Delete(&sessionRecord{}, "id = ?", sessionID)
	if res.Error != nil {
		return fmt.Errorf("delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}
	return nil
}

func (s *GormSessionStore) update(ctx context.Context, sessionID string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&sessionRecord{}).Where("id = ?", sessionID).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}
	return nil
}

func toTurnRecord(t *core.ConversationTurn) (*turnRecord, error) {
	rec := &turnRecord{
		ID:                 t.ID,
		SessionID:          t.SessionID,
		UserID:             t.UserID,
		Role:               string(t.Role),
		HumanContent:       t.HumanContent,
		ParentTurnID:       t.ParentTurnID,
		HasErrors:          t.HasErrors,
		ProcessingComplete: t.ProcessingComplete,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
	for _, col := range []struct {
		dst *datatypes.JSON
		src any
	}{
		{&rec.Events, t.Events},
		{&rec.Authors, t.Authors},
		{&rec.AggregateUsage, t.AggregateUsage},
		{&rec.ErrorSummary, t.ErrorSummary},
		{&rec.Artifacts, t.Artifacts},
		{&rec.Metadata, t.Metadata},
	} {
		raw, err := marshalColumn(col.src)
		if err != nil {
			return nil, fmt.Errorf("encode turn %s: %w", t.ID, err)
		}
		*col.dst = raw
	}
	return rec, nil
}

func fromTurnRecord(rec *turnRecord) (*core.ConversationTurn, error) {
	t := &core.ConversationTurn{
		ID:                 rec.ID,
		SessionID:          rec.SessionID,
		UserID:             rec.UserID,
		Role:               core.Role(rec.Role),
		HumanContent:       rec.HumanContent,
		ParentTurnID:       rec.ParentTurnID,
		HasErrors:          rec.HasErrors,
		ProcessingComplete: rec.ProcessingComplete,
		CreatedAt:          rec.CreatedAt.UTC(),
		UpdatedAt:          rec.UpdatedAt.UTC(),
	}
	for _, col := range []struct {
		src datatypes.JSON
		dst any
	}{
		{rec.Events, &t.Events},
		{rec.Authors, &t.Authors},
		{rec.AggregateUsage, &t.AggregateUsage},
		{rec.ErrorSummary, &t.ErrorSummary},
		{rec.Artifacts, &t.Artifacts},
		{rec.Metadata, &t.Metadata},
	} {
		if err := unmarshalColumn(col.src, col.dst); err != nil {
			return nil, fmt.Errorf("decode turn %s: %w", rec.ID, err)
		}
	}
	return t, nil
}

func toSessionRecord(s *core.ChatSession) (*sessionRecord, error) {
	settings, err := marshalColumn(s.Settings)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	metadata, err := marshalColumn(s.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return &sessionRecord{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		IsActive:  s.IsActive,
		Settings:  settings,
		Metadata:  metadata,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

func fromSessionRecord(rec *sessionRecord) (*core.ChatSession, error) {
	s := &core.ChatSession{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Title:     rec.Title,
		IsActive:  rec.IsActive,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
	if err := unmarshalColumn(rec.Settings, &s.Settings); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", rec.ID, err)
	}
	if err := unmarshalColumn(rec.Metadata, &s.Metadata); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", rec.ID, err)
	}
	return s, nil
}

func marshalColumn(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func unmarshalColumn(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// Interface conformance checks.
var (
	_ core.MessageStore = (*GormMessageStore)(nil)
	_ core.SessionStore = (*GormSessionStore)(nil)
)
