// internal/chat/repository.go
// PostgreSQL persistence for chat sessions and messages

package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrSessionNotFound is returned when a session doesn't exist
	ErrSessionNotFound = errors.New("chat session not found")
)

// Repository defines chat persistence operations
type Repository interface {
	CreateIfAbsent(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	ListSessionsForUser(ctx context.Context, userID int64) ([]*Session, error)
	AllocateTimestamp(ctx context.Context, sessionID string) (time.Time, error)
	InsertMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, sessionID string) ([]*Message, error)
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// CreateIfAbsent inserts the session unless its canonical id already
// exists. Two near-simultaneous first contacts both succeed and end up
// with the same single row.
func (r *postgresRepository) CreateIfAbsent(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO chat_sessions (id, participant_a, participant_b, last_updated)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, session.ID, session.ParticipantA, session.ParticipantB)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by canonical id
func (r *postgresRepository) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	query := `
		SELECT id, participant_a, participant_b, last_updated
		FROM chat_sessions
		WHERE id = $1`

	err := r.db.GetContext(ctx, &session, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return &session, nil
}

// ListSessionsForUser returns the user's sessions, most recently
// active first.
func (r *postgresRepository) ListSessionsForUser(ctx context.Context, userID int64) ([]*Session, error) {
	var sessions []*Session
	query := `
		SELECT id, participant_a, participant_b, last_updated
		FROM chat_sessions
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_updated DESC`

	err := r.db.SelectContext(ctx, &sessions, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// AllocateTimestamp bumps the session's lastUpdated to a value
// strictly greater than every previously allocated one, even when the
// database clock stands still or runs backwards between calls. The
// returned value doubles as the next message's sentAt.
func (r *postgresRepository) AllocateTimestamp(ctx context.Context, sessionID string) (time.Time, error) {
	var ts time.Time
	query := `
		UPDATE chat_sessions
		SET last_updated = GREATEST(NOW(), last_updated + interval '1 microsecond')
		WHERE id = $1
		RETURNING last_updated`

	err := r.db.GetContext(ctx, &ts, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrSessionNotFound
		}
		return time.Time{}, fmt.Errorf("allocating timestamp: %w", err)
	}
	return ts, nil
}

// InsertMessage appends a message and fills in its id
func (r *postgresRepository) InsertMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO chat_messages (session_id, author_id, author_username, content, sent_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.GetContext(ctx, &msg.ID, query,
		msg.SessionID, msg.AuthorID, msg.AuthorUsername, msg.Content, msg.SentAt)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// ListMessages returns the session's messages oldest first
func (r *postgresRepository) ListMessages(ctx context.Context, sessionID string) ([]*Message, error) {
	var messages []*Message
	query := `
		SELECT id, session_id, author_id, author_username, content, sent_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY sent_at ASC, id ASC`

	err := r.db.SelectContext(ctx, &messages, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return messages, nil
}
