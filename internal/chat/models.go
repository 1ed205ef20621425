// internal/chat/models.go
// Chat session and message models

package chat

import (
	"fmt"
	"time"
)

// Session is a conversation between exactly two users. Its id is the
// canonical pair key, so both participants resolve the same session
// without coordinating.
type Session struct {
	ID           string    `json:"id" db:"id"`
	ParticipantA int64     `json:"participant_a" db:"participant_a"`
	ParticipantB int64     `json:"participant_b" db:"participant_b"`
	LastUpdated  time.Time `json:"last_updated" db:"last_updated"`
}

// OtherParticipant returns the participant that is not userID.
func (s *Session) OtherParticipant(userID int64) int64 {
	if s.ParticipantA == userID {
		return s.ParticipantB
	}
	return s.ParticipantA
}

// HasParticipant reports whether userID belongs to the session
func (s *Session) HasParticipant(userID int64) bool {
	return s.ParticipantA == userID || s.ParticipantB == userID
}

// Message is immutable once written. SentAt is server-assigned and
// strictly increasing within a session.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	SessionID      string    `json:"session_id" db:"session_id"`
	AuthorID       int64     `json:"author_id" db:"author_id"`
	AuthorUsername string    `json:"author_username" db:"author_username"`
	Content        string    `json:"content" db:"content"`
	SentAt         time.Time `json:"sent_at" db:"sent_at"`
}

// SendMessageRequest is the payload for sending a message
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// CanonicalSessionID derives the session key from an unordered pair of
// user ids. The lower id always comes first, so both call orders
// produce the same key.
func CanonicalSessionID(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}
