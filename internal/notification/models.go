// internal/notification/models.go
// Notification records and event types

package notification

import "time"

// Type classifies the domain event behind a notification
type Type string

const (
	TypeLike    Type = "like"
	TypeComment Type = "comment"
	TypeMention Type = "mention"
	TypeMessage Type = "message"
	TypeFollow  Type = "follow"
)

// Valid reports whether the type is a known event kind
func (t Type) Valid() bool {
	switch t {
	case TypeLike, TypeComment, TypeMention, TypeMessage, TypeFollow:
		return true
	}
	return false
}

// Notification is created unread by the fan-out engine and mutated
// only to flip Read. Never reordered.
type Notification struct {
	ID            int64     `json:"id" db:"id"`
	RecipientID   int64     `json:"recipient_id" db:"recipient_id"`
	ActorID       int64     `json:"actor_id" db:"actor_id"`
	ActorUsername string    `json:"actor_username" db:"actor_username"`
	Type          Type      `json:"type" db:"type"`
	PostID        *int64    `json:"post_id,omitempty" db:"post_id"`
	SessionID     *string   `json:"session_id,omitempty" db:"session_id"`
	Read          bool      `json:"read" db:"read"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Ref points a notification at its originating post or chat session.
type Ref struct {
	PostID    *int64
	SessionID *string
}

// PostRef references a post
func PostRef(postID int64) Ref {
	return Ref{PostID: &postID}
}

// SessionRef references a chat session
func SessionRef(sessionID string) Ref {
	return Ref{SessionID: &sessionID}
}
