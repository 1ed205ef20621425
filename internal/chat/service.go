// internal/chat/service.go
// Chat session manager. Sessions are keyed by the canonical pair id,
// message timestamps come from the session row so they are monotonic
// per session, and live subscriptions are stitched onto a snapshot
// without reordering or duplicating messages.

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/peerfit/peerfit-backend/internal/profile"
	"github.com/peerfit/peerfit-backend/internal/stream"
)

var (
	// ErrSelfChat is returned when a user opens a session with themselves
	ErrSelfChat = errors.New("cannot open a chat with yourself")

	// ErrNotParticipant is returned when a user acts on a session they
	// do not belong to.
	ErrNotParticipant = errors.New("not a session participant")

	// ErrMessageTooLong is returned when content exceeds the limit
	ErrMessageTooLong = errors.New("message exceeds length limit")
)

// Notifier is the seam to the notification fan-out.
type Notifier interface {
	NotifyMessage(ctx context.Context, recipientID, actorID int64, sessionID string)
}

// ProfileSource supplies author identity for message denormalization.
type ProfileSource interface {
	GetByID(ctx context.Context, id int64) (*profile.Profile, error)
}

// Service defines chat operations
type Service interface {
	GetOrCreate(ctx context.Context, selfID, otherID int64) (*Session, error)
	ListSessions(ctx context.Context, userID int64) ([]*Session, error)
	SendMessage(ctx context.Context, sessionID string, authorID int64, content string) (*Message, error)
	ListMessages(ctx context.Context, sessionID string, userID int64) ([]*Message, error)
	Subscribe(ctx context.Context, sessionID string, userID int64) (<-chan *Message, error)
}

type service struct {
	repo       Repository
	profiles   ProfileSource
	bus        stream.Publisher
	sub        stream.Subscriber
	notifier   Notifier
	maxContent int
	log        *zap.SugaredLogger
}

// NewService creates a new chat service. maxContent bounds message
// length in bytes.
func NewService(repo Repository, profiles ProfileSource, bus stream.Publisher, sub stream.Subscriber, notifier Notifier, maxContent int, log *zap.Logger) Service {
	if maxContent < 1 {
		maxContent = 2000
	}
	return &service{
		repo:       repo,
		profiles:   profiles,
		bus:        bus,
		sub:        sub,
		notifier:   notifier,
		maxContent: maxContent,
		log:        log.Sugar().Named("chat"),
	}
}

func sessionChannel(sessionID string) string {
	return "chat:" + sessionID
}

// GetOrCreate resolves the session for the pair, creating it on first
// contact. Idempotent: both participants, in any order, get the same
// session.
func (s *service) GetOrCreate(ctx context.Context, selfID, otherID int64) (*Session, error) {
	if selfID == otherID {
		return nil, ErrSelfChat
	}
	if _, err := s.profiles.GetByID(ctx, otherID); err != nil {
		return nil, fmt.Errorf("resolving chat partner: %w", err)
	}

	id := CanonicalSessionID(selfID, otherID)
	a, b := selfID, otherID
	if a > b {
		a, b = b, a
	}

	if err := s.repo.CreateIfAbsent(ctx, &Session{ID: id, ParticipantA: a, ParticipantB: b}); err != nil {
		return nil, err
	}
	return s.repo.GetSession(ctx, id)
}

// ListSessions returns the user's sessions, most recently active first
func (s *service) ListSessions(ctx context.Context, userID int64) ([]*Session, error) {
	return s.repo.ListSessionsForUser(ctx, userID)
}

// SendMessage appends a message to the session. Empty or
// whitespace-only content is a silent no-op, not an error.
func (s *service) SendMessage(ctx context.Context, sessionID string, authorID int64, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}
	if len(content) > s.maxContent {
		return nil, ErrMessageTooLong
	}

	session, err := s.authorize(ctx, sessionID, authorID)
	if err != nil {
		return nil, err
	}

	author, err := s.profiles.GetByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("resolving author: %w", err)
	}

	// The timestamp is allocated from the session row, which both
	// orders the message and bumps lastUpdated in one statement.
	sentAt, err := s.repo.AllocateTimestamp(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		SessionID:      sessionID,
		AuthorID:       authorID,
		AuthorUsername: author.Username,
		Content:        content,
		SentAt:         sentAt,
	}
	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.publish(ctx, msg)

	if s.notifier != nil {
		s.notifier.NotifyMessage(ctx, session.OtherParticipant(authorID), authorID, sessionID)
	}
	return msg, nil
}

func (s *service) publish(ctx context.Context, msg *Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Errorw("encoding message event", "session_id", msg.SessionID, "error", err)
		return
	}
	// The message is already persisted; a lost live event only means
	// subscribers catch up on their next snapshot.
	if err := s.bus.Publish(ctx, sessionChannel(msg.SessionID), payload); err != nil {
		s.log.Warnw("publishing message event", "session_id", msg.SessionID, "error", err)
	}
}

// ListMessages returns the session history oldest first
func (s *service) ListMessages(ctx context.Context, sessionID string, userID int64) ([]*Message, error) {
	if _, err := s.authorize(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, sessionID)
}

// Subscribe delivers the full session history followed by live
// appends, with no drops or duplicates across the seam. The live
// stream is opened before the snapshot is read, and live events are
// deduplicated against the snapshot by message id. A timestamp
// horizon would not do here: timestamp allocation and the insert are
// separate statements, so a message with an earlier timestamp can
// land after the snapshot was read and must still be delivered.
func (s *service) Subscribe(ctx context.Context, sessionID string, userID int64) (<-chan *Message, error) {
	if _, err := s.authorize(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	live, err := s.sub.Subscribe(ctx, sessionChannel(sessionID))
	if err != nil {
		return nil, err
	}

	snapshot, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make(chan *Message, len(snapshot)+16)

	go func() {
		defer close(out)

		seen := s.replaySnapshot(ctx, out, snapshot)

		for {
			select {
			case payload, ok := <-live:
				if !ok {
					return
				}
				var msg Message
				if err := json.Unmarshal(payload, &msg); err != nil {
					s.log.Warnw("decoding message event", "session_id", sessionID, "error", err)
					continue
				}
				if _, dup := seen[msg.ID]; dup {
					continue
				}
				seen[msg.ID] = struct{}{}
				select {
				case out <- &msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// replaySnapshot pushes the snapshot into out and returns the set of
// message ids it contained.
func (s *service) replaySnapshot(ctx context.Context, out chan<- *Message, snapshot []*Message) map[int64]struct{} {
	seen := make(map[int64]struct{}, len(snapshot))
	for _, msg := range snapshot {
		seen[msg.ID] = struct{}{}
		select {
		case out <- msg:
		case <-ctx.Done():
			return seen
		}
	}
	return seen
}

func (s *service) authorize(ctx context.Context, sessionID string, userID int64) (*Session, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return session, nil
}
