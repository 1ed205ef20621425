// internal/notification/service.go
// Notification fan-out engine. Domain events become one unread record
// per recipient, published onto the recipient's change feed for badge
// updates. Read-state transitions are idempotent and markAllRead is an
// explicitly best-effort batch.

package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/peerfit/peerfit-backend/internal/profile"
	"github.com/peerfit/peerfit-backend/internal/stream"
)

// ErrUnknownType is returned when an event carries an unrecognized type
var ErrUnknownType = errors.New("unknown notification type")

// ProfileSource supplies actor identity for denormalization.
type ProfileSource interface {
	GetByID(ctx context.Context, id int64) (*profile.Profile, error)
}

// Service defines notification operations
type Service interface {
	Emit(ctx context.Context, typ Type, actorID, recipientID int64, ref Ref) error
	List(ctx context.Context, userID int64, unreadOnly bool) ([]*Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int, error)
	Subscribe(ctx context.Context, userID int64) (<-chan *Notification, error)
}

type service struct {
	repo     Repository
	profiles ProfileSource
	bus      stream.Publisher
	sub      stream.Subscriber
	log      *zap.SugaredLogger
}

// NewService creates a new notification service
func NewService(repo Repository, profiles ProfileSource, bus stream.Publisher, sub stream.Subscriber, log *zap.Logger) Service {
	return &service{
		repo:     repo,
		profiles: profiles,
		bus:      bus,
		sub:      sub,
		log:      log.Sugar().Named("notification"),
	}
}

func userChannel(userID int64) string {
	return fmt.Sprintf("notif:%d", userID)
}

// Emit creates one unread notification for the recipient. Self-notify
// is silently skipped so a user never hears about their own actions.
func (s *service) Emit(ctx context.Context, typ Type, actorID, recipientID int64, ref Ref) error {
	if !typ.Valid() {
		return ErrUnknownType
	}
	if actorID == recipientID {
		return nil
	}

	actor, err := s.profiles.GetByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("resolving actor: %w", err)
	}

	n := &Notification{
		RecipientID:   recipientID,
		ActorID:       actorID,
		ActorUsername: actor.Username,
		Type:          typ,
		PostID:        ref.PostID,
		SessionID:     ref.SessionID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	emittedTotal.WithLabelValues(string(typ)).Inc()

	s.publish(ctx, n)
	return nil
}

func (s *service) publish(ctx context.Context, n *Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		s.log.Errorw("encoding notification event", "notification_id", n.ID, "error", err)
		return
	}
	// Persisted already; a lost live event is recovered by the next
	// list query.
	if err := s.bus.Publish(ctx, userChannel(n.RecipientID), payload); err != nil {
		s.log.Warnw("publishing notification event",
			"recipient_id", n.RecipientID, "error", err)
	}
}

// List returns the user's notifications newest first
func (s *service) List(ctx context.Context, userID int64, unreadOnly bool) ([]*Notification, error) {
	return s.repo.ListByRecipient(ctx, userID, unreadOnly)
}

// CountUnread returns the user's unread badge count
func (s *service) CountUnread(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead flips one notification to read. Marking an already-read
// notification is a no-op, not an error.
func (s *service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	changed, err := s.repo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if changed {
		readTotal.Inc()
		return nil
	}

	// Distinguish "already read" from "not yours / missing".
	exists, err := s.repo.Exists(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every currently-unread notification read as a
// best-effort batch. A failed item is skipped, not fatal: it stays
// unread for a later retry. Returns how many flipped, with the item
// failures joined into the returned error.
func (s *service) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	ids, err := s.repo.ListUnreadIDs(ctx, userID)
	if err != nil {
		return 0, err
	}

	var marked int
	var errs []error
	for _, id := range ids {
		changed, err := s.repo.MarkRead(ctx, id, userID)
		if err != nil {
			s.log.Warnw("mark read failed in batch",
				"user_id", userID, "notification_id", id, "error", err)
			errs = append(errs, fmt.Errorf("notification %d: %w", id, err))
			continue
		}
		if changed {
			marked++
			readTotal.Inc()
		}
	}
	return marked, errors.Join(errs...)
}

// Subscribe streams the user's unread set: the currently-unread
// notifications newest first, then live events as they are created.
// The live stream is opened before the snapshot is read and the seam
// is deduplicated by notification id, so an event emitted in between
// arrives exactly once.
func (s *service) Subscribe(ctx context.Context, userID int64) (<-chan *Notification, error) {
	live, err := s.sub.Subscribe(ctx, userChannel(userID))
	if err != nil {
		return nil, err
	}

	snapshot, err := s.repo.ListByRecipient(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	out := make(chan *Notification, len(snapshot)+16)
	go func() {
		defer close(out)

		seen := make(map[int64]struct{}, len(snapshot))
		for _, n := range snapshot {
			seen[n.ID] = struct{}{}
			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case payload, ok := <-live:
				if !ok {
					return
				}
				var n Notification
				if err := json.Unmarshal(payload, &n); err != nil {
					s.log.Warnw("decoding notification event", "user_id", userID, "error", err)
					continue
				}
				if _, dup := seen[n.ID]; dup {
					continue
				}
				seen[n.ID] = struct{}{}
				select {
				case out <- &n:
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
