// internal/follow/service.go
// Follow saga: the "following" side of the edge is the source of truth
// and is written first. The mirrored "followers" side is retried, and
// a compensating rollback restores symmetry when the mirror cannot be
// written.

package follow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrSelfFollow is returned when a user tries to follow themselves
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrUserNotFound is returned when either side of the edge is missing
	ErrUserNotFound = errors.New("user not found")

	// ErrPartialGraphUpdate is returned when the mirror write and its
	// rollback both fail, leaving an asymmetric edge for the sweeper.
	ErrPartialGraphUpdate = errors.New("follow graph left partially updated")
)

const retryBackoff = 50 * time.Millisecond

// Notifier is the seam to the notification fan-out. Only transitions
// are announced, never idempotent re-follows.
type Notifier interface {
	NotifyFollow(ctx context.Context, recipientID, actorID int64)
}

// Service defines follow graph operations
type Service interface {
	Follow(ctx context.Context, userID, targetID int64) error
	Unfollow(ctx context.Context, userID, targetID int64) error
	Following(ctx context.Context, userID int64) ([]int64, error)
	Followers(ctx context.Context, userID int64) ([]int64, error)
}

type service struct {
	repo     Repository
	notifier Notifier
	retryMax int
	log      *zap.SugaredLogger
}

// NewService creates a new follow service. retryMax bounds the mirror
// write attempts before the saga rolls back.
func NewService(repo Repository, notifier Notifier, retryMax int, log *zap.Logger) Service {
	if retryMax < 1 {
		retryMax = 1
	}
	return &service{
		repo:     repo,
		notifier: notifier,
		retryMax: retryMax,
		log:      log.Sugar().Named("follow"),
	}
}

// Follow makes userID follow targetID. Idempotent: following an
// already-followed user changes nothing and emits nothing.
func (s *service) Follow(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return ErrSelfFollow
	}
	if err := s.checkTarget(ctx, targetID); err != nil {
		return err
	}

	changed, err := s.repo.AddFollowing(ctx, userID, targetID)
	if err != nil {
		return fmt.Errorf("adding following edge: %w", err)
	}
	if !changed {
		// Already following. The mirror is assumed consistent.
		return nil
	}

	if err := s.mirror(ctx, func() (bool, error) {
		return s.repo.AddFollower(ctx, targetID, userID)
	}); err != nil {
		// Compensate: undo the forward edge so neither side shows the
		// relationship. A failed rollback surfaces as a partial update.
		if _, rbErr := s.repo.RemoveFollowing(ctx, userID, targetID); rbErr != nil {
			s.log.Errorw("follow rollback failed",
				"user_id", userID, "target_id", targetID, "error", rbErr)
			return fmt.Errorf("%w: %v", ErrPartialGraphUpdate, err)
		}
		s.log.Warnw("follow rolled back after mirror failure",
			"user_id", userID, "target_id", targetID, "error", err)
		return fmt.Errorf("updating follower edge: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyFollow(ctx, targetID, userID)
	}
	return nil
}

// Unfollow removes the edge in both directions. Idempotent.
func (s *service) Unfollow(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return ErrSelfFollow
	}
	if err := s.checkTarget(ctx, targetID); err != nil {
		return err
	}

	changed, err := s.repo.RemoveFollowing(ctx, userID, targetID)
	if err != nil {
		return fmt.Errorf("removing following edge: %w", err)
	}
	if !changed {
		return nil
	}

	if err := s.mirror(ctx, func() (bool, error) {
		return s.repo.RemoveFollower(ctx, targetID, userID)
	}); err != nil {
		if _, rbErr := s.repo.AddFollowing(ctx, userID, targetID); rbErr != nil {
			s.log.Errorw("unfollow rollback failed",
				"user_id", userID, "target_id", targetID, "error", rbErr)
			return fmt.Errorf("%w: %v", ErrPartialGraphUpdate, err)
		}
		s.log.Warnw("unfollow rolled back after mirror failure",
			"user_id", userID, "target_id", targetID, "error", err)
		return fmt.Errorf("updating follower edge: %w", err)
	}
	return nil
}

// mirror runs the followers-side write with bounded retries. The
// changed flag is ignored here: a false result means the mirror was
// already consistent, which is fine.
func (s *service) mirror(ctx context.Context, fn func() (bool, error)) error {
	var err error
	for attempt := 0; attempt < s.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
		if _, err = fn(); err == nil {
			return nil
		}
	}
	return err
}

func (s *service) checkTarget(ctx context.Context, targetID int64) error {
	exists, err := s.repo.UserExists(ctx, targetID)
	if err != nil {
		return fmt.Errorf("checking target user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

// Following returns the ids the user follows
func (s *service) Following(ctx context.Context, userID int64) ([]int64, error) {
	return s.repo.Following(ctx, userID)
}

// Followers returns the ids following the user
func (s *service) Followers(ctx context.Context, userID int64) ([]int64, error) {
	return s.repo.Followers(ctx, userID)
}
