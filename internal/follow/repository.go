// internal/follow/repository.go
// Single-row atomic edge mutations. Each call touches exactly one user
// row; the two-row symmetry invariant is the service's saga to keep.

package follow

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository defines the per-row edge primitives. Every mutation
// reports whether it changed anything, so the service can tell a real
// state transition from an idempotent no-op.
type Repository interface {
	AddFollowing(ctx context.Context, userID, targetID int64) (bool, error)
	RemoveFollowing(ctx context.Context, userID, targetID int64) (bool, error)
	AddFollower(ctx context.Context, userID, followerID int64) (bool, error)
	RemoveFollower(ctx context.Context, userID, followerID int64) (bool, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
	Following(ctx context.Context, userID int64) ([]int64, error)
	Followers(ctx context.Context, userID int64) ([]int64, error)
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// AddFollowing appends targetID to userID's following set if absent.
// The guard keeps the append idempotent under concurrent writers: the
// row is only touched when the membership test fails, in one statement.
func (r *postgresRepository) AddFollowing(ctx context.Context, userID, targetID int64) (bool, error) {
	query := `
		UPDATE users
		SET following = array_append(following, $2), updated_at = NOW()
		WHERE id = $1 AND NOT (following @> ARRAY[$2]::bigint[])`

	return r.exec(ctx, query, userID, targetID)
}

// RemoveFollowing removes targetID from userID's following set
func (r *postgresRepository) RemoveFollowing(ctx context.Context, userID, targetID int64) (bool, error) {
	query := `
		UPDATE users
		SET following = array_remove(following, $2), updated_at = NOW()
		WHERE id = $1 AND following @> ARRAY[$2]::bigint[]`

	return r.exec(ctx, query, userID, targetID)
}

// AddFollower appends followerID to userID's followers set if absent
func (r *postgresRepository) AddFollower(ctx context.Context, userID, followerID int64) (bool, error) {
	query := `
		UPDATE users
		SET followers = array_append(followers, $2), updated_at = NOW()
		WHERE id = $1 AND NOT (followers @> ARRAY[$2]::bigint[])`

	return r.exec(ctx, query, userID, followerID)
}

// RemoveFollower removes followerID from userID's followers set
func (r *postgresRepository) RemoveFollower(ctx context.Context, userID, followerID int64) (bool, error) {
	query := `
		UPDATE users
		SET followers = array_remove(followers, $2), updated_at = NOW()
		WHERE id = $1 AND followers @> ARRAY[$2]::bigint[]`

	return r.exec(ctx, query, userID, followerID)
}

func (r *postgresRepository) exec(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("edge update failed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// UserExists reports whether the user row exists
func (r *postgresRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	err := r.db.GetContext(ctx, &exists, query, userID)
	return exists, err
}

// Following returns the ids the user follows
func (r *postgresRepository) Following(ctx context.Context, userID int64) ([]int64, error) {
	return r.edgeList(ctx, `SELECT unnest(following) FROM users WHERE id = $1`, userID)
}

// Followers returns the ids following the user
func (r *postgresRepository) Followers(ctx context.Context, userID int64) ([]int64, error) {
	return r.edgeList(ctx, `SELECT unnest(followers) FROM users WHERE id = $1`, userID)
}

func (r *postgresRepository) edgeList(ctx context.Context, query string, userID int64) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("edge list failed: %w", err)
	}
	return ids, nil
}
