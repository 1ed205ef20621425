// internal/profile/repository.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUsernameTaken   = errors.New("username already taken")
)

const profileColumns = `
	id, username, display_name, location, bio, sports,
	following, followers, deactivated_at, created_at, updated_at`

// Repository defines the profile store interface.
// Each operation is atomic for a single profile row; cross-profile
// consistency (the follow graph) is the follow package's job.
type Repository interface {
	Create(ctx context.Context, req *CreateProfileRequest) (*Profile, error)
	GetByID(ctx context.Context, id int64) (*Profile, error)
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	GetAll(ctx context.Context) ([]*Profile, error)
	Update(ctx context.Context, id int64, req *UpdateProfileRequest) (*Profile, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Deactivate(ctx context.Context, id int64) error
	Reactivate(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// Create inserts a new profile row
func (r *postgresRepository) Create(ctx context.Context, req *CreateProfileRequest) (*Profile, error) {
	query := `
		INSERT INTO users (username, display_name, location, bio, sports, following, followers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '{}', '{}', NOW(), NOW())
		RETURNING ` + profileColumns

	var profile Profile
	err := r.db.GetContext(ctx, &profile, query,
		req.Username, req.DisplayName, req.Location, req.Bio, req.Sports)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return &profile, nil
}

// GetByID retrieves a profile by user id
func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Profile, error) {
	var profile Profile
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &profile, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

// GetByUsername retrieves a profile by its unique username
func (r *postgresRepository) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	var profile Profile
	query := `SELECT ` + profileColumns + ` FROM users WHERE username = $1`

	err := r.db.GetContext(ctx, &profile, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by username: %w", err)
	}

	return &profile, nil
}

// GetAll retrieves every active profile
func (r *postgresRepository) GetAll(ctx context.Context) ([]*Profile, error) {
	var profiles []*Profile
	query := `SELECT ` + profileColumns + ` FROM users WHERE deactivated_at IS NULL ORDER BY id`

	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	return profiles, nil
}

// Update applies a merge-style update: only non-nil fields are written
func (r *postgresRepository) Update(ctx context.Context, id int64, req *UpdateProfileRequest) (*Profile, error) {
	var setClauses []string
	var args []interface{}
	argCount := 1

	if req.DisplayName != nil {
		setClauses = append(setClauses, fmt.Sprintf("display_name = $%d", argCount))
		args = append(args, *req.DisplayName)
		argCount++
	}
	if req.Location != nil {
		setClauses = append(setClauses, fmt.Sprintf("location = $%d", argCount))
		args = append(args, *req.Location)
		argCount++
	}
	if req.Bio != nil {
		setClauses = append(setClauses, fmt.Sprintf("bio = $%d", argCount))
		args = append(args, *req.Bio)
		argCount++
	}
	if req.Sports != nil {
		setClauses = append(setClauses, fmt.Sprintf("sports = $%d", argCount))
		args = append(args, *req.Sports)
		argCount++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argCount))
	args = append(args, time.Now())
	argCount++

	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`,
		strings.Join(setClauses, ", "), argCount)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, ErrProfileNotFound
	}

	return r.GetByID(ctx, id)
}

// UsernameExists checks username uniqueness
func (r *postgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	err := r.db.GetContext(ctx, &exists, query, username)
	return exists, err
}

// Deactivate soft-deletes the profile; the row stays readable by id
func (r *postgresRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE users SET deactivated_at = NOW(), updated_at = NOW() WHERE id = $1 AND deactivated_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate profile: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		// Already deactivated or missing; distinguish for the caller
		exists, err := r.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrProfileNotFound
		}
	}
	return nil
}

// Reactivate restores a soft-deleted profile
func (r *postgresRepository) Reactivate(ctx context.Context, id int64) error {
	query := `UPDATE users SET deactivated_at = NULL, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to reactivate profile: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// Exists reports whether a profile row exists, active or not
func (r *postgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	err := r.db.GetContext(ctx, &exists, query, id)
	return exists, err
}
