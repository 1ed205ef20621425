// internal/feed/repository.go
// PostgreSQL persistence for posts, likes, and replies. The like
// toggle is one statement, so two racing toggles serialize at the
// database and the derived count always matches the membership rows.

package feed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrPostNotFound is returned when a post doesn't exist
	ErrPostNotFound = errors.New("post not found")

	// ErrReplyNotFound is returned when a reply doesn't exist
	ErrReplyNotFound = errors.New("reply not found")
)

// Repository defines feed persistence operations
type Repository interface {
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, postID, viewerID int64) (*Post, error)
	ListPosts(ctx context.Context, viewerID int64) ([]*Post, error)
	ToggleLike(ctx context.Context, postID, userID int64) (*LikeResult, error)
	CreateReply(ctx context.Context, reply *Reply) error
	GetReply(ctx context.Context, replyID int64) (*Reply, error)
	ListReplies(ctx context.Context, postID int64) ([]*Reply, error)
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// CreatePost inserts a post and fills in id and createdAt
func (r *postgresRepository) CreatePost(ctx context.Context, post *Post) error {
	query := `
		INSERT INTO posts (author_id, author_username, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query, post.AuthorID, post.AuthorUsername, post.Content).
		Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating post: %w", err)
	}
	return nil
}

const postSelect = `
	SELECT p.id, p.author_id, p.author_username, p.content, p.created_at,
		(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id) AS like_count,
		EXISTS(SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $1) AS liked_by_viewer
	FROM posts p`

// GetPost retrieves a post with its derived like state for the viewer
func (r *postgresRepository) GetPost(ctx context.Context, postID, viewerID int64) (*Post, error) {
	var post Post
	query := postSelect + ` WHERE p.id = $2`

	err := r.db.GetContext(ctx, &post, query, viewerID, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("getting post: %w", err)
	}
	return &post, nil
}

// ListPosts returns all posts newest first with the viewer's like state
func (r *postgresRepository) ListPosts(ctx context.Context, viewerID int64) ([]*Post, error) {
	var posts []*Post
	query := postSelect + ` ORDER BY p.created_at DESC, p.id DESC`

	if err := r.db.SelectContext(ctx, &posts, query, viewerID); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// ToggleLike flips the user's like on the post in one statement.
// The delete runs first; if it removed nothing, the insert runs. The
// returned count is recomputed from the like rows in the same
// statement, so concurrent toggles can never desynchronize it.
func (r *postgresRepository) ToggleLike(ctx context.Context, postID, userID int64) (*LikeResult, error) {
	query := `
		WITH removed AS (
			DELETE FROM post_likes
			WHERE post_id = $1 AND user_id = $2
			RETURNING 1
		), added AS (
			INSERT INTO post_likes (post_id, user_id)
			SELECT $1, $2
			WHERE NOT EXISTS (SELECT 1 FROM removed)
			ON CONFLICT (post_id, user_id) DO NOTHING
			RETURNING 1
		)
		SELECT
			EXISTS(SELECT 1 FROM added) AS liked,
			(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = $1)
				- (SELECT COUNT(*) FROM removed)
				+ (SELECT COUNT(*) FROM added) AS like_count`

	var result LikeResult
	result.PostID = postID
	err := r.db.QueryRowxContext(ctx, query, postID, userID).Scan(&result.Liked, &result.LikeCount)
	if err != nil {
		return nil, fmt.Errorf("toggling like: %w", err)
	}
	return &result, nil
}

// CreateReply inserts a reply and fills in id and createdAt
func (r *postgresRepository) CreateReply(ctx context.Context, reply *Reply) error {
	query := `
		INSERT INTO post_replies (post_id, author_id, author_username, parent_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		reply.PostID, reply.AuthorID, reply.AuthorUsername, reply.ParentID, reply.Content,
	).Scan(&reply.ID, &reply.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating reply: %w", err)
	}
	return nil
}

// GetReply retrieves a reply by id
func (r *postgresRepository) GetReply(ctx context.Context, replyID int64) (*Reply, error) {
	var reply Reply
	query := `
		SELECT id, post_id, author_id, author_username, parent_id, content, created_at
		FROM post_replies
		WHERE id = $1`

	err := r.db.GetContext(ctx, &reply, query, replyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReplyNotFound
		}
		return nil, fmt.Errorf("getting reply: %w", err)
	}
	return &reply, nil
}

// ListReplies returns the post's replies in creation order
func (r *postgresRepository) ListReplies(ctx context.Context, postID int64) ([]*Reply, error) {
	var replies []*Reply
	query := `
		SELECT id, post_id, author_id, author_username, parent_id, content, created_at
		FROM post_replies
		WHERE post_id = $1
		ORDER BY created_at ASC, id ASC`

	if err := r.db.SelectContext(ctx, &replies, query, postID); err != nil {
		return nil, fmt.Errorf("listing replies: %w", err)
	}
	return replies, nil
}
