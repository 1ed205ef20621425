// internal/feed/models.go
// Post, like, and reply models

package feed

import "time"

// Post carries its like state as derived values: LikeCount is always
// computed from the like rows, never stored independently, so the
// count can't drift from the membership set.
type Post struct {
	ID             int64     `json:"id" db:"id"`
	AuthorID       int64     `json:"author_id" db:"author_id"`
	AuthorUsername string    `json:"author_username" db:"author_username"`
	Content        string    `json:"content" db:"content"`
	LikeCount      int       `json:"like_count" db:"like_count"`
	LikedByViewer  bool      `json:"liked_by_viewer" db:"liked_by_viewer"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Reply belongs to a post. ParentID, when set, references an earlier
// reply on the same post; the forest is rebuilt from this flat list.
type Reply struct {
	ID             int64     `json:"id" db:"id"`
	PostID         int64     `json:"post_id" db:"post_id"`
	AuthorID       int64     `json:"author_id" db:"author_id"`
	AuthorUsername string    `json:"author_username" db:"author_username"`
	ParentID       *int64    `json:"parent_id,omitempty" db:"parent_id"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ReplyNode is a reply with its resolved children
type ReplyNode struct {
	Reply    *Reply       `json:"reply"`
	Children []*ReplyNode `json:"children"`
}

// LikeResult reports the post's like state after a toggle
type LikeResult struct {
	PostID    int64 `json:"post_id"`
	Liked     bool  `json:"liked"`
	LikeCount int   `json:"like_count"`
}

// CreatePostRequest is the payload for creating a post
type CreatePostRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// CreateReplyRequest is the payload for replying to a post
type CreateReplyRequest struct {
	Content  string `json:"content" validate:"required,max=5000"`
	ParentID *int64 `json:"parent_id,omitempty"`
}
