// internal/feed/service.go
// Feed engagement engine: like toggling, replies, and the domain
// events they fan out. Like events fire only on the not-liked → liked
// transition, never on the way back.

package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/peerfit/peerfit-backend/internal/profile"
)

var (
	// ErrEmptyContent is returned for empty or whitespace-only content
	ErrEmptyContent = errors.New("content is empty")

	// ErrContentTooLong is returned when content exceeds the limit
	ErrContentTooLong = errors.New("content exceeds length limit")

	// ErrParentMismatch is returned when a reply's parent does not
	// belong to the same post.
	ErrParentMismatch = errors.New("parent reply belongs to a different post")
)

// Notifier is the seam to the notification fan-out.
type Notifier interface {
	NotifyLike(ctx context.Context, recipientID, actorID, postID int64)
	NotifyComment(ctx context.Context, recipientID, actorID, postID int64)
	NotifyMention(ctx context.Context, recipientID, actorID, postID int64)
}

// ProfileSource supplies author identity and mention resolution.
type ProfileSource interface {
	GetByID(ctx context.Context, id int64) (*profile.Profile, error)
	GetByUsername(ctx context.Context, username string) (*profile.Profile, error)
}

// Service defines feed operations
type Service interface {
	CreatePost(ctx context.Context, authorID int64, content string) (*Post, error)
	GetPost(ctx context.Context, postID, viewerID int64) (*Post, error)
	ListPosts(ctx context.Context, viewerID int64) ([]*Post, error)
	ToggleLike(ctx context.Context, postID, userID int64) (*LikeResult, error)
	CreateReply(ctx context.Context, postID, authorID int64, parentID *int64, content string) (*Reply, error)
	GetReplyTree(ctx context.Context, postID int64) ([]*ReplyNode, error)
}

type service struct {
	repo       Repository
	profiles   ProfileSource
	notifier   Notifier
	maxContent int
	log        *zap.SugaredLogger
}

// NewService creates a new feed service. maxContent bounds post and
// reply length in bytes.
func NewService(repo Repository, profiles ProfileSource, notifier Notifier, maxContent int, log *zap.Logger) Service {
	if maxContent < 1 {
		maxContent = 2000
	}
	return &service{
		repo:       repo,
		profiles:   profiles,
		notifier:   notifier,
		maxContent: maxContent,
		log:        log.Sugar().Named("feed"),
	}
}

func (s *service) checkContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if len(content) > s.maxContent {
		return "", ErrContentTooLong
	}
	return content, nil
}

// CreatePost creates a post and fans out mention events
func (s *service) CreatePost(ctx context.Context, authorID int64, content string) (*Post, error) {
	content, err := s.checkContent(content)
	if err != nil {
		return nil, err
	}

	author, err := s.profiles.GetByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("resolving author: %w", err)
	}

	post := &Post{
		AuthorID:       authorID,
		AuthorUsername: author.Username,
		Content:        content,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.fanOutMentions(ctx, content, authorID, post.ID)
	return post, nil
}

// GetPost returns the post with the viewer's like state
func (s *service) GetPost(ctx context.Context, postID, viewerID int64) (*Post, error) {
	return s.repo.GetPost(ctx, postID, viewerID)
}

// ListPosts returns all posts newest first
func (s *service) ListPosts(ctx context.Context, viewerID int64) ([]*Post, error) {
	return s.repo.ListPosts(ctx, viewerID)
}

// ToggleLike flips the user's like on the post. Applying it twice
// restores the original state. The like event fires only when the
// toggle lands on liked; self-likes are filtered downstream.
func (s *service) ToggleLike(ctx context.Context, postID, userID int64) (*LikeResult, error) {
	post, err := s.repo.GetPost(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if result.Liked && s.notifier != nil {
		s.notifier.NotifyLike(ctx, post.AuthorID, userID, postID)
	}
	return result, nil
}

// CreateReply appends a reply to the post, fanning out a comment
// event to the post author and mention events to mentioned users.
func (s *service) CreateReply(ctx context.Context, postID, authorID int64, parentID *int64, content string) (*Reply, error) {
	content, err := s.checkContent(content)
	if err != nil {
		return nil, err
	}

	post, err := s.repo.GetPost(ctx, postID, authorID)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := s.repo.GetReply(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, ErrParentMismatch
		}
	}

	author, err := s.profiles.GetByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("resolving author: %w", err)
	}

	reply := &Reply{
		PostID:         postID,
		AuthorID:       authorID,
		AuthorUsername: author.Username,
		ParentID:       parentID,
		Content:        content,
	}
	if err := s.repo.CreateReply(ctx, reply); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyComment(ctx, post.AuthorID, authorID, postID)
	}
	s.fanOutMentions(ctx, content, authorID, postID)
	return reply, nil
}

// GetReplyTree returns the post's replies as a forest
func (s *service) GetReplyTree(ctx context.Context, postID int64) ([]*ReplyNode, error) {
	if _, err := s.repo.GetPost(ctx, postID, 0); err != nil {
		return nil, err
	}
	replies, err := s.repo.ListReplies(ctx, postID)
	if err != nil {
		return nil, err
	}
	return BuildReplyTree(replies), nil
}

// fanOutMentions resolves @usernames to users and emits one mention
// event each. Unknown usernames are skipped silently.
func (s *service) fanOutMentions(ctx context.Context, content string, actorID, postID int64) {
	if s.notifier == nil {
		return
	}
	for _, name := range ExtractMentions(content) {
		mentioned, err := s.profiles.GetByUsername(ctx, name)
		if err != nil {
			if !errors.Is(err, profile.ErrProfileNotFound) {
				s.log.Warnw("resolving mention", "username", name, "error", err)
			}
			continue
		}
		s.notifier.NotifyMention(ctx, mentioned.ID, actorID, postID)
	}
}
