package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peerfit/peerfit-backend/internal/profile"
)

// fakeRepository keeps posts, likes, and replies in memory. Like
// counts are derived from the like set on every read, mirroring the
// production queries.
type fakeRepository struct {
	mu      sync.Mutex
	posts   map[int64]*Post
	likes   map[int64]map[int64]bool
	replies []*Reply
	nextID  int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		posts: make(map[int64]*Post),
		likes: make(map[int64]map[int64]bool),
	}
}

func (r *fakeRepository) CreatePost(_ context.Context, post *Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	post.ID = r.nextID
	post.CreatedAt = time.Now()
	row := *post
	r.posts[post.ID] = &row
	r.likes[post.ID] = make(map[int64]bool)
	return nil
}

func (r *fakeRepository) GetPost(_ context.Context, postID, viewerID int64) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return nil, ErrPostNotFound
	}
	row := *post
	row.LikeCount = len(r.likes[postID])
	row.LikedByViewer = r.likes[postID][viewerID]
	return &row, nil
}

func (r *fakeRepository) ListPosts(_ context.Context, viewerID int64) ([]*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Post
	for id := r.nextID; id >= 1; id-- {
		post, ok := r.posts[id]
		if !ok {
			continue
		}
		row := *post
		row.LikeCount = len(r.likes[id])
		row.LikedByViewer = r.likes[id][viewerID]
		out = append(out, &row)
	}
	return out, nil
}

func (r *fakeRepository) ToggleLike(_ context.Context, postID, userID int64) (*LikeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[postID]; !ok {
		return nil, ErrPostNotFound
	}
	set := r.likes[postID]
	liked := !set[userID]
	if liked {
		set[userID] = true
	} else {
		delete(set, userID)
	}
	return &LikeResult{PostID: postID, Liked: liked, LikeCount: len(set)}, nil
}

func (r *fakeRepository) CreateReply(_ context.Context, reply *Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	reply.ID = r.nextID
	reply.CreatedAt = time.Now()
	row := *reply
	r.replies = append(r.replies, &row)
	return nil
}

func (r *fakeRepository) GetReply(_ context.Context, replyID int64) (*Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reply := range r.replies {
		if reply.ID == replyID {
			row := *reply
			return &row, nil
		}
	}
	return nil, ErrReplyNotFound
}

func (r *fakeRepository) ListReplies(_ context.Context, postID int64) ([]*Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Reply
	for _, reply := range r.replies {
		if reply.PostID == postID {
			row := *reply
			out = append(out, &row)
		}
	}
	return out, nil
}

type fakeProfiles struct {
	users map[int64]string
}

func (p *fakeProfiles) GetByID(_ context.Context, id int64) (*profile.Profile, error) {
	name, ok := p.users[id]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return &profile.Profile{ID: id, Username: name}, nil
}

func (p *fakeProfiles) GetByUsername(_ context.Context, username string) (*profile.Profile, error) {
	for id, name := range p.users {
		if name == username {
			return &profile.Profile{ID: id, Username: name}, nil
		}
	}
	return nil, profile.ErrProfileNotFound
}

type event struct {
	kind             string
	recipient, actor int64
	postID           int64
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *fakeNotifier) record(kind string, recipientID, actorID, postID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event{kind, recipientID, actorID, postID})
}

func (n *fakeNotifier) NotifyLike(_ context.Context, recipientID, actorID, postID int64) {
	n.record("like", recipientID, actorID, postID)
}

func (n *fakeNotifier) NotifyComment(_ context.Context, recipientID, actorID, postID int64) {
	n.record("comment", recipientID, actorID, postID)
}

func (n *fakeNotifier) NotifyMention(_ context.Context, recipientID, actorID, postID int64) {
	n.record("mention", recipientID, actorID, postID)
}

func (n *fakeNotifier) ofKind(kind string) []event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []event
	for _, e := range n.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(repo Repository, notifier Notifier) Service {
	profiles := &fakeProfiles{users: map[int64]string{1: "alice", 2: "bob", 3: "carol"}}
	return NewService(repo, profiles, notifier, 2000, zap.NewNop())
}

func TestToggleLikeInvolution(t *testing.T) {
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 1, "morning run done")
	require.NoError(t, err)

	first, err := svc.ToggleLike(ctx, post.ID, 2)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, 1, first.LikeCount)

	second, err := svc.ToggleLike(ctx, post.ID, 2)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, 0, second.LikeCount)

	// Count follows membership at every observed state.
	got, err := svc.GetPost(ctx, post.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikeCount)
	assert.False(t, got.LikedByViewer)

	// Only the like transition notified, not the unlike.
	likes := notifier.ofKind("like")
	require.Len(t, likes, 1)
	assert.Equal(t, int64(1), likes[0].recipient)
	assert.Equal(t, int64(2), likes[0].actor)
}

func TestToggleLikeOwnPostNoNotify(t *testing.T) {
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 1, "self five")
	require.NoError(t, err)

	// The service hands the event to the fan-out engine, which drops
	// actor == recipient; here the seam records it, so assert on the
	// recipient instead.
	result, err := svc.ToggleLike(ctx, post.ID, 1)
	require.NoError(t, err)
	assert.True(t, result.Liked)

	likes := notifier.ofKind("like")
	require.Len(t, likes, 1)
	assert.Equal(t, likes[0].recipient, likes[0].actor)
}

func TestCreateReplyNotifiesAuthorAndMentions(t *testing.T) {
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 1, "who's up for tennis")
	require.NoError(t, err)

	_, err = svc.CreateReply(ctx, post.ID, 2, nil, "count me in, also @carol")
	require.NoError(t, err)

	comments := notifier.ofKind("comment")
	require.Len(t, comments, 1)
	assert.Equal(t, int64(1), comments[0].recipient)

	mentions := notifier.ofKind("mention")
	require.Len(t, mentions, 1)
	assert.Equal(t, int64(3), mentions[0].recipient)
}

func TestCreateReplyParentChecks(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	postA, err := svc.CreatePost(ctx, 1, "post a")
	require.NoError(t, err)
	postB, err := svc.CreatePost(ctx, 1, "post b")
	require.NoError(t, err)

	parent, err := svc.CreateReply(ctx, postA.ID, 2, nil, "root reply")
	require.NoError(t, err)

	_, err = svc.CreateReply(ctx, postB.ID, 2, &parent.ID, "wrong post")
	assert.ErrorIs(t, err, ErrParentMismatch)

	missing := int64(999)
	_, err = svc.CreateReply(ctx, postA.ID, 2, &missing, "no such parent")
	assert.ErrorIs(t, err, ErrReplyNotFound)
}

func TestCreatePostEmptyContent(t *testing.T) {
	svc := newTestService(newFakeRepository(), nil)

	_, err := svc.CreatePost(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestCreatePostTooLong(t *testing.T) {
	svc := newTestService(newFakeRepository(), nil)

	long := make([]byte, 2001)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.CreatePost(context.Background(), 1, string(long))
	assert.ErrorIs(t, err, ErrContentTooLong)
}

func TestGetReplyTree(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 1, "route suggestions?")
	require.NoError(t, err)

	root, err := svc.CreateReply(ctx, post.ID, 2, nil, "the river loop")
	require.NoError(t, err)
	_, err = svc.CreateReply(ctx, post.ID, 1, &root.ID, "too muddy this week")
	require.NoError(t, err)

	forest, err := svc.GetReplyTree(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, root.ID, forest[0].Reply.ID)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "too muddy this week", forest[0].Children[0].Reply.Content)
}

func TestCreatePostFansOutMentions(t *testing.T) {
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	_, err := svc.CreatePost(context.Background(), 1, "great game @bob and @nobody")
	require.NoError(t, err)

	mentions := notifier.ofKind("mention")
	require.Len(t, mentions, 1, "unknown usernames are skipped")
	assert.Equal(t, int64(2), mentions[0].recipient)
}
