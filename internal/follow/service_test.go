package follow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRepository keeps both edge sides in memory and can be told to
// fail specific follower-side calls to exercise the saga paths.
type fakeRepository struct {
	mu        sync.Mutex
	following map[int64]map[int64]bool
	followers map[int64]map[int64]bool
	users     map[int64]bool

	// failFollowerCalls makes the next N follower-side mutations fail.
	failFollowerCalls int
	// failRemoveFollowing makes the compensating RemoveFollowing fail.
	failRemoveFollowing bool

	followerAttempts int
}

func newFakeRepository(users ...int64) *fakeRepository {
	r := &fakeRepository{
		following: make(map[int64]map[int64]bool),
		followers: make(map[int64]map[int64]bool),
		users:     make(map[int64]bool),
	}
	for _, id := range users {
		r.users[id] = true
	}
	return r
}

func edgeAdd(m map[int64]map[int64]bool, owner, member int64) bool {
	set := m[owner]
	if set == nil {
		set = make(map[int64]bool)
		m[owner] = set
	}
	if set[member] {
		return false
	}
	set[member] = true
	return true
}

func edgeRemove(m map[int64]map[int64]bool, owner, member int64) bool {
	if !m[owner][member] {
		return false
	}
	delete(m[owner], member)
	return true
}

func (r *fakeRepository) AddFollowing(_ context.Context, userID, targetID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return edgeAdd(r.following, userID, targetID), nil
}

func (r *fakeRepository) RemoveFollowing(_ context.Context, userID, targetID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failRemoveFollowing {
		return false, errors.New("following write failed")
	}
	return edgeRemove(r.following, userID, targetID), nil
}

func (r *fakeRepository) followerSide(fn func() bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.followerAttempts++
	if r.failFollowerCalls > 0 {
		r.failFollowerCalls--
		return false, errors.New("follower write failed")
	}
	return fn(), nil
}

func (r *fakeRepository) AddFollower(_ context.Context, userID, followerID int64) (bool, error) {
	return r.followerSide(func() bool { return edgeAdd(r.followers, userID, followerID) })
}

func (r *fakeRepository) RemoveFollower(_ context.Context, userID, followerID int64) (bool, error) {
	return r.followerSide(func() bool { return edgeRemove(r.followers, userID, followerID) })
}

func (r *fakeRepository) UserExists(_ context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID], nil
}

func (r *fakeRepository) Following(_ context.Context, userID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id := range r.following[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeRepository) Followers(_ context.Context, userID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id := range r.followers[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []struct{ recipient, actor int64 }
}

func (n *fakeNotifier) NotifyFollow(_ context.Context, recipientID, actorID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, struct{ recipient, actor int64 }{recipientID, actorID})
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func newTestService(repo *fakeRepository, notifier Notifier, retryMax int) Service {
	return NewService(repo, notifier, retryMax, zap.NewNop())
}

func (r *fakeRepository) symmetric(a, b int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.following[a][b] == r.followers[b][a]
}

func TestFollowSymmetry(t *testing.T) {
	repo := newFakeRepository(1, 2)
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, 3)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, 1, 2))
	assert.True(t, repo.following[1][2])
	assert.True(t, repo.followers[2][1])
	assert.True(t, repo.symmetric(1, 2))
	assert.Equal(t, 1, notifier.count())

	require.NoError(t, svc.Unfollow(ctx, 1, 2))
	assert.False(t, repo.following[1][2])
	assert.False(t, repo.followers[2][1])
	assert.True(t, repo.symmetric(1, 2))
}

func TestFollowIdempotent(t *testing.T) {
	repo := newFakeRepository(1, 2)
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, 3)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, 1, 2))
	require.NoError(t, svc.Follow(ctx, 1, 2))
	require.NoError(t, svc.Follow(ctx, 1, 2))

	assert.True(t, repo.symmetric(1, 2))
	assert.Equal(t, 1, notifier.count(), "only the transition should notify")

	require.NoError(t, svc.Unfollow(ctx, 1, 2))
	require.NoError(t, svc.Unfollow(ctx, 1, 2))
	assert.True(t, repo.symmetric(1, 2))
	assert.Equal(t, 1, notifier.count())
}

func TestFollowSelf(t *testing.T) {
	repo := newFakeRepository(1)
	svc := newTestService(repo, nil, 3)

	err := svc.Follow(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrSelfFollow)

	err = svc.Unfollow(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrSelfFollow)
}

func TestFollowUnknownTarget(t *testing.T) {
	repo := newFakeRepository(1)
	svc := newTestService(repo, nil, 3)

	err := svc.Follow(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFollowMirrorRetries(t *testing.T) {
	repo := newFakeRepository(1, 2)
	repo.failFollowerCalls = 2
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, 3)

	require.NoError(t, svc.Follow(context.Background(), 1, 2))
	assert.Equal(t, 3, repo.followerAttempts)
	assert.True(t, repo.symmetric(1, 2))
	assert.Equal(t, 1, notifier.count())
}

func TestFollowRollbackOnMirrorFailure(t *testing.T) {
	repo := newFakeRepository(1, 2)
	repo.failFollowerCalls = 5
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, 3)

	err := svc.Follow(context.Background(), 1, 2)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPartialGraphUpdate)

	// Rolled back: neither side shows the edge, nothing notified.
	assert.False(t, repo.following[1][2])
	assert.False(t, repo.followers[2][1])
	assert.Equal(t, 0, notifier.count())
}

func TestFollowPartialUpdateWhenRollbackFails(t *testing.T) {
	repo := newFakeRepository(1, 2)
	svc := newTestService(repo, nil, 2)

	// Forward edge lands, then the mirror and the compensating write
	// both fail.
	repo.failFollowerCalls = 2
	repo.failRemoveFollowing = true

	err := svc.Follow(context.Background(), 1, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialGraphUpdate)
	assert.True(t, repo.following[1][2], "forward edge remains for the repair sweep")
	assert.False(t, repo.followers[2][1])
}

func TestUnfollowRollbackRestoresEdge(t *testing.T) {
	repo := newFakeRepository(1, 2)
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, 2)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, 1, 2))

	repo.failFollowerCalls = 2
	err := svc.Unfollow(ctx, 1, 2)
	require.Error(t, err)

	// Rollback re-added the following edge, so both sides still agree.
	assert.True(t, repo.following[1][2])
	assert.True(t, repo.followers[2][1])
}
