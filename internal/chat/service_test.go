package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peerfit/peerfit-backend/internal/profile"
	"github.com/peerfit/peerfit-backend/internal/stream"
)

// fakeRepository keeps sessions and messages in memory and assigns
// strictly increasing timestamps per session. holdInsert, when set,
// parks the next InsertMessage between its caller's timestamp
// allocation and the row landing, signalling insertWaiting first.
type fakeRepository struct {
	mu            sync.Mutex
	sessions      map[string]*Session
	messages      map[string][]*Message
	nextID        int64
	holdInsert    chan struct{}
	insertWaiting chan struct{}
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		sessions: make(map[string]*Session),
		messages: make(map[string][]*Message),
	}
}

func (r *fakeRepository) CreateIfAbsent(_ context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; ok {
		return nil
	}
	copy := *session
	copy.LastUpdated = time.Now()
	r.sessions[session.ID] = &copy
	return nil
}

func (r *fakeRepository) GetSession(_ context.Context, sessionID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copy := *session
	return &copy, nil
}

func (r *fakeRepository) ListSessionsForUser(_ context.Context, userID int64) ([]*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Session
	for _, s := range r.sessions {
		if s.HasParticipant(userID) {
			copy := *s
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *fakeRepository) AllocateTimestamp(_ context.Context, sessionID string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return time.Time{}, ErrSessionNotFound
	}
	next := time.Now()
	if !next.After(session.LastUpdated) {
		next = session.LastUpdated.Add(time.Microsecond)
	}
	session.LastUpdated = next
	return next, nil
}

func (r *fakeRepository) InsertMessage(_ context.Context, msg *Message) error {
	r.mu.Lock()
	hold, waiting := r.holdInsert, r.insertWaiting
	r.holdInsert, r.insertWaiting = nil, nil
	r.mu.Unlock()
	if hold != nil {
		close(waiting)
		<-hold
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	msg.ID = r.nextID
	copy := *msg
	r.messages[msg.SessionID] = append(r.messages[msg.SessionID], &copy)
	return nil
}

func (r *fakeRepository) ListMessages(_ context.Context, sessionID string) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Message, 0, len(r.messages[sessionID]))
	for _, m := range r.messages[sessionID] {
		copy := *m
		out = append(out, &copy)
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

type fakeNotifier struct {
	mu     sync.Mutex
	events []struct {
		recipient, actor int64
		sessionID        string
	}
}

func (n *fakeNotifier) NotifyMessage(_ context.Context, recipientID, actorID int64, sessionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, struct {
		recipient, actor int64
		sessionID        string
	}{recipientID, actorID, sessionID})
}

func newTestService(t *testing.T, repo Repository, notifier Notifier) Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	bus := stream.NewBus(rdb, stream.Options{BufferSize: 16, RetryMax: 2}, zap.NewNop())
	profiles := &fakeProfiles{users: map[int64]string{1: "alice", 2: "bob", 3: "carol"}}
	return NewService(repo, profiles, bus, bus, notifier, 2000, zap.NewNop())
}

func TestCanonicalSessionID(t *testing.T) {
	assert.Equal(t, "1_2", CanonicalSessionID(1, 2))
	assert.Equal(t, "1_2", CanonicalSessionID(2, 1))
	assert.Equal(t, "7_42", CanonicalSessionID(42, 7))
}

func TestGetOrCreateIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	s1, err := svc.GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	// Same pair from the other side resolves the same session.
	s2, err := svc.GetOrCreate(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, s1.ID, s2.ID)

	assert.Len(t, repo.sessions, 1)
	assert.Equal(t, int64(1), s1.ParticipantA)
	assert.Equal(t, int64(2), s1.ParticipantB)
}

func TestGetOrCreateSelf(t *testing.T) {
	svc := newTestService(t, newFakeRepository(), nil)

	_, err := svc.GetOrCreate(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrSelfChat)
}

func TestSendMessageTooLong(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	session, err := svc.GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	long := make([]byte, 2001)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.SendMessage(ctx, session.ID, 1, string(long))
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestSendMessageEmptyContentIsNoOp(t *testing.T) {
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(t, repo, notifier)
	ctx := context.Background()

	session, err := svc.GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, session.ID, 1, "   \n\t ")
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Empty(t, repo.messages[session.ID])
	assert.Empty(t, notifier.events)
}

func TestSendMessageNotifiesOtherParticipant(t *testing.T) {
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(t, repo, notifier)
	ctx := context.Background()

	session, err := svc.GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, session.ID, 1, "hi")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "alice", msg.AuthorUsername)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, int64(2), notifier.events[0].recipient)
	assert.Equal(t, int64(1), notifier.events[0].actor)
}

func TestSendMessageRequiresParticipant(t *testing.T) {
	svc := newTestService(t, newFakeRepository(), nil)
	ctx := context.Background()

	session, err := svc.GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, session.ID, 3, "let me in")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestMessageOrderingMonotonic(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	session, err := svc.GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	first, err := svc.SendMessage(ctx, session.ID, 1, "hi")
	require.NoError(t, err)
	second, err := svc.SendMessage(ctx, session.ID, 2, "hello")
	require.NoError(t, err)

	assert.True(t, second.SentAt.After(first.SentAt),
		"later send must get a strictly later timestamp")

	messages, err := svc.ListMessages(ctx, session.ID, 1)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, "hello", messages[1].Content)
}

func TestSubscribeSnapshotThenLive(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := svc.GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, session.ID, 1, "hi")
	require.NoError(t, err)

	stream, err := svc.Subscribe(ctx, session.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, "hi", recvMessage(t, stream).Content)

	_, err = svc.SendMessage(ctx, session.ID, 2, "hello")
	require.NoError(t, err)

	assert.Equal(t, "hello", recvMessage(t, stream).Content)
}

func TestSubscribeDeliversDelayedEarlierMessage(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := svc.GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	// Park the first sender after its timestamp allocation, before its
	// row lands.
	release := make(chan struct{})
	waiting := make(chan struct{})
	repo.mu.Lock()
	repo.holdInsert = release
	repo.insertWaiting = waiting
	repo.mu.Unlock()

	sent := make(chan struct{})
	go func() {
		defer close(sent)
		_, err := svc.SendMessage(ctx, session.ID, 1, "held back")
		assert.NoError(t, err)
	}()
	<-waiting

	// A second message with a later timestamp lands first.
	_, err = svc.SendMessage(ctx, session.ID, 2, "landed first")
	require.NoError(t, err)

	// The snapshot contains only the second message.
	stream, err := svc.Subscribe(ctx, session.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "landed first", recvMessage(t, stream).Content)

	close(release)
	<-sent

	// The held message's timestamp predates the snapshot's newest
	// entry, but it was never part of the snapshot and must still be
	// delivered.
	assert.Equal(t, "held back", recvMessage(t, stream).Content)
}

func TestSubscribeRequiresParticipant(t *testing.T) {
	svc := newTestService(t, newFakeRepository(), nil)
	ctx := context.Background()

	session, err := svc.GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.Subscribe(ctx, session.ID, 3)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSubscribeCancellationClosesStream(t *testing.T) {
	svc := newTestService(t, newFakeRepository(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	session, err := svc.GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	stream, err := svc.Subscribe(ctx, session.ID, 1)
	require.NoError(t, err)

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-stream:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream not closed after cancellation")
		}
	}
}

func recvMessage(t *testing.T, stream <-chan *Message) *Message {
	t.Helper()
	select {
	case msg, ok := <-stream:
		require.True(t, ok, "stream closed unexpectedly")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}
