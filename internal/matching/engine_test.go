package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peerfit/peerfit-backend/internal/profile"
)

// fakeSource serves a fixed ordered profile set.
type fakeSource struct {
	profiles []*profile.Profile
}

func (s *fakeSource) GetByID(_ context.Context, id int64) (*profile.Profile, error) {
	for _, p := range s.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, profile.ErrProfileNotFound
}

func (s *fakeSource) GetAll(_ context.Context) ([]*profile.Profile, error) {
	return s.profiles, nil
}

func user(id int64, name string, sports profile.SportList, following ...int64) *profile.Profile {
	return &profile.Profile{
		ID:        id,
		Username:  name,
		Sports:    sports,
		Following: profile.IDList(following),
	}
}

func sport(name string, skill profile.SkillLevel) profile.SportEntry {
	return profile.SportEntry{Sport: name, SkillLevel: skill}
}

func newTestEngine(profiles ...*profile.Profile) *Engine {
	return NewEngine(&fakeSource{profiles: profiles}, zap.NewNop())
}

func TestScoringModes(t *testing.T) {
	a := user(1, "alice", profile.SportList{
		sport("Soccer", profile.SkillIntermediate),
		sport("Tennis", profile.SkillBeginner),
	})
	b := user(2, "bob", profile.SportList{
		sport("Soccer", profile.SkillIntermediate),
		sport("Running", profile.SkillAdvanced),
	})
	engine := newTestEngine(a, b)
	ctx := context.Background()

	recs, err := engine.Recommend(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(2), recs[0].User.ID)
	assert.Equal(t, 1, recs[0].Score)
	assert.Equal(t, []string{"Soccer"}, recs[0].CommonSports)

	matches, err := engine.Matches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].Score, "Soccer/Intermediate is the only skill-aware overlap")
}

func TestSkillMismatchScoresZero(t *testing.T) {
	a := user(1, "alice", profile.SportList{sport("Soccer", profile.SkillBeginner)})
	b := user(2, "bob", profile.SportList{sport("Soccer", profile.SkillAdvanced)})
	engine := newTestEngine(a, b)
	ctx := context.Background()

	// Sport-only mode still matches on Soccer.
	recs, err := engine.Recommend(ctx, 1, 5)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	// Skill-aware mode drops the candidate entirely.
	matches, err := engine.Matches(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRecommendExcludesSelfAndFollowing(t *testing.T) {
	soccer := profile.SportList{sport("Soccer", profile.SkillIntermediate)}
	a := user(1, "alice", soccer, 2)
	b := user(2, "bob", soccer)
	c := user(3, "carol", soccer)
	engine := newTestEngine(a, b, c)

	recs, err := engine.Recommend(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(3), recs[0].User.ID)
}

func TestMatchesKeepsFollowedUsers(t *testing.T) {
	soccer := profile.SportList{sport("Soccer", profile.SkillIntermediate)}
	a := user(1, "alice", soccer, 2)
	b := user(2, "bob", soccer)
	engine := newTestEngine(a, b)

	matches, err := engine.Matches(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(2), matches[0].User.ID)
}

func TestRecommendOrderingAndLimit(t *testing.T) {
	a := user(1, "alice", profile.SportList{
		sport("Soccer", profile.SkillIntermediate),
		sport("Tennis", profile.SkillBeginner),
		sport("Running", profile.SkillAdvanced),
	})
	// two shared sports
	b := user(2, "bob", profile.SportList{
		sport("Soccer", profile.SkillBeginner),
		sport("Tennis", profile.SkillBeginner),
	})
	// one shared sport, earlier in input order than d
	c := user(3, "carol", profile.SportList{sport("Running", profile.SkillBeginner)})
	// one shared sport
	d := user(4, "dave", profile.SportList{sport("Soccer", profile.SkillAdvanced)})
	engine := newTestEngine(a, b, c, d)
	ctx := context.Background()

	recs, err := engine.Recommend(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, int64(2), recs[0].User.ID)
	// Tie between c and d resolves to input order.
	assert.Equal(t, int64(3), recs[1].User.ID)
	assert.Equal(t, int64(4), recs[2].User.ID)

	limited, err := engine.Recommend(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestEmptySportsYieldsEmptyList(t *testing.T) {
	a := user(1, "alice", nil)
	b := user(2, "bob", profile.SportList{sport("Soccer", profile.SkillBeginner)})
	engine := newTestEngine(a, b)

	recs, err := engine.Recommend(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestZeroScoreCandidatesDropped(t *testing.T) {
	a := user(1, "alice", profile.SportList{sport("Soccer", profile.SkillBeginner)})
	b := user(2, "bob", profile.SportList{sport("Tennis", profile.SkillBeginner)})
	engine := newTestEngine(a, b)

	recs, err := engine.Recommend(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecommendUnknownSelf(t *testing.T) {
	engine := newTestEngine()

	_, err := engine.Recommend(context.Background(), 1, 5)
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}
