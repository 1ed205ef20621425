// internal/matching/engine.go
// Pure ranking of candidate profiles by sport overlap. Two scoring
// modes exist because the recommendation surface and the matches page
// use different equality predicates over the sport list.

package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/peerfit/peerfit-backend/internal/profile"
)

// Mode selects the equality predicate used when scoring candidates.
type Mode string

const (
	// ModeSportOnly counts shared sports, skill ignored.
	ModeSportOnly Mode = "sport"
	// ModeSportAndSkill counts (sport, skill level) pairs present
	// identically in both profiles.
	ModeSportAndSkill Mode = "sport_skill"
)

// Candidate is a derived ranking entry, never persisted.
type Candidate struct {
	User         *profile.Profile `json:"user"`
	CommonSports []string         `json:"common_sports"`
	Score        int              `json:"score"`
}

// ProfileSource is the read surface the engine needs.
type ProfileSource interface {
	GetByID(ctx context.Context, id int64) (*profile.Profile, error)
	GetAll(ctx context.Context) ([]*profile.Profile, error)
}

// Engine scores and ranks candidates against a user's sport profile.
type Engine struct {
	profiles ProfileSource
	log      *zap.SugaredLogger
}

// NewEngine creates a new matching engine
func NewEngine(profiles ProfileSource, log *zap.Logger) *Engine {
	return &Engine{
		profiles: profiles,
		log:      log.Sugar().Named("matching"),
	}
}

// Recommend returns up to limit candidates for the recommendation
// surface: sport-only scoring, excluding self and everyone the user
// already follows.
func (e *Engine) Recommend(ctx context.Context, selfID int64, limit int) ([]Candidate, error) {
	start := time.Now()
	candidates, err := e.rank(ctx, selfID, ModeSportOnly, true)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	observeScoring(ModeSportOnly, time.Since(start))
	return candidates, nil
}

// Matches returns the full ranked list for the matches page:
// sport-and-skill scoring, self excluded but followed users kept.
func (e *Engine) Matches(ctx context.Context, selfID int64) ([]Candidate, error) {
	start := time.Now()
	candidates, err := e.rank(ctx, selfID, ModeSportAndSkill, false)
	if err != nil {
		return nil, err
	}
	observeScoring(ModeSportAndSkill, time.Since(start))
	return candidates, nil
}

func (e *Engine) rank(ctx context.Context, selfID int64, mode Mode, excludeFollowing bool) ([]Candidate, error) {
	self, err := e.profiles.GetByID(ctx, selfID)
	if err != nil {
		return nil, fmt.Errorf("loading self profile: %w", err)
	}
	if len(self.Sports) == 0 {
		return []Candidate{}, nil
	}

	all, err := e.profiles.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading candidate profiles: %w", err)
	}

	candidates := make([]Candidate, 0, len(all))
	for _, u := range all {
		if u.ID == selfID {
			continue
		}
		if excludeFollowing && self.Following.Contains(u.ID) {
			continue
		}
		common := commonSports(self.Sports, u.Sports, mode)
		if len(common) == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			User:         u,
			CommonSports: common,
			Score:        len(common),
		})
	}

	// Stable keeps ties in input order, which for GetAll is creation
	// order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	e.log.Debugw("ranked candidates",
		"self_id", selfID, "mode", mode, "count", len(candidates))
	return candidates, nil
}

// commonSports lists self's sports that the candidate also plays,
// preserving self's declaration order.
func commonSports(self, other profile.SportList, mode Mode) []string {
	var common []string
	for _, s := range self {
		for _, o := range other {
			if s.Sport != o.Sport {
				continue
			}
			if mode == ModeSportAndSkill && s.SkillLevel != o.SkillLevel {
				continue
			}
			common = append(common, s.Sport)
			break
		}
	}
	return common
}
