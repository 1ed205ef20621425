// internal/profile/service.go

package profile

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service exposes profile store operations to handlers and to the
// other components that read profiles
type Service interface {
	Create(ctx context.Context, req *CreateProfileRequest) (*Profile, error)
	Get(ctx context.Context, id int64) (*Profile, error)
	GetAll(ctx context.Context) ([]*Profile, error)
	Update(ctx context.Context, id int64, req *UpdateProfileRequest) (*Profile, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Deactivate(ctx context.Context, id int64) error
	Reactivate(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
	log  *zap.SugaredLogger
}

// NewService creates a profile service
func NewService(repo Repository, log *zap.Logger) Service {
	return &service{
		repo: repo,
		log:  log.Sugar().Named("profile"),
	}
}

func (s *service) Create(ctx context.Context, req *CreateProfileRequest) (*Profile, error) {
	if err := validateSports(req.Sports); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.log.Infow("profile created", "user_id", p.ID, "username", p.Username)
	return p, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetAll(ctx context.Context) ([]*Profile, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) Update(ctx context.Context, id int64, req *UpdateProfileRequest) (*Profile, error) {
	if req.Sports != nil {
		if err := validateSports(*req.Sports); err != nil {
			return nil, err
		}
	}

	return s.repo.Update(ctx, id, req)
}

func (s *service) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.repo.UsernameExists(ctx, username)
}

func (s *service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.log.Infow("profile deactivated", "user_id", id)
	return nil
}

func (s *service) Reactivate(ctx context.Context, id int64) error {
	if err := s.repo.Reactivate(ctx, id); err != nil {
		return err
	}
	s.log.Infow("profile reactivated", "user_id", id)
	return nil
}

// validateSports checks sport/skill enums, non-negative experience and
// that no sport is declared twice
func validateSports(sports SportList) error {
	seen := make(map[string]bool, len(sports))
	for _, entry := range sports {
		if !validSport(entry.Sport) {
			return fmt.Errorf("unknown sport %q", entry.Sport)
		}
		switch entry.SkillLevel {
		case SkillBeginner, SkillIntermediate, SkillAdvanced:
		default:
			return fmt.Errorf("unknown skill level %q", entry.SkillLevel)
		}
		if entry.YearsPlaying < 0 {
			return fmt.Errorf("years playing must not be negative")
		}
		if seen[entry.Sport] {
			return fmt.Errorf("sport %q declared more than once", entry.Sport)
		}
		seen[entry.Sport] = true
	}
	return nil
}

func validSport(sport string) bool {
	for _, s := range SportOptions {
		if s == sport {
			return true
		}
	}
	return false
}
