package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"humanizer/internal/model"
	"humanizer/internal/repository"
)

var ErrProfileNotFound = errors.New("profile not found")

const maxFullNameLength = 120

type ProfileService interface {
	// Get returns the caller's profile, creating the default one on first use.
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Update(ctx context.Context, userID string, patch model.ProfilePatch) (*model.Profile, error)
	ResetBalance(ctx context.Context, userID string) (*model.Profile, error)
	GrantWords(ctx context.Context, userID string, words int) (*model.Profile, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository
}

func NewProfileService(profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

func (s *profileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	if err := s.profileRepo.EnsureDefault(ctx, userID, ""); err != nil {
		return nil, err
	}
	p, err = s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (s *profileService) Update(ctx context.Context, userID string, patch model.ProfilePatch) (*model.Profile, error) {
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		if len(name) > maxFullNameLength {
			return nil, fmt.Errorf("%w: full_name is too long", ErrValidation)
		}
		patch.FullName = &name
	}
	if patch.PreferredStyle != nil {
		style, err := ParseStyle(*patch.PreferredStyle)
		if err != nil {
			return nil, err
		}
		normalized := string(style)
		patch.PreferredStyle = &normalized
	}

	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	p, err := s.profileRepo.UpdatePreferences(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *profileService) ResetBalance(ctx context.Context, userID string) (*model.Profile, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.profileRepo.ResetBalance(ctx, userID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *profileService) GrantWords(ctx context.Context, userID string, words int) (*model.Profile, error) {
	if words <= 0 {
		return nil, fmt.Errorf("%w: words must be positive", ErrValidation)
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.profileRepo.AddExtraWords(ctx, userID, words); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
