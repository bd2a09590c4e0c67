package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"humanizer/internal/model"
	"humanizer/internal/repository"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

type UserService interface {
	// SignIn records an identity on every sign-in and makes sure the user has
	// a profile. The returned user carries the canonical ID for the email.
	SignIn(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
}

type userService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
}

func NewUserService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository) UserService {
	return &userService{userRepo: userRepo, profileRepo: profileRepo}
}

func (s *userService) SignIn(ctx context.Context, u *model.User) (*model.User, error) {
	if strings.TrimSpace(u.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	stored, err := s.userRepo.Upsert(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := s.profileRepo.EnsureDefault(ctx, stored.ID, stored.Name); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}
