package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prperemyshlev/storefront-auth/internal/dto"
	"github.com/prperemyshlev/storefront-auth/internal/repository"
)

// userService implements UserService interface
type userService struct {
	users repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

// GetProfile returns the current profile of a user
func (s *userService) GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	if err := validateID(userID, "user id"); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	return dto.NewUserResponse(user), nil
}

// FindUser returns the public profile of the user an email, user name or
// phone number belongs to
func (s *userService) FindUser(ctx context.Context, identifier, countryCode string) (*dto.UserResponse, error) {
	user, err := findUser(ctx, s.users, identifier, countryCode)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

// UpdateProfile applies the non-nil fields of req
func (s *userService) UpdateProfile(ctx context.Context, userID string, req *dto.ProfileRequest) (*dto.UserResponse, error) {
	if err := validateID(userID, "user id"); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		user.DisplayName = &name
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.Birthday != nil {
		if req.Birthday.After(time.Now()) {
			return nil, badRequest("birthday is in the future")
		}
		birthday := req.Birthday.UTC().Truncate(24 * time.Hour)
		user.Birthday = &birthday
	}

	err = s.users.UpdateProfile(ctx, user)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	return dto.NewUserResponse(user), nil
}
