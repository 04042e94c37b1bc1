package service

import (
	"context"
	"errors"
	"strings"

	"github.com/prperemyshlev/storefront-auth/internal/domain"
	"github.com/prperemyshlev/storefront-auth/internal/repository"
	"github.com/prperemyshlev/storefront-auth/internal/utils"
)

// findUser looks identifier up as an email, then a user name, then a phone
// number parsed against countryCode. Email and user name must match exactly.
func findUser(ctx context.Context, users repository.UserRepository, identifier, countryCode string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, badRequest("user is required")
	}

	if utils.ValidateEmail(identifier) {
		user, err := users.GetByEmail(ctx, identifier)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	user, err := users.GetByUserName(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	phone, err := utils.ParsePhone(identifier, countryCode)
	if err != nil {
		return nil, notFound("user not found")
	}

	user, err = users.GetByPhone(ctx, phone.NationalNumber, phone.CountryCode)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}
