package service

import (
	"context"
	"errors"
	"time"

	"github.com/prperemyshlev/storefront-auth/internal/domain"
	"github.com/prperemyshlev/storefront-auth/internal/dto"
	"github.com/prperemyshlev/storefront-auth/internal/repository"
	"github.com/prperemyshlev/storefront-auth/internal/utils"
	"go.uber.org/zap"
)

// SignUpWithPhoneNumber starts a phone sign-up with an OTP challenge
func (s *authService) SignUpWithPhoneNumber(ctx context.Context, ip, phoneNumber, countryCode string) (*dto.OtpTokenResponse, error) {
	phone, err := utils.ParsePhone(phoneNumber, countryCode)
	if err != nil {
		return nil, badRequest("invalid phone number")
	}

	if err := s.ensurePhoneAvailable(ctx, phone.NationalNumber, phone.CountryCode); err != nil {
		return nil, err
	}

	otpToken, err := s.issueChallenge(ctx, ip, challenge{
		provider:    domain.SpecialProviderSignUp,
		phoneNumber: phone.NationalNumber,
		countryCode: phone.CountryCode,
		deliverTo:   phone.E164,
	})
	if err != nil {
		return nil, err
	}

	return &dto.OtpTokenResponse{OtpToken: otpToken}, nil
}

// VerifyOtpTokenSignUpWithPhoneNumber redeems a sign-up challenge and
// exchanges it for a setup-password ticket. No user is created yet.
func (s *authService) VerifyOtpTokenSignUpWithPhoneNumber(ctx context.Context, ip, otpToken, otpCode string) (*dto.SetupPasswordTokenResponse, error) {
	claims, row, err := s.checkOTP(ctx, ip, otpToken, otpCode, domain.SpecialProviderSignUp)
	if err != nil {
		return nil, err
	}

	if !samePhone(row, claims) {
		return nil, badRequest("token does not match its challenge")
	}

	setup := &domain.SpecialToken{
		Provider:    domain.SpecialProviderSetupPassword,
		PhoneNumber: row.PhoneNumber,
		CountryCode: row.CountryCode,
		ExpiresAt:   time.Now().Add(s.jwtManager.SpecialTokenExpiry()),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if err := s.consume(ctx, repos.SpecialToken, row.ID, domain.SpecialProviderSignUp); err != nil {
			return err
		}
		return repos.SpecialToken.Replace(ctx, setup)
	})
	if err != nil {
		return nil, err
	}
	s.clearAttempts(ctx, row.ID)

	setupToken, err := s.jwtManager.GenerateSpecialToken(&domain.SpecialTokenClaims{
		OID:         setup.ID,
		Provider:    domain.SpecialProviderSetupPassword,
		IP:          ip,
		PhoneNumber: claims.PhoneNumber,
		CountryCode: claims.CountryCode,
	})
	if err != nil {
		return nil, err
	}

	return &dto.SetupPasswordTokenResponse{SetupPasswordToken: setupToken}, nil
}

// SetupPasswordForSignUpWithPhoneNumber creates the user and its first
// trusted device and signs the user in.
func (s *authService) SetupPasswordForSignUpWithPhoneNumber(ctx context.Context, ip, userAgent, setupToken, password string) (*dto.AuthResult, error) {
	claims, err := s.parseSpecialToken(setupToken, domain.SpecialProviderSetupPassword)
	if err != nil {
		return nil, err
	}

	if claims.IP != ip {
		return nil, badRequest("token was issued to another address")
	}
	if claims.UID != "" || claims.PhoneNumber == "" || claims.CountryCode == "" {
		return nil, badRequest("token is not a sign-up ticket")
	}
	if !utils.ValidatePassword(password) {
		return nil, badRequest("weak password")
	}
	if err := validateID(claims.OID, "token id"); err != nil {
		return nil, err
	}

	row, err := s.tokens.GetByID(ctx, claims.OID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorized("token was already used or has expired")
	}
	if err != nil {
		return nil, err
	}

	if row.Provider != domain.SpecialProviderSetupPassword || !samePhone(row, claims) {
		return nil, badRequest("token does not match its ticket")
	}

	if err := s.ensurePhoneAvailable(ctx, claims.PhoneNumber, claims.CountryCode); err != nil {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		PhoneNumber:  &claims.PhoneNumber,
		CountryCode:  &claims.CountryCode,
		PasswordHash: passwordHash,
		Provider:     domain.AuthProviderPassword,
		IsVerify:     true,
	}
	var device *domain.Device

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if err := s.consume(ctx, repos.SpecialToken, row.ID, domain.SpecialProviderSetupPassword); err != nil {
			return err
		}

		if err := repos.User.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateUser) {
				return badRequest("phone number is already registered")
			}
			return err
		}

		var err error
		device, err = repos.Device.Trust(ctx, user.ID, ip, userAgent)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User signed up",
		zap.String("user_id", user.ID),
		zap.String("device_id", device.ID),
	)

	return s.issueAuthResult(ctx, user, device)
}

func (s *authService) ensurePhoneAvailable(ctx context.Context, phoneNumber, countryCode string) error {
	_, err := s.users.GetByPhone(ctx, phoneNumber, countryCode)
	if err == nil {
		return badRequest("phone number is already registered")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}
