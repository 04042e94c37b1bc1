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

// RequestPasswordReset sends an OTP to the phone of an existing account
func (s *authService) RequestPasswordReset(ctx context.Context, ip string, req *dto.PasswordResetRequest) (*dto.OtpTokenResponse, error) {
	user, err := s.resolveUser(ctx, req.User, req.CountryCode)
	if err != nil {
		return nil, err
	}

	if !user.HasPhone() {
		return nil, badRequest("no phone number is on file for this account")
	}

	deliverTo, err := utils.FormatE164(*user.PhoneNumber, *user.CountryCode)
	if err != nil {
		return nil, err
	}

	otpToken, err := s.issueChallenge(ctx, ip, challenge{
		provider:  domain.SpecialProviderResetPassword,
		userID:    user.ID,
		deliverTo: deliverTo,
	})
	if err != nil {
		return nil, err
	}

	return &dto.OtpTokenResponse{OtpToken: otpToken}, nil
}

// VerifyOtpTokenResetPassword redeems a reset challenge and exchanges it for
// a setup-password ticket bound to the user.
func (s *authService) VerifyOtpTokenResetPassword(ctx context.Context, ip, otpToken, otpCode string) (*dto.SetupPasswordTokenResponse, error) {
	claims, row, err := s.checkOTP(ctx, ip, otpToken, otpCode, domain.SpecialProviderResetPassword)
	if err != nil {
		return nil, err
	}

	if row.UserID == nil || *row.UserID != claims.UID {
		return nil, unauthorized("token does not match its challenge")
	}

	setup := &domain.SpecialToken{
		Provider:  domain.SpecialProviderSetupPassword,
		UserID:    row.UserID,
		ExpiresAt: time.Now().Add(s.jwtManager.SpecialTokenExpiry()),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if err := s.consume(ctx, repos.SpecialToken, row.ID, domain.SpecialProviderResetPassword); err != nil {
			return err
		}
		return repos.SpecialToken.Replace(ctx, setup)
	})
	if err != nil {
		return nil, err
	}
	s.clearAttempts(ctx, row.ID)

	setupToken, err := s.jwtManager.GenerateSpecialToken(&domain.SpecialTokenClaims{
		OID:      setup.ID,
		Provider: domain.SpecialProviderSetupPassword,
		IP:       ip,
		UID:      claims.UID,
	})
	if err != nil {
		return nil, err
	}

	return &dto.SetupPasswordTokenResponse{SetupPasswordToken: setupToken}, nil
}

// SetupNewPassword replaces the password of the user a reset ticket is bound to
func (s *authService) SetupNewPassword(ctx context.Context, ip, setupToken, password string) (*dto.SuccessResponse, error) {
	claims, err := s.parseSpecialToken(setupToken, domain.SpecialProviderSetupPassword)
	if err != nil {
		return nil, err
	}

	if claims.IP != ip {
		return nil, badRequest("token was issued to another address")
	}
	if claims.UID == "" || claims.PhoneNumber != "" {
		return nil, badRequest("token is not a password reset ticket")
	}
	if !utils.ValidatePassword(password) {
		return nil, badRequest("weak password")
	}
	if err := validateID(claims.OID, "token id"); err != nil {
		return nil, err
	}
	if err := validateID(claims.UID, "user id"); err != nil {
		return nil, err
	}

	row, err := s.tokens.GetByID(ctx, claims.OID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorized("token was already used or has expired")
	}
	if err != nil {
		return nil, err
	}

	if row.Provider != domain.SpecialProviderSetupPassword {
		return nil, badRequest("token does not match its ticket")
	}
	if row.UserID == nil || *row.UserID != claims.UID {
		return nil, unauthorized("token does not match its ticket")
	}

	passwordHash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if err := s.consume(ctx, repos.SpecialToken, row.ID, domain.SpecialProviderSetupPassword); err != nil {
			return err
		}
		err := repos.User.UpdatePassword(ctx, claims.UID, passwordHash)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("user not found")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Password reset", zap.String("user_id", claims.UID))

	return &dto.SuccessResponse{Message: "Password updated successfully"}, nil
}
