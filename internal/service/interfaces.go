package service

import (
	"context"

	"github.com/prperemyshlev/storefront-auth/internal/domain"
	"github.com/prperemyshlev/storefront-auth/internal/dto"
)

// AuthService defines methods for authentication operations
type AuthService interface {
	SignInWithAnyMethod(ctx context.Context, ip string, req *dto.SignInRequest) (*dto.AuthResult, error)
	VerifyOtpTokenSignInWithAnyMethod(ctx context.Context, ip, userAgent, otpToken, otpCode string) (*dto.AuthResult, error)
	RefreshToken(ctx context.Context, ip, refreshToken string) (*dto.TokenResponse, error)
	VerifyAccessToken(ctx context.Context, accessToken string) (*domain.AccessTokenClaims, error)

	SignUpWithPhoneNumber(ctx context.Context, ip, phoneNumber, countryCode string) (*dto.OtpTokenResponse, error)
	VerifyOtpTokenSignUpWithPhoneNumber(ctx context.Context, ip, otpToken, otpCode string) (*dto.SetupPasswordTokenResponse, error)
	SetupPasswordForSignUpWithPhoneNumber(ctx context.Context, ip, userAgent, setupToken, password string) (*dto.AuthResult, error)

	RequestPasswordReset(ctx context.Context, ip string, req *dto.PasswordResetRequest) (*dto.OtpTokenResponse, error)
	VerifyOtpTokenResetPassword(ctx context.Context, ip, otpToken, otpCode string) (*dto.SetupPasswordTokenResponse, error)
	SetupNewPassword(ctx context.Context, ip, setupToken, password string) (*dto.SuccessResponse, error)
}

// UserService defines methods for profile operations
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.ProfileRequest) (*dto.UserResponse, error)
	FindUser(ctx context.Context, identifier, countryCode string) (*dto.UserResponse, error)
}
