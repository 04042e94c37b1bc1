package dto

import (
	"time"

	"github.com/prperemyshlev/storefront-auth/internal/domain"
)

// UserResponse is the public view of a user
type UserResponse struct {
	UID         string     `json:"uid"`
	Email       *string    `json:"email,omitempty"`
	PhoneNumber *string    `json:"phoneNumber,omitempty"`
	CountryCode *string    `json:"countryCode,omitempty"`
	UserName    *string    `json:"userName,omitempty"`
	DisplayName *string    `json:"displayName,omitempty"`
	Bio         *string    `json:"bio,omitempty"`
	Address     *string    `json:"address,omitempty"`
	Birthday    *time.Time `json:"birthday,omitempty"`
	PhotoAvatar *string    `json:"photoAvatar,omitempty"`
	PhotoCover  *string    `json:"photoCover,omitempty"`
	Provider    string     `json:"provider"`
	IsVerify    bool       `json:"isVerify"`
	CreatedAt   time.Time  `json:"createAt"`
}

// AuthResult is returned by every flow that ends in a sign-in. A challenged
// sign-in carries only OtpToken.
type AuthResult struct {
	*UserResponse
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	OtpToken     string `json:"otpToken,omitempty"`
}

// OtpTokenResponse is returned when a flow issues an OTP challenge
type OtpTokenResponse struct {
	OtpToken string `json:"otpToken"`
}

// SetupPasswordTokenResponse is returned after a verified OTP
type SetupPasswordTokenResponse struct {
	SetupPasswordToken string `json:"setupPasswordToken"`
}

// TokenResponse is returned by refresh
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// NewUserResponse builds the public view of user
func NewUserResponse(user *domain.User) *UserResponse {
	return &UserResponse{
		UID:         user.ID,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		CountryCode: user.CountryCode,
		UserName:    user.UserName,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
		Address:     user.Address,
		Birthday:    user.Birthday,
		PhotoAvatar: user.PhotoAvatar,
		PhotoCover:  user.PhotoCover,
		Provider:    string(user.Provider),
		IsVerify:    user.IsVerify,
		CreatedAt:   user.CreatedAt,
	}
}

// UserResponseFromClaims builds the public view from an access token snapshot
func UserResponseFromClaims(claims *domain.AccessTokenClaims) *UserResponse {
	return &UserResponse{
		UID:         claims.UID,
		Email:       claims.Email,
		PhoneNumber: claims.PhoneNumber,
		CountryCode: claims.CountryCode,
		UserName:    claims.UserName,
		DisplayName: claims.DisplayName,
		Bio:         claims.Bio,
		Address:     claims.Address,
		Birthday:    claims.Birthday,
		PhotoAvatar: claims.PhotoAvatar,
		PhotoCover:  claims.PhotoCover,
		Provider:    string(claims.Provider),
		IsVerify:    claims.IsVerify,
		CreatedAt:   claims.CreatedAt,
	}
}
