package dto

import "time"

// SignInRequest represents a sign-in request. User is an email, a user name
// or a phone number; CountryCode is the region used to parse a phone number.
type SignInRequest struct {
	User        string `json:"user" binding:"required"`
	Password    string `json:"password" binding:"required"`
	CountryCode string `json:"countryCode"`
}

// SignUpRequest represents a phone sign-up request
type SignUpRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	CountryCode string `json:"countryCode"`
}

// OtpCodeRequest carries the code received by SMS
type OtpCodeRequest struct {
	OtpCode string `json:"otpCode" binding:"required,numeric"`
}

// SetupPasswordRequest carries the password chosen at the end of sign-up or reset
type SetupPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// PasswordResetRequest starts a password reset for an existing account
type PasswordResetRequest struct {
	User        string `json:"user" binding:"required"`
	CountryCode string `json:"countryCode"`
}

// ProfileRequest updates the editable profile fields. Nil fields are left unchanged.
type ProfileRequest struct {
	DisplayName *string    `json:"displayName" binding:"omitempty,max=100"`
	Bio         *string    `json:"bio" binding:"omitempty,max=500"`
	Address     *string    `json:"address" binding:"omitempty,max=255"`
	Birthday    *time.Time `json:"birthday"`
}

// UserLookupQuery finds a user by email, user name or phone number
type UserLookupQuery struct {
	User        string `form:"user" binding:"required"`
	CountryCode string `form:"countryCode"`
}
