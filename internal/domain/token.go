package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims carries a denormalized snapshot of the user.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UID         string       `json:"uid"`
	Email       *string      `json:"email,omitempty"`
	PhoneNumber *string      `json:"phoneNumber,omitempty"`
	CountryCode *string      `json:"countryCode,omitempty"`
	UserName    *string      `json:"userName,omitempty"`
	DisplayName *string      `json:"displayName,omitempty"`
	Bio         *string      `json:"bio,omitempty"`
	Address     *string      `json:"address,omitempty"`
	Birthday    *time.Time   `json:"birthday,omitempty"`
	PhotoAvatar *string      `json:"photoAvatar,omitempty"`
	PhotoCover  *string      `json:"photoCover,omitempty"`
	Provider    AuthProvider `json:"provider"`
	IsVerify    bool         `json:"isVerify"`
	CreatedAt   time.Time    `json:"createAt"`
}

// RefreshTokenClaims binds a refresh token to a user and a trusted device.
type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid"`
	DeviceID string `json:"deviceId"`
}

// SpecialTokenClaims is the payload of every OTP and setup-password token.
// OID points at the SpecialToken row; Provider says which flow may use it.
// Sign-up tokens carry PhoneNumber/CountryCode, sign-in and reset tokens UID.
type SpecialTokenClaims struct {
	jwt.RegisteredClaims
	OID         string          `json:"oid"`
	Provider    SpecialProvider `json:"provider"`
	IP          string          `json:"ip"`
	UID         string          `json:"uid,omitempty"`
	PhoneNumber string          `json:"phoneNumber,omitempty"`
	CountryCode string          `json:"countryCode,omitempty"`
}

// NewAccessTokenClaims snapshots user into access token claims.
func NewAccessTokenClaims(user *User) *AccessTokenClaims {
	return &AccessTokenClaims{
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
		Provider:    user.Provider,
		IsVerify:    user.IsVerify,
		CreatedAt:   user.CreatedAt,
	}
}
