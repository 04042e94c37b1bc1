package domain

import "time"

// AuthProvider is the way a user account authenticates.
type AuthProvider string

const (
	AuthProviderPassword AuthProvider = "password"
	AuthProviderFacebook AuthProvider = "facebook"
	AuthProviderGoogle   AuthProvider = "google"
)

// User represents a user in the system
type User struct {
	ID           string       `json:"id" db:"id"`
	Email        *string      `json:"email" db:"email"`
	PhoneNumber  *string      `json:"phone_number" db:"phone_number"`
	CountryCode  *string      `json:"country_code" db:"country_code"`
	UserName     *string      `json:"user_name" db:"user_name"`
	PasswordHash string       `json:"-" db:"password_hash"`
	Provider     AuthProvider `json:"provider" db:"provider"`
	DisplayName  *string      `json:"display_name" db:"display_name"`
	Bio          *string      `json:"bio" db:"bio"`
	Address      *string      `json:"address" db:"address"`
	Birthday     *time.Time   `json:"birthday" db:"birthday"`
	PhotoAvatar  *string      `json:"photo_avatar" db:"photo_avatar"`
	PhotoCover   *string      `json:"photo_cover" db:"photo_cover"`
	IsVerify     bool         `json:"is_verify" db:"is_verify"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// HasPhone reports whether the user has a phone number on file.
func (u *User) HasPhone() bool {
	return u.PhoneNumber != nil && *u.PhoneNumber != "" &&
		u.CountryCode != nil && *u.CountryCode != ""
}
