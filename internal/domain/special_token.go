package domain

import "time"

// SpecialProvider tags the flow a special token belongs to.
type SpecialProvider string

const (
	SpecialProviderSignIn        SpecialProvider = "sign-in"
	SpecialProviderSignUp        SpecialProvider = "sign-up"
	SpecialProviderSetupPassword SpecialProvider = "setup-password"
	SpecialProviderResetPassword SpecialProvider = "reset-password"
)

func (p SpecialProvider) Valid() bool {
	switch p {
	case SpecialProviderSignIn, SpecialProviderSignUp, SpecialProviderSetupPassword, SpecialProviderResetPassword:
		return true
	}
	return false
}

// SpecialToken is the server side half of a single-use bearer token. The row
// is deleted exactly once, when its flow completes.
type SpecialToken struct {
	ID          string          `json:"id" db:"id"`
	Provider    SpecialProvider `json:"provider" db:"provider"`
	UserID      *string         `json:"user_id" db:"user_id"`
	PhoneNumber *string         `json:"phone_number" db:"phone_number"`
	CountryCode *string         `json:"country_code" db:"country_code"`
	OTPHash     *string         `json:"-" db:"otp_hash"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ExpiresAt   time.Time       `json:"expires_at" db:"expires_at"`
}
