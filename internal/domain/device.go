package domain

import "time"

// Device is the trust record for one (user, source address) pair.
// Allow becomes true after the first successful OTP verification from that
// address and is never reset.
type Device struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	IP        string    `json:"ip" db:"ip"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
	Allow     bool      `json:"allow" db:"allow"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
