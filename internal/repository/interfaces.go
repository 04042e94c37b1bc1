package repository

import (
	"context"

	"github.com/prperemyshlev/storefront-auth/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUserName(ctx context.Context, userName string) (*domain.User, error)
	GetByPhone(ctx context.Context, phoneNumber, countryCode string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, user *domain.User) error
}

// DeviceRepository defines methods for device trust records
type DeviceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Device, error)
	GetByUserAndIP(ctx context.Context, userID, ip string) (*domain.Device, error)
	// Trust marks (userID, ip) as trusted, creating the record if needed.
	// userAgent is only stored when the record is created.
	Trust(ctx context.Context, userID, ip, userAgent string) (*domain.Device, error)
}

// SpecialTokenRepository defines methods for single-use special tokens
type SpecialTokenRepository interface {
	GetByID(ctx context.Context, id string) (*domain.SpecialToken, error)
	// Consume deletes the token if it exists with the given provider and
	// returns the deleted row. Only one caller can consume a token.
	Consume(ctx context.Context, id string, provider domain.SpecialProvider) (*domain.SpecialToken, error)
	// Replace atomically swaps any live token of the same provider and owner
	// (user, or phone number for sign-up) for token.
	Replace(ctx context.Context, token *domain.SpecialToken) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Transactor runs fn with repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}
