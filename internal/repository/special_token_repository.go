package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/storefront-auth/internal/domain"
)

const specialTokenColumns = `id, provider, user_id, phone_number, country_code, otp_hash, created_at, expires_at`

// specialTokenRepository implements SpecialTokenRepository interface
type specialTokenRepository struct {
	db DBTX
}

// NewSpecialTokenRepository creates a new special token repository
func NewSpecialTokenRepository(db DBTX) SpecialTokenRepository {
	return &specialTokenRepository{db: db}
}

// GetByID retrieves a special token by ID
func (r *specialTokenRepository) GetByID(ctx context.Context, id string) (*domain.SpecialToken, error) {
	query := `SELECT ` + specialTokenColumns + ` FROM special_tokens WHERE id = $1`

	token, err := scanSpecialToken(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("special token with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get special token: %w", err)
	}

	return token, nil
}

// Consume deletes the token and returns the deleted row
func (r *specialTokenRepository) Consume(ctx context.Context, id string, provider domain.SpecialProvider) (*domain.SpecialToken, error) {
	query := `DELETE FROM special_tokens WHERE id = $1 AND provider = $2 RETURNING ` + specialTokenColumns

	token, err := scanSpecialToken(r.db.QueryRowContext(ctx, query, id, string(provider)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("special token with id %s already consumed: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to consume special token: %w", err)
	}

	return token, nil
}

// Replace stores token as the only live token of its provider for its user,
// or for its phone number when no user is set. A live token of the same
// provider and owner is overwritten in the same statement.
func (r *specialTokenRepository) Replace(ctx context.Context, token *domain.SpecialToken) error {
	if token.UserID == nil && token.PhoneNumber == nil {
		return fmt.Errorf("special token has no owner")
	}

	query := `
		INSERT INTO special_tokens (id, provider, user_id, phone_number, country_code, otp_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if token.UserID != nil {
		query += `ON CONFLICT (provider, user_id) WHERE user_id IS NOT NULL`
	} else {
		query += `ON CONFLICT (provider, phone_number, country_code) WHERE user_id IS NULL AND phone_number IS NOT NULL`
	}
	query += `
		DO UPDATE SET id = EXCLUDED.id, otp_hash = EXCLUDED.otp_hash,
			created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
	`

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		string(token.Provider),
		token.UserID,
		token.PhoneNumber,
		token.CountryCode,
		token.OTPHash,
		token.CreatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to replace special token: %w", err)
	}

	return nil
}

// DeleteExpired deletes all expired special tokens
func (r *specialTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM special_tokens WHERE expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired special tokens: %w", err)
	}

	return result.RowsAffected()
}

func scanSpecialToken(row *sql.Row) (*domain.SpecialToken, error) {
	token := &domain.SpecialToken{}
	var provider string

	err := row.Scan(
		&token.ID,
		&provider,
		&token.UserID,
		&token.PhoneNumber,
		&token.CountryCode,
		&token.OTPHash,
		&token.CreatedAt,
		&token.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	token.Provider = domain.SpecialProvider(provider)
	return token, nil
}
