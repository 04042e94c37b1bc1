package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prperemyshlev/storefront-auth/internal/domain"
)

var (
	// ErrInvalidToken covers bad signatures, expired and malformed tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenWrongProvider is returned when a special token was minted for
	// a different flow than the one validating it.
	ErrTokenWrongProvider = errors.New("token issued for another flow")
)

// TokenSettings is the secret and lifetime of one token family.
type TokenSettings struct {
	Secret string
	Expiry time.Duration
}

// JWTManager signs and validates access, refresh and special tokens. Each
// family has its own secret so a token of one kind never validates as another.
type JWTManager struct {
	access  TokenSettings
	refresh TokenSettings
	special TokenSettings
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(access, refresh, special TokenSettings) *JWTManager {
	return &JWTManager{
		access:  access,
		refresh: refresh,
		special: special,
	}
}

// GenerateAccessToken signs a snapshot of user
func (j *JWTManager) GenerateAccessToken(user *domain.User) (string, error) {
	claims := domain.NewAccessTokenClaims(user)
	claims.RegisteredClaims = registeredClaims(user.ID, j.access.Expiry)

	token, err := sign(claims, j.access.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (j *JWTManager) ValidateAccessToken(tokenString string) (*domain.AccessTokenClaims, error) {
	claims := &domain.AccessTokenClaims{}
	if err := parse(tokenString, claims, j.access.Secret); err != nil {
		return nil, err
	}
	if claims.UID == "" {
		return nil, fmt.Errorf("%w: missing uid", ErrInvalidToken)
	}
	return claims, nil
}

// GenerateRefreshToken signs a refresh token bound to a user and a device
func (j *JWTManager) GenerateRefreshToken(userID, deviceID string) (string, error) {
	claims := &domain.RefreshTokenClaims{
		RegisteredClaims: registeredClaims(userID, j.refresh.Expiry),
		UID:              userID,
		DeviceID:         deviceID,
	}

	token, err := sign(claims, j.refresh.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return token, nil
}

// ValidateRefreshToken validates a refresh token and returns its claims
func (j *JWTManager) ValidateRefreshToken(tokenString string) (*domain.RefreshTokenClaims, error) {
	claims := &domain.RefreshTokenClaims{}
	if err := parse(tokenString, claims, j.refresh.Secret); err != nil {
		return nil, err
	}
	return claims, nil
}

// GenerateSpecialToken signs claims for an OTP or setup-password ticket.
// Registered claims are overwritten.
func (j *JWTManager) GenerateSpecialToken(claims *domain.SpecialTokenClaims) (string, error) {
	if !claims.Provider.Valid() {
		return "", fmt.Errorf("unknown special token provider %q", claims.Provider)
	}
	claims.RegisteredClaims = registeredClaims(claims.OID, j.special.Expiry)

	token, err := sign(claims, j.special.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign special token: %w", err)
	}
	return token, nil
}

// ValidateSpecialToken validates a special token and checks that it was
// minted for the expected flow.
func (j *JWTManager) ValidateSpecialToken(tokenString string, expected domain.SpecialProvider) (*domain.SpecialTokenClaims, error) {
	claims := &domain.SpecialTokenClaims{}
	if err := parse(tokenString, claims, j.special.Secret); err != nil {
		return nil, err
	}
	if claims.OID == "" || !claims.Provider.Valid() {
		return nil, fmt.Errorf("%w: malformed special token", ErrInvalidToken)
	}
	if claims.Provider != expected {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrTokenWrongProvider, claims.Provider, expected)
	}
	return claims, nil
}

// SpecialTokenExpiry returns the lifetime of special tokens
func (j *JWTManager) SpecialTokenExpiry() time.Duration {
	return j.special.Expiry
}

func registeredClaims(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func sign(claims jwt.Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parse(tokenString string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
