package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("abc123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "abc123", hash)
	assert.True(t, CheckPasswordHash("abc123", hash))
	assert.False(t, CheckPasswordHash("abc124", hash))
}

func TestHashOTP(t *testing.T) {
	hash, err := HashOTP("004512")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, OTPHashCost, cost)

	assert.True(t, CheckOTP("004512", hash))
	assert.False(t, CheckOTP("4512", hash))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"abcd", false},
		{"abcde", false},
		{"abc123", true},
		{"пароль", true},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidatePassword(tt.password), tt.password)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("alice@example.com"))
	assert.False(t, ValidateEmail("alice"))
	assert.False(t, ValidateEmail("+84965445305"))
	assert.True(t, ValidateEmail("Alice@Example.com"))
}
