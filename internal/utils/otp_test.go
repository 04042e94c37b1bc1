package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	for _, length := range []int{1, 4, 6, 10} {
		code, err := GenerateOTP(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "non-digit %q in %q", c, code)
		}
	}
}

func TestGenerateOTPInvalidLength(t *testing.T) {
	_, err := GenerateOTP(0)
	assert.Error(t, err)
	_, err = GenerateOTP(-1)
	assert.Error(t, err)
}

func TestGenerateOTPCoversAllDigits(t *testing.T) {
	seen := map[rune]bool{}
	for i := 0; i < 200 && len(seen) < 10; i++ {
		code, err := GenerateOTP(6)
		require.NoError(t, err)
		for _, c := range code {
			seen[c] = true
		}
	}
	assert.Len(t, seen, 10)
}
