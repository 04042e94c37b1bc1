package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// OTPHashCost is the bcrypt cost for short-lived OTP hashes.
const OTPHashCost = 10

// HashPassword hashes a password using bcrypt
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// HashOTP hashes a one-time code for storage
func HashOTP(code string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(code), OTPHashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash otp: %w", err)
	}
	return string(bytes), nil
}

// CheckOTP compares a one-time code with its stored hash
func CheckOTP(code, hash string) bool {
	return CheckPasswordHash(code, hash)
}
