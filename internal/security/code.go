package security

import (
	"crypto/rand"
	"fmt"
	"io"
)

// VerificationCodeLength is the number of digits in issued codes.
const VerificationCodeLength = 6

// GenerateVerificationCode creates a random numeric verification code.
// Codes are not checked for uniqueness across time; collisions are accepted
// as negligible.
func GenerateVerificationCode() (string, error) {
	const digits = "0123456789"
	buf := make([]byte, VerificationCodeLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	out := make([]byte, VerificationCodeLength)
	for i, b := range buf {
		out[i] = digits[int(b)%len(digits)]
	}
	return string(out), nil
}
