package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

var ten = big.NewInt(10)

// GenerateCode produces a verification code of exactly CodeLength ASCII
// digits, each drawn independently and uniformly from 0-9. Leading zeros are
// allowed: "012345" is a valid code.
func GenerateCode() (string, error) {
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// IsCodeShape reports whether a submitted string has the shape of a
// verification code: exactly CodeLength ASCII digits.
func IsCodeShape(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
