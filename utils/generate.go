package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// GenerateSessionToken returns a high entropy opaque token, hex encoded so
// it is safe to carry in headers and cookies.
func GenerateSessionToken() (string, error) {
	randomBytes, err := GenerateRandomBytes(32)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(randomBytes), nil
}

// GenerateNumericCode returns a numeric one time code of the given length,
// each digit drawn uniformly from crypto/rand.
func GenerateNumericCode(length int) (string, error) {
	const digits = "0123456789"

	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[n.Int64()]
	}
	return string(code), nil
}

// GenerateRandomBytes returns the requested number of bytes using crypto/rand
func GenerateRandomBytes(length int) ([]byte, error) {
	var randomBytes = make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, err
	}
	return randomBytes, nil
}
