package utils

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

const defaultBCryptWorkFactor = 12

// BCrypt implements a BCrypt hasher.
type BCrypt struct {
	bCryptWorkFactor int
}

// NewBCrypt returns a new BCrypt instance.
func NewBCrypt() *BCrypt {
	return &BCrypt{
		defaultBCryptWorkFactor,
	}
}

// NewBCryptWithCost returns a BCrypt instance with an explicit work factor.
// Tests use bcrypt.MinCost to keep hashing cheap.
func NewBCryptWithCost(cost int) *BCrypt {
	return &BCrypt{
		cost,
	}
}

func (b *BCrypt) Hash(ctx context.Context, data []byte) ([]byte, error) {
	cf := b.bCryptWorkFactor
	s, err := bcrypt.GenerateFromPassword(data, cf)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Verify reports whether data matches the stored hash. A malformed or empty
// hash is treated as a mismatch rather than an error, the comparison itself
// is performed by the bcrypt primitive.
func (b *BCrypt) Verify(ctx context.Context, hash, data []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, data) == nil
}
