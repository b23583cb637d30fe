package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionToken(t *testing.T) {
	token, err := GenerateSessionToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Regexp(t, "^[0-9a-f]+$", token)

	other, err := GenerateSessionToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGenerateNumericCode(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		code, err := GenerateNumericCode(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		assert.Regexp(t, "^[0-9]+$", code)
	}
}

func TestGenerateRandomBytes(t *testing.T) {
	data, err := GenerateRandomBytes(16)
	require.NoError(t, err)
	assert.Len(t, data, 16)
}
