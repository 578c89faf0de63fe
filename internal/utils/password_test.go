package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyCredential_PlainText(t *testing.T) {
	assert.True(t, VerifyCredential("secreto", "secreto"))
	assert.False(t, VerifyCredential("secreto", "Secreto"))
	assert.False(t, VerifyCredential("", ""))
	assert.False(t, VerifyCredential("secreto", ""))
}

func TestVerifyCredential_Bcrypt(t *testing.T) {
	hash, err := HashCredential("secreto", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, IsBcryptHash(hash))

	assert.True(t, VerifyCredential(hash, "secreto"))
	assert.False(t, VerifyCredential(hash, "otro"))
	assert.False(t, VerifyCredential(hash, hash))
}

func TestIsBcryptHash(t *testing.T) {
	assert.False(t, IsBcryptHash("SinLogin"))
	assert.False(t, IsBcryptHash("$2a$short"))
}
