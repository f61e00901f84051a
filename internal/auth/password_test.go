package auth_test

import (
	"strings"
	"testing"

	"github.com/omnierp/omnicore/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := auth.VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	first, err := auth.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	second, err := auth.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	_, err := auth.VerifyPassword("anything", "not-a-hash")
	assert.Error(t, err)

	_, err = auth.VerifyPassword("anything", "$bcrypt$v=19$m=1,t=1,p=1$AAAA$BBBB")
	assert.Error(t, err)
}
