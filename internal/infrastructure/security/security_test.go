package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionIDHasRuntimePrefix(t *testing.T) {
	id := GenerateSessionID()
	assert.True(t, strings.HasPrefix(id, "pp_"))
	assert.Len(t, id, 3+26) // prefix plus ULID

	assert.NotEqual(t, id, GenerateSessionID())
}

func TestGenerateULIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateULID()
		assert.Len(t, id, 26)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestGenerateSecureKeyLength(t *testing.T) {
	key, err := GenerateSecureKey(64)
	require.NoError(t, err)
	assert.Len(t, key, 64)
}

func TestSysopTokenRoundTrip(t *testing.T) {
	token, err := GenerateSysopToken("test-secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateSysopToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "sysop", claims["role"])
}

func TestSysopTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateSysopToken("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = ValidateSysopToken(token, "other-secret")
	assert.Error(t, err)
}

func TestSysopTokenRejectsExpired(t *testing.T) {
	token, err := GenerateSysopToken("test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateSysopToken(token, "test-secret")
	assert.Error(t, err)
}

func TestGenerateSysopTokenRequiresSecret(t *testing.T) {
	_, err := GenerateSysopToken("", time.Hour)
	assert.Error(t, err)
}

func TestVerifyPasswordPlaintext(t *testing.T) {
	assert.True(t, VerifyPassword("hunter2", "hunter2"))
	assert.False(t, VerifyPassword("hunter2", "hunter3"))
	assert.False(t, VerifyPassword("", ""))
}

func TestVerifyPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
}
