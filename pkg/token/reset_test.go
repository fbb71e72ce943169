package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	signer := NewResetSigner("secret", time.Hour)

	token, expiresAt, err := signer.Generate("user-1", "hash")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	require.NoError(t, signer.Verify(token, "user-1", "hash"))
}

func TestVerifyRejectsWrongUser(t *testing.T) {
	signer := NewResetSigner("secret", time.Hour)

	token, _, err := signer.Generate("user-1", "hash")
	require.NoError(t, err)

	assert.Error(t, signer.Verify(token, "user-2", "hash"))
}

func TestVerifyRejectsChangedPasswordHash(t *testing.T) {
	signer := NewResetSigner("secret", time.Hour)

	token, _, err := signer.Generate("user-1", "hash")
	require.NoError(t, err)

	assert.Error(t, signer.Verify(token, "user-1", "different-hash"))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer := NewResetSigner("secret", time.Millisecond)

	token, _, err := signer.Generate("user-1", "hash")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	assert.Error(t, signer.Verify(token, "user-1", "hash"))
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	signer := NewResetSigner("secret", time.Hour)

	assert.Error(t, signer.Verify("garbage", "user-1", "hash"))
	assert.Error(t, signer.Verify("a.b.c", "user-1", "hash"))
	assert.Error(t, signer.Verify("notanumber."+strings.Repeat("f", 64), "user-1", "hash"))
}

func TestUIDRoundTrip(t *testing.T) {
	encoded := EncodeUID("member-42")
	decoded, err := DecodeUID(encoded)
	require.NoError(t, err)
	assert.Equal(t, "member-42", decoded)

	_, err = DecodeUID("%%%")
	assert.Error(t, err)
}
