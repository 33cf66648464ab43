package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const secret = "test-secret"

func TestHashAndVerifyPassword(t *testing.T) {
	h, err := HashPassword("s3cret-Pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "s3cret-Pass"))
	assert.False(t, VerifyPassword(h, "wrong"))
}

func TestPasswordPolicy(t *testing.T) {
	p := PasswordPolicy{MinLength: 8}

	assert.Empty(t, p.Check("Tr1cky-Horse", "alice", "alice@example.com"))
	assert.Len(t, p.Check("short"), 1)
	assert.Contains(t, p.Check("12345678"), "This password is entirely numeric.")
	assert.Contains(t, p.Check("password"), "This password is too common.")
	assert.Contains(t, p.Check("bobbyross99", "bobbyross"), "The password is too similar to your account details.")
	assert.Contains(t, p.Check("carol-secure", "x", "carol@example.com"), "The password is too similar to your account details.")
	// short attributes are not compared
	assert.Empty(t, p.Check("Tr1cky-Horse", "tr"))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(secret, 42, time.Minute)
	require.NoError(t, err)
	assert.True(t, tok.Exp.After(time.Now()))

	id, err := ParseToken(secret, PurposeAccess, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestParseTokenRejectsOtherPurpose(t *testing.T) {
	tok, err := NewEmailVerifyToken(secret, 7, time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(secret, PurposeAccess, tok.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	id, err := ParseToken(secret, PurposeEmailVerify, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
}

func TestParseTokenExpired(t *testing.T) {
	tok, err := NewEmailVerifyToken(secret, 7, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, PurposeEmailVerify, tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseTokenInvalid(t *testing.T) {
	_, err := ParseToken(secret, PurposeAccess, "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	tok, err := NewAccessToken("other-secret", 1, time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, PurposeAccess, tok.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// alg none must never pass
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1", "typ": PurposeAccess, "exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(secret, PurposeAccess, unsigned)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(time.Hour)
	require.NoError(t, err)
	b, err := NewRefreshToken(time.Hour)
	require.NoError(t, err)
	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestResetTokens(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rt := ResetTokens{Secret: secret, TTL: 10 * time.Minute, Now: func() time.Time { return now }}

	tok := rt.Make(5, "hash-v1")
	assert.True(t, rt.Check(5, "hash-v1", tok))
	assert.False(t, rt.Check(6, "hash-v1", tok), "other user")
	assert.False(t, rt.Check(5, "hash-v2", tok), "password changed")
	assert.False(t, rt.Check(5, "hash-v1", "garbage"))
	assert.False(t, rt.Check(5, "hash-v1", strings.Replace(tok, "-", "-0", 1)))

	now = now.Add(11 * time.Minute)
	assert.False(t, rt.Check(5, "hash-v1", tok), "expired")
}

func TestUID(t *testing.T) {
	s := EncodeUID(123)
	id, ok := DecodeUID(s)
	require.True(t, ok)
	assert.Equal(t, uint64(123), id)

	id, ok = DecodeUID("MTIz==")
	assert.True(t, ok)
	assert.Equal(t, uint64(123), id)

	_, ok = DecodeUID("!!")
	assert.False(t, ok)
	_, ok = DecodeUID(EncodeUID(0))
	assert.False(t, ok)
}
