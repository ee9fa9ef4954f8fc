package security

import (
	"bytes"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTInspector_ReadsClaimsWithoutVerifying(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "e@x.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("a key the portal never sees"))
	require.NoError(t, err)

	meta, err := NewJWTInspector().Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "e@x.com", meta.Subject)
	require.NotNil(t, meta.ExpiresAt)
	assert.True(t, exp.Equal(*meta.ExpiresAt))
}

func TestJWTInspector_ExpiredTokenStillInspected(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "old@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	meta, err := NewJWTInspector().Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "old@x.com", meta.Subject)
}

func TestJWTInspector_OpaqueToken(t *testing.T) {
	_, err := NewJWTInspector().Inspect("opaque-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestAEADSealer_RoundTrip(t *testing.T) {
	factory, err := NewSealerFactory(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	sealed, err := factory("client-a").Seal([]byte(`{"access_token":"t"}`))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "access_token")

	plain, err := factory("client-a").Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"access_token":"t"}`, string(plain))
}

func TestAEADSealer_RejectsForeignOrCorruptRecords(t *testing.T) {
	factory, err := NewSealerFactory(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	sealed, err := factory("client-a").Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = factory("client-b").Open(sealed)
	assert.ErrorIs(t, err, ErrUnsealFailed)

	_, err = factory("client-a").Open([]byte("not sealed"))
	assert.ErrorIs(t, err, ErrUnsealFailed)

	sealed[len(sealed)-1] ^= 0xff
	_, err = factory("client-a").Open(sealed)
	assert.ErrorIs(t, err, ErrUnsealFailed)
}

func TestSealerFactory_PlainWhenNoKey(t *testing.T) {
	factory, err := NewSealerFactory(nil)
	require.NoError(t, err)
	out, err := factory("c").Seal([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), out)

	_, err = NewSealerFactory([]byte("short"))
	assert.Error(t, err)
}
