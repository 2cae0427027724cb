package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newJWTer() *JWTer {
	return &JWTer{
		Secret: []byte("test-secret"),
		Issuer: "auction-house-test",
		TTL:    time.Hour,
	}
}

// Test Issue/Verify roundtrip
func TestJWTer_IssueAndVerify(t *testing.T) {
	t.Parallel()

	j := newJWTer()

	token, err := j.Issue("user1", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := j.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user1", claims.UserID)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "auction-house-test", claims.Issuer)
}

// Test Verify rejections
func TestJWTer_VerifyRejections(t *testing.T) {
	t.Parallel()

	j := newJWTer()
	token, err := j.Issue("user1", "user")
	require.NoError(t, err)

	t.Run("garbage_token", func(t *testing.T) {
		t.Parallel()

		_, err := j.Verify("not.a.token")
		require.Error(t, err)
	})

	t.Run("wrong_secret", func(t *testing.T) {
		t.Parallel()

		other := &JWTer{Secret: []byte("different"), Issuer: j.Issuer, TTL: j.TTL}
		_, err := other.Verify(token)
		require.Error(t, err)
	})

	t.Run("wrong_issuer", func(t *testing.T) {
		t.Parallel()

		other := &JWTer{Secret: j.Secret, Issuer: "someone-else", TTL: j.TTL}
		_, err := other.Verify(token)
		require.Error(t, err)
	})

	t.Run("expired_token", func(t *testing.T) {
		t.Parallel()

		// TTL past the verifier's leeway.
		expired := &JWTer{Secret: j.Secret, Issuer: j.Issuer, TTL: -2 * time.Minute}
		tok, err := expired.Issue("user1", "user")
		require.NoError(t, err)

		_, err = j.Verify(tok)
		require.Error(t, err)
	})
}
