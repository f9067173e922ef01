package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, now func() time.Time) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenConfig{
		Secret: []byte("test-secret"),
		TTL:    DefaultTokenTTL,
		Now:    now,
	})
	require.NoError(t, err)
	return svc
}

func TestTokenService_IssueThenVerify_ReturnsSubject(t *testing.T) {
	svc := newTestTokenService(t, nil)

	token, err := svc.Issue("user-123")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "token should be a compact JWS")

	subject, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)
}

func TestTokenService_Issue_SetsSevenDayWindow(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, func() time.Time { return issuedAt })

	token, err := svc.Issue("user-123")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	assert.Equal(t, issuedAt.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, issuedAt.Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, "user-123", claims.Subject)
}

func TestTokenService_Verify_ExpiredToken_Fails(t *testing.T) {
	past := time.Now().Add(-8 * 24 * time.Hour)
	issuer := newTestTokenService(t, func() time.Time { return past })

	token, err := issuer.Issue("user-123")
	require.NoError(t, err)

	verifier := newTestTokenService(t, nil)
	subject, err := verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, subject)
}

func TestTokenService_Verify_StillValidJustBeforeExpiry(t *testing.T) {
	issuedAt := time.Now().Add(-7*24*time.Hour + time.Minute)
	issuer := newTestTokenService(t, func() time.Time { return issuedAt })

	token, err := issuer.Issue("user-123")
	require.NoError(t, err)

	subject, err := newTestTokenService(t, nil).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)
}

func TestTokenService_Verify_FailuresAreIndistinguishable(t *testing.T) {
	svc := newTestTokenService(t, nil)

	other, err := NewTokenService(TokenConfig{Secret: []byte("another-secret")})
	require.NoError(t, err)
	foreign, err := other.Issue("user-123")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-123",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":           "",
		"garbage":         "not-a-token",
		"wrong signature": foreign,
		"alg none":        noneToken,
		"missing exp":     noExp,
		"missing subject": noSubject,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			subject, err := svc.Verify(token)
			assert.Equal(t, ErrInvalidToken, err)
			assert.Empty(t, subject)
		})
	}
}

// 同じ秘密鍵で署名されていてもHS256以外のアルゴリズムは受け付けない
func TestTokenService_Verify_RejectsOtherHMACAlgorithms(t *testing.T) {
	svc := newTestTokenService(t, nil)
	claims := jwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	for _, method := range []jwt.SigningMethod{jwt.SigningMethodHS384, jwt.SigningMethodHS512} {
		t.Run(method.Alg(), func(t *testing.T) {
			token, err := jwt.NewWithClaims(method, claims).SignedString([]byte("test-secret"))
			require.NoError(t, err)

			subject, err := svc.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Empty(t, subject)
		})
	}
}

func TestNewTokenService_Validation(t *testing.T) {
	_, err := NewTokenService(TokenConfig{})
	assert.Error(t, err)

	svc, err := NewTokenService(TokenConfig{Secret: []byte("s")})
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, svc.ttl)
}

func TestTokenService_Issue_EmptySubject_Fails(t *testing.T) {
	svc := newTestTokenService(t, nil)
	_, err := svc.Issue("")
	assert.Error(t, err)
}
