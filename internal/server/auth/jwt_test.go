package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/loginchat/authserver/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(csrf bool) *TokenIssuer {
	return NewTokenIssuer([]byte("super-secret"), 15*time.Minute, 24*time.Hour, csrf)
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	iss := newIssuer(true)

	tok, err := iss.IssueAccess("alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tok.CSRF)

	claims, err := iss.Verify(tok.Value, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, KindAccess, claims.Type)
	assert.Equal(t, tok.CSRF, claims.CSRF)
	assert.NotEmpty(t, claims.ID)
	assert.NotNil(t, claims.IssuedAt)
	assert.NotNil(t, claims.NotBefore)
}

func TestIssue_WithoutCSRF(t *testing.T) {
	t.Parallel()

	iss := newIssuer(false)
	tok, err := iss.IssueRefresh("bob@example.com")
	require.NoError(t, err)
	assert.Empty(t, tok.CSRF)

	claims, err := iss.Verify(tok.Value, KindRefresh)
	require.NoError(t, err)
	assert.Empty(t, claims.CSRF)
}

func TestIssue_UniqueJTI(t *testing.T) {
	t.Parallel()

	iss := newIssuer(false)
	a, err := iss.IssueAccess("s")
	require.NoError(t, err)
	b, err := iss.IssueAccess("s")
	require.NoError(t, err)

	ca, err := iss.Verify(a.Value, KindAccess)
	require.NoError(t, err)
	cb, err := iss.Verify(b.Value, KindAccess)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestVerify_WrongKind(t *testing.T) {
	t.Parallel()

	iss := newIssuer(false)

	access, err := iss.IssueAccess("s")
	require.NoError(t, err)
	refresh, err := iss.IssueRefresh("s")
	require.NoError(t, err)

	_, err = iss.Verify(access.Value, KindRefresh)
	assert.ErrorIs(t, err, common.ErrWrongTokenKind)

	_, err = iss.Verify(refresh.Value, KindAccess)
	assert.ErrorIs(t, err, common.ErrWrongTokenKind)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	iss := newIssuer(false)
	issuedAt := time.Now().Add(-time.Hour)
	iss.now = func() time.Time { return issuedAt }

	tok, err := iss.IssueAccess("s")
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Verify(tok.Value, KindAccess)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestVerify_ExpiredEvenWithBadSignature(t *testing.T) {
	t.Parallel()

	past := NewTokenIssuer([]byte("other-secret"), -time.Minute, -time.Minute, false)
	tok, err := past.IssueAccess("s")
	require.NoError(t, err)

	_, err = newIssuer(false).Verify(tok.Value, KindAccess)
	assert.Error(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenIssuer([]byte("right-secret"), time.Hour, time.Hour, false).IssueAccess("s")
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("wrong-secret"), time.Hour, time.Hour, false).Verify(tok.Value, KindAccess)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "not.a.jwt", "abc"} {
		_, err := newIssuer(false).Verify(s, KindAccess)
		assert.ErrorIs(t, err, common.ErrInvalidSignature, "token %q", s)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "s",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type: KindAccess,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = newIssuer(false).Verify(tok, KindAccess)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
}

func TestVerify_RequiresSubjectAndExpiry(t *testing.T) {
	t.Parallel()

	noSubject := Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Type:             KindAccess,
	}
	noExpiry := Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "s"},
		Type:             KindAccess,
	}

	for _, c := range []Claims{noSubject, noExpiry} {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("super-secret"))
		require.NoError(t, err)

		_, err = newIssuer(false).Verify(tok, KindAccess)
		assert.ErrorIs(t, err, common.ErrInvalidSignature)
	}
}
