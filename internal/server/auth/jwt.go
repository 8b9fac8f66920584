package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/loginchat/authserver/internal/common"
)

// TokenKind tells access tokens apart from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims are the registered claims plus the token kind and, when CSRF protection
// is enabled, the double submit value.
type Claims struct {
	jwt.RegisteredClaims
	Type TokenKind `json:"type"`
	CSRF string    `json:"csrf,omitempty"`
}

// IssuedToken is a signed token together with the CSRF value embedded in it.
type IssuedToken struct {
	Value     string
	CSRF      string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	csrf       bool
	now        func() time.Time
}

func NewTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration, csrf bool) *TokenIssuer {
	return &TokenIssuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		csrf:       csrf,
		now:        time.Now,
	}
}

func (t *TokenIssuer) IssueAccess(subject string) (IssuedToken, error) {
	return t.issue(subject, KindAccess, t.accessTTL)
}

func (t *TokenIssuer) IssueRefresh(subject string) (IssuedToken, error) {
	return t.issue(subject, KindRefresh, t.refreshTTL)
}

func (t *TokenIssuer) issue(subject string, kind TokenKind, ttl time.Duration) (IssuedToken, error) {
	now := t.now()
	exp := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Type: kind,
	}
	if t.csrf {
		claims.CSRF = uuid.NewString()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return IssuedToken{}, err
	}

	return IssuedToken{Value: signed, CSRF: claims.CSRF, ExpiresAt: exp}, nil
}

// Verify checks signature, time claims and kind. It returns
// common.ErrTokenExpired, common.ErrInvalidSignature or
// common.ErrWrongTokenKind.
func (t *TokenIssuer) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidSignature
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidSignature
	}

	if claims.Type != kind {
		return nil, common.ErrWrongTokenKind
	}

	return claims, nil
}
