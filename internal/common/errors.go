// Package common defines shared constants and sentinel errors used across
// the auth server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound  = errors.New("not found")
	ErrEmailExists = errors.New("email already exists")

	// Service-level errors.
	ErrorValidation = errors.New("validation error")
	ErrNoMatchUser  = errors.New("no matching user")
	ErrNotSupported = errors.New("sign-in provider not supported")

	// Token gate errors. Each maps to a 401 response.
	ErrMissingToken     = errors.New("missing token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrWrongTokenKind   = errors.New("wrong token kind")
	ErrCSRFMissing      = errors.New("missing csrf token")
	ErrCSRFMismatch     = errors.New("csrf token mismatch")
)
