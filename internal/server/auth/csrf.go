package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/loginchat/authserver/internal/common"
)

// CSRFMethods are the request methods that need a double submit header.
var CSRFMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// CheckCSRF compares the X-CSRF-Token header with the csrf claim. Safe
// methods pass unchecked.
func CheckCSRF(r *http.Request, claims *Claims) error {
	if !CSRFMethods[r.Method] {
		return nil
	}
	header := r.Header.Get(common.CSRFHeaderName)
	if header == "" {
		return common.ErrCSRFMissing
	}
	if claims.CSRF == "" || subtle.ConstantTimeCompare([]byte(header), []byte(claims.CSRF)) != 1 {
		return common.ErrCSRFMismatch
	}
	return nil
}
