package auth

import (
	"net/http"
	"strings"
	"time"
)

const (
	AccessCookieName      = "access_token_cookie"
	RefreshCookieName     = "refresh_token_cookie"
	AccessCSRFCookieName  = "csrf_access_token"
	RefreshCSRFCookieName = "csrf_refresh_token"
)

type CookieOptions struct {
	Secure        bool
	SameSite      http.SameSite
	Domain        string
	AccessPath    string
	RefreshPath   string
	CSRFProtect   bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// CookieTransport moves tokens between responses and requests as cookies.
type CookieTransport struct {
	opts CookieOptions
}

func NewCookieTransport(o CookieOptions) *CookieTransport {
	if o.AccessPath == "" {
		o.AccessPath = "/"
	}
	if o.RefreshPath == "" {
		o.RefreshPath = "/"
	}
	return &CookieTransport{opts: o}
}

func (c *CookieTransport) CSRFProtect() bool { return c.opts.CSRFProtect }

func (c *CookieTransport) SetAccessCookies(w http.ResponseWriter, t IssuedToken) {
	c.set(w, AccessCookieName, AccessCSRFCookieName, c.opts.AccessPath, c.opts.AccessMaxAge, t)
}

func (c *CookieTransport) SetRefreshCookies(w http.ResponseWriter, t IssuedToken) {
	c.set(w, RefreshCookieName, RefreshCSRFCookieName, c.opts.RefreshPath, c.opts.RefreshMaxAge, t)
}

func (c *CookieTransport) set(w http.ResponseWriter, name, csrfName, path string, maxAge time.Duration, t IssuedToken) {
	http.SetCookie(w, c.cookie(name, t.Value, path, maxAge, true))
	if c.opts.CSRFProtect && t.CSRF != "" {
		http.SetCookie(w, c.cookie(csrfName, t.CSRF, path, maxAge, false))
	}
}

// Clear expires all four cookies.
func (c *CookieTransport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.expired(AccessCookieName, c.opts.AccessPath, true))
	http.SetCookie(w, c.expired(RefreshCookieName, c.opts.RefreshPath, true))
	http.SetCookie(w, c.expired(AccessCSRFCookieName, c.opts.AccessPath, false))
	http.SetCookie(w, c.expired(RefreshCSRFCookieName, c.opts.RefreshPath, false))
}

// Extract returns the raw token cookie for kind, or "".
func (c *CookieTransport) Extract(r *http.Request, kind TokenKind) string {
	name := AccessCookieName
	if kind == KindRefresh {
		name = RefreshCookieName
	}
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// ExtractBearer returns the token from "Authorization: Bearer <jwt>", or "".
func ExtractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (c *CookieTransport) cookie(name, value, path string, maxAge time.Duration, httpOnly bool) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   c.opts.Domain,
		Secure:   c.opts.Secure,
		HttpOnly: httpOnly,
		SameSite: c.opts.SameSite,
	}
	if maxAge > 0 {
		ck.MaxAge = int(maxAge.Seconds())
		ck.Expires = time.Now().Add(maxAge)
	}
	return ck
}

func (c *CookieTransport) expired(name, path string, httpOnly bool) *http.Cookie {
	ck := c.cookie(name, "", path, 0, httpOnly)
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	return ck
}

// ParseSameSite maps "lax", "strict" and "none" to http.SameSite.
// Anything else yields http.SameSiteDefaultMode.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
