package http

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loginchat/authserver/internal/common"
	"github.com/loginchat/authserver/internal/logging"
	"github.com/loginchat/authserver/internal/server/auth"
)

const (
	requestIDKey = "request_id"
	subjectKey   = "auth_subject"
	claimsKey    = "auth_claims"
)

// Recovery turns panics into a 500 {detail} response.
func Recovery(l logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		l.Error(c.Request.Context(), "panic recovered",
			"panic", fmt.Sprint(recovered),
			"path", c.Request.URL.Path,
			"request_id", c.GetString(requestIDKey),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, detailResponse{Detail: DetailInternal})
	})
}

// RequestID reuses an incoming X-Request-Id or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

// RequestLogger logs one line per request once the handler chain returns.
func RequestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String(),
			"request_id", c.GetString(requestIDKey),
			"client_ip", c.ClientIP(),
		}

		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			l.Error(ctx, "request", args...)
		case status >= http.StatusBadRequest:
			l.Warn(ctx, "request", args...)
		default:
			l.Info(ctx, "request", args...)
		}
	}
}

// TrustedHosts rejects requests whose Host header is not in allowed.
// "*" allows everything, "*.example.com" matches any subdomain. Paths in
// exceptPaths are never checked.
func TrustedHosts(allowed, exceptPaths []string) gin.HandlerFunc {
	patterns := make([]string, 0, len(allowed))
	for _, a := range allowed {
		patterns = append(patterns, strings.ToLower(strings.TrimSpace(a)))
	}
	allowAll := slices.Contains(patterns, "*")

	return func(c *gin.Context) {
		if allowAll || slices.Contains(exceptPaths, c.Request.URL.Path) {
			c.Next()
			return
		}
		if !hostAllowed(stripPort(c.Request.Host), patterns) {
			c.AbortWithStatusJSON(http.StatusBadRequest, detailResponse{Detail: DetailInvalidHost})
			return
		}
		c.Next()
	}
}

func stripPort(hostport string) string {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		host = strings.TrimSuffix(strings.TrimPrefix(hostport, "["), "]")
	}
	return strings.ToLower(host)
}

func hostAllowed(host string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasPrefix(p, "*.") {
			if strings.HasSuffix(host, p[1:]) {
				return true
			}
			continue
		}
		if host == p {
			return true
		}
	}
	return false
}

// CORS builds the gin-contrib/cors middleware. A "*" origin allows every
// origin without credentials; no origins disables CORS headers entirely.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	cfg := cors.DefaultConfig()
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodHead, http.MethodOptions,
	}
	cfg.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		common.CSRFHeaderName,
	}
	cfg.ExposeHeaders = []string{common.CSRFHeaderName, common.RequestIDHeaderName}
	return cors.New(cfg)
}

// Gate verifies tokens on protected routes.
type Gate struct {
	tokens  *auth.TokenIssuer
	cookies *auth.CookieTransport
}

func NewGate(t *auth.TokenIssuer, c *auth.CookieTransport) *Gate {
	return &Gate{tokens: t, cookies: c}
}

// RequireAccess admits requests carrying a valid access token.
func (g *Gate) RequireAccess() gin.HandlerFunc {
	return func(c *gin.Context) { g.authenticate(c, auth.KindAccess, false) }
}

// OptionalAccess admits anonymous requests. A token that is present must
// still be valid.
func (g *Gate) OptionalAccess() gin.HandlerFunc {
	return func(c *gin.Context) { g.authenticate(c, auth.KindAccess, true) }
}

// RequireRefresh admits requests carrying a valid refresh token.
func (g *Gate) RequireRefresh() gin.HandlerFunc {
	return func(c *gin.Context) { g.authenticate(c, auth.KindRefresh, false) }
}

func (g *Gate) authenticate(c *gin.Context, kind auth.TokenKind, optional bool) {
	raw := auth.ExtractBearer(c.Request)
	fromCookie := false
	if raw == "" {
		raw = g.cookies.Extract(c.Request, kind)
		fromCookie = raw != ""
	}

	if raw == "" {
		if optional {
			c.Next()
			return
		}
		abortToken(c, common.ErrMissingToken, kind)
		return
	}

	claims, err := g.tokens.Verify(raw, kind)
	if err != nil {
		abortToken(c, err, kind)
		return
	}

	if fromCookie && g.cookies.CSRFProtect() {
		if err := auth.CheckCSRF(c.Request, claims); err != nil {
			abortToken(c, err, kind)
			return
		}
	}

	c.Set(subjectKey, claims.Subject)
	c.Set(claimsKey, claims)
	c.Next()
}

func abortToken(c *gin.Context, err error, kind auth.TokenKind) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, detailResponse{Detail: tokenErrorDetail(err, kind)})
}

// SubjectFromContext returns the subject stored by a gate.
func SubjectFromContext(c *gin.Context) (string, bool) {
	s := c.GetString(subjectKey)
	return s, s != ""
}
