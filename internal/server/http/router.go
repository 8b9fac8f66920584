package http

import (
	"github.com/gin-gonic/gin"
	"github.com/loginchat/authserver/internal/logging"
)

// RouterOptions carries the host and origin policy applied to every route.
type RouterOptions struct {
	TrustedHosts           []string
	TrustedHostExceptPaths []string
	AllowedOrigins         []string
}

// NewRouter assembles the request pipeline:
// recovery, request id, request log, trusted host, CORS, then per-route gates.
func NewRouter(h *Handlers, g *Gate, l logging.Logger, o RouterOptions) *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false

	r.Use(
		Recovery(l),
		RequestID(),
		RequestLogger(l),
		TrustedHosts(o.TrustedHosts, o.TrustedHostExceptPaths),
		CORS(o.AllowedOrigins),
	)

	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		authRoutes.POST("/register/:sns_type", h.Register)
		authRoutes.POST("/login/:sns_type", h.Login)
		authRoutes.POST("/refresh", g.RequireRefresh(), h.Refresh)
		authRoutes.DELETE("/logout", g.RequireAccess(), h.Logout)

		api.GET("/user/", g.OptionalAccess(), h.Me)
		api.GET("/user", g.OptionalAccess(), h.Me)
	}

	return r
}
