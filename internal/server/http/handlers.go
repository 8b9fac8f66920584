package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loginchat/authserver/internal/buildinfo"
	"github.com/loginchat/authserver/internal/common"
	"github.com/loginchat/authserver/internal/logging"
	"github.com/loginchat/authserver/internal/server/auth"
	"github.com/loginchat/authserver/internal/server/models"
	"github.com/loginchat/authserver/internal/server/services"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "loginchat-auth"

// SNSEmail is the only sign-in provider served.
const SNSEmail = "email"

// UserService is what the handlers need from services.UserService.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, *services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(subject string) (auth.IssuedToken, error)
	Profile(ctx context.Context, email string) (*models.User, error)
}

type Handlers struct {
	users   UserService
	cookies *auth.CookieTransport
	logger  logging.Logger
}

func NewHandlers(us UserService, c *auth.CookieTransport, l logging.Logger) *Handlers {
	return &Handlers{users: us, cookies: c, logger: l}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Msg          string `json:"msg"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Service: ServiceName, Version: buildinfo.Version()})
}

// Register handles POST /api/auth/register/:sns_type.
func (h *Handlers) Register(c *gin.Context) {
	if c.Param("sns_type") != SNSEmail {
		h.writeError(c, common.ErrNotSupported)
		return
	}

	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil || in.Email == "" || in.Password == "" {
		c.JSON(http.StatusBadRequest, msgResponse{Msg: MsgMissingCredentials})
		return
	}

	user, pair, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info(c.Request.Context(), "user registered", "user_id", user.ID)
	h.writeTokens(c, http.StatusCreated, pair)
}

// Login handles POST /api/auth/login/:sns_type.
func (h *Handlers) Login(c *gin.Context) {
	if c.Param("sns_type") != SNSEmail {
		h.writeError(c, common.ErrNotSupported)
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, msgResponse{Msg: MsgMissingCredentials})
		return
	}

	pair, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.writeTokens(c, http.StatusOK, pair)
}

// Refresh handles POST /api/auth/refresh behind RequireRefresh.
func (h *Handlers) Refresh(c *gin.Context) {
	subject, _ := SubjectFromContext(c)

	access, err := h.users.Refresh(subject)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cookies.SetAccessCookies(c.Writer, access)
	c.JSON(http.StatusOK, msgResponse{Msg: MsgRefresh})
}

// Logout handles DELETE /api/auth/logout behind RequireAccess.
func (h *Handlers) Logout(c *gin.Context) {
	h.cookies.Clear(c.Writer)
	c.JSON(http.StatusOK, msgResponse{Msg: MsgLogout})
}

// Me handles GET /api/user/ behind OptionalAccess. Anonymous callers get an
// empty 200.
func (h *Handlers) Me(c *gin.Context) {
	subject, ok := SubjectFromContext(c)
	if !ok {
		c.Status(http.StatusOK)
		return
	}

	user, err := h.users.Profile(c.Request.Context(), subject)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handlers) writeTokens(c *gin.Context, status int, pair *services.TokenPair) {
	h.cookies.SetAccessCookies(c.Writer, pair.Access)
	h.cookies.SetRefreshCookies(c.Writer, pair.Refresh)
	c.JSON(status, tokenResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
		Msg:          MsgOK,
	})
}
