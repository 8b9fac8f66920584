package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loginchat/authserver/internal/common"
	"github.com/loginchat/authserver/internal/server/auth"
	"github.com/loginchat/authserver/internal/server/services"
)

// Messages returned in {"msg": ...} bodies.
const (
	MsgOK                 = "OK"
	MsgRefresh            = "REFRESH"
	MsgLogout             = "LOGOUT"
	MsgEmailExists        = "EMAIL_EXISTS"
	MsgNoMatchUser        = "NO_MATCH_USER"
	MsgNotSupported       = "NOT_SUPPORTED"
	MsgMissingCredentials = "Email and password must be provided"
)

// Details returned in {"detail": ...} bodies.
const (
	DetailInternal      = "Internal Server Error"
	DetailInvalidHost   = "Invalid host header"
	DetailExpired       = "Signature has expired"
	DetailBadSignature  = "Signature verification failed"
	DetailCSRFMissing   = "Missing CSRF Token"
	DetailCSRFMismatch  = "CSRF double submit tokens do not match"
	detailMissingPrefix = "Missing cookie "
)

type msgResponse struct {
	Msg string `json:"msg"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// writeError maps service errors to 400 {msg} bodies. Anything unknown is
// logged and answered with a bare 500.
func (h *Handlers) writeError(c *gin.Context, err error) {
	var verr *services.ValidationError

	switch {
	case errors.Is(err, common.ErrEmailExists):
		c.JSON(http.StatusBadRequest, msgResponse{Msg: MsgEmailExists})
	case errors.Is(err, common.ErrNoMatchUser):
		c.JSON(http.StatusBadRequest, msgResponse{Msg: MsgNoMatchUser})
	case errors.Is(err, common.ErrNotSupported):
		c.JSON(http.StatusBadRequest, msgResponse{Msg: MsgNotSupported})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, msgResponse{Msg: verr.Msg})
	default:
		h.logger.Error(c.Request.Context(), "request failed", "error", err, "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusInternalServerError, detailResponse{Detail: DetailInternal})
	}
}

// tokenErrorDetail renders a gate failure the way clients expect it.
func tokenErrorDetail(err error, kind auth.TokenKind) string {
	switch {
	case errors.Is(err, common.ErrMissingToken):
		if kind == auth.KindRefresh {
			return detailMissingPrefix + auth.RefreshCookieName
		}
		return detailMissingPrefix + auth.AccessCookieName
	case errors.Is(err, common.ErrTokenExpired):
		return DetailExpired
	case errors.Is(err, common.ErrWrongTokenKind):
		return "Only " + string(kind) + " tokens are allowed"
	case errors.Is(err, common.ErrCSRFMissing):
		return DetailCSRFMissing
	case errors.Is(err, common.ErrCSRFMismatch):
		return DetailCSRFMismatch
	default:
		return DetailBadSignature
	}
}
