package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/muster-events/backend/internal/logger"
)

// Err is the envelope for every error response.
type Err struct {
	statusCode int
	err        error

	Msg string `json:"error"`
}

func NewErr(statusCode int, err error, msg string) *Err {
	return &Err{
		statusCode: statusCode,
		err:        err,
		Msg:        msg,
	}
}

// RenderErr logs the underlying error and writes the envelope. Internal
// errors are logged at error level, everything else at warn.
func RenderErr(ctx *gin.Context, e *Err) {
	fields := []zap.Field{
		zap.Int("status", e.statusCode),
		zap.String("path", ctx.FullPath()),
		zap.Error(e.err),
	}
	if e.statusCode >= http.StatusInternalServerError {
		logger.L().Error("request failed", fields...)
	} else {
		logger.L().Warn("request rejected", fields...)
	}

	ctx.AbortWithStatusJSON(e.statusCode, e)
}

func ErrBadRequest(err error) *Err {
	return NewErr(http.StatusBadRequest, err, err.Error())
}

func ErrWrongCredentials(err error) *Err {
	return NewErr(http.StatusUnauthorized, err, "wrong credentials")
}

func ErrUnauthorized(err error) *Err {
	return NewErr(http.StatusUnauthorized, err, "unauthorized")
}

func ErrPermissionDenied(err error) *Err {
	return NewErr(http.StatusForbidden, err, "permission denied")
}

func ErrNotFound(err error) *Err {
	return NewErr(http.StatusNotFound, err, err.Error())
}

func ErrConflict(err error) *Err {
	return NewErr(http.StatusConflict, err, err.Error())
}

func ErrTooManyRequests(err error) *Err {
	return NewErr(http.StatusTooManyRequests, err, err.Error())
}

func ErrInternalServerError(err error) *Err {
	return NewErr(http.StatusInternalServerError, err, "internal server error")
}
