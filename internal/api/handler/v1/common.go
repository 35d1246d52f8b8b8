package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/muster-events/backend/internal/api/handler/v1/response"
	"github.com/muster-events/backend/internal/api/middleware"
	"github.com/muster-events/backend/internal/domain"
)

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

// getUserFromContext resolves the authenticated user stored by the JWT
// middleware.
func getUserFromContext(ctx *gin.Context, svc UserService) (domain.User, *response.Err) {
	raw, exists := ctx.Get(middleware.ContextKeyUserID)
	if !exists {
		return domain.User{}, response.ErrUnauthorized(errors.New("no user in context"))
	}

	userID, ok := raw.(uint)
	if !ok {
		return domain.User{}, response.ErrUnauthorized(errors.New("malformed user in context"))
	}

	user, err := svc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		return domain.User{}, response.ErrUnauthorized(fmt.Errorf("svc.GetUser -> %w", err))
	}

	return user, nil
}

// parseEventID reads the :eventID path parameter.
func parseEventID(ctx *gin.Context) (uuid.UUID, *response.Err) {
	id, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		return uuid.Nil, response.ErrBadRequest(errors.New("invalid event ID"))
	}

	return id, nil
}

// HandleHealthcheck godoc
// @Summary      Healthcheck
// @Produce      json
// @Success      200 {string} string "OK"
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.String(http.StatusOK, "OK")
}
