package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muster-events/backend/internal/api/handler/v1/response"
	"github.com/muster-events/backend/internal/service"
)

type SyncService interface {
	Run(ctx context.Context) (service.SyncReport, error)
	PendingCount(ctx context.Context) (int, error)
	InProgress() bool
}

type SyncHandler struct {
	svc  SyncService
	uSvc UserService
}

func NewSyncHandler(svc SyncService, uSvc UserService) *SyncHandler {
	return &SyncHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleTriggerSync godoc
// @Summary      Trigger a sync against the remote store
// @Tags         sync
// @Security     BearerAuth
// @Produce      json
// @Success      200      {object}   service.SyncReport
// @Failure      429      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /sync [post]
func (h *SyncHandler) HandleTriggerSync(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	report, err := h.svc.Run(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrSyncInProgress) {
			response.RenderErr(ctx, response.ErrTooManyRequests(service.ErrSyncInProgress))

			return
		}

		err = fmt.Errorf("v1.HandleTriggerSync -> h.svc.Run -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, report)
}

// HandleSyncStatus godoc
// @Summary      Report whether a sync is running and how many intake entries are pending
// @Tags         sync
// @Security     BearerAuth
// @Produce      json
// @Success      200      {object}   map[string]interface{}
// @Failure      500      {object}   response.Err
// @Router       /sync/status [get]
func (h *SyncHandler) HandleSyncStatus(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	pending, err := h.svc.PendingCount(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleSyncStatus -> h.svc.PendingCount -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"inProgress":    h.svc.InProgress(),
		"pendingIntake": pending,
	})
}
