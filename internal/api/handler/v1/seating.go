package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/muster-events/backend/internal/api/handler/v1/request"
	"github.com/muster-events/backend/internal/api/handler/v1/response"
	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/service"
)

type SeatingService interface {
	Initialize(ctx context.Context, eventID uuid.UUID, user domain.User, tableCount, seatsPerTable int) (*domain.SeatingChart, error)
	Sync(ctx context.Context, eventID uuid.UUID, user domain.User) (*domain.SeatingChart, error)
	Assign(ctx context.Context, eventID uuid.UUID, user domain.User, rsvpID uuid.UUID, tableNumber int) (service.AssignResult, error)
	Unassign(ctx context.Context, eventID uuid.UUID, user domain.User, rsvpID uuid.UUID) (bool, error)
	AutoAssign(ctx context.Context, eventID uuid.UUID, user domain.User) (service.AutoAssignResult, error)
	Stats(ctx context.Context, eventID uuid.UUID, user domain.User) (domain.SeatingStats, error)
	ExportCSV(ctx context.Context, eventID uuid.UUID, user domain.User) (string, error)
}

type SeatingHandler struct {
	svc  SeatingService
	uSvc UserService
}

func NewSeatingHandler(svc SeatingService, uSvc UserService) *SeatingHandler {
	return &SeatingHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func renderSeatingErr(ctx *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.RenderErr(ctx, response.ErrNotFound(service.ErrEventNotFound))
	case errors.Is(err, service.ErrNotEventOwner):
		response.RenderErr(ctx, response.ErrPermissionDenied(err))
	case errors.Is(err, service.ErrSeatingDisabled):
		response.RenderErr(ctx, response.ErrBadRequest(service.ErrSeatingDisabled))
	case errors.Is(err, service.ErrTableNotFound):
		response.RenderErr(ctx, response.ErrNotFound(service.ErrTableNotFound))
	case errors.Is(err, service.ErrRSVPNotFound):
		response.RenderErr(ctx, response.ErrNotFound(service.ErrRSVPNotFound))
	default:
		return false
	}

	return true
}

func (h *SeatingHandler) resolve(ctx *gin.Context) (uuid.UUID, domain.User, bool) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return uuid.Nil, domain.User{}, false
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return uuid.Nil, domain.User{}, false
	}

	return eventID, user, true
}

// HandleInitializeSeating godoc
// @Summary      Create a seating chart for an event
// @Tags         seating
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        request  body       request.InitializeSeatingRequest true "request body"
// @Success      201      {object}   domain.SeatingChart
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/seating [post]
func (h *SeatingHandler) HandleInitializeSeating(ctx *gin.Context) {
	eventID, user, ok := h.resolve(ctx)
	if !ok {
		return
	}

	var req request.InitializeSeatingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	chart, err := h.svc.Initialize(ctx.Request.Context(), eventID, user, req.TableCount, req.SeatsPerTable)
	if err != nil {
		if renderSeatingErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleInitializeSeating -> h.svc.Initialize -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusCreated, chart)
}

// HandleGetSeating godoc
// @Summary      Get the seating chart, synced with current attendance
// @Tags         seating
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Success      200      {object}   domain.SeatingChart
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/seating [get]
func (h *SeatingHandler) HandleGetSeating(ctx *gin.Context) {
	eventID, user, ok := h.resolve(ctx)
	if !ok {
		return
	}

	chart, err := h.svc.Sync(ctx.Request.Context(), eventID, user)
	if err != nil {
		if renderSeatingErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleGetSeating -> h.svc.Sync -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, chart)
}

// HandleAssignSeat godoc
// @Summary      Assign a guest to a table
// @Tags         seating
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        request  body       request.AssignSeatRequest true "request body"
// @Success      200      {object}   service.AssignResult
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/seating/assign [post]
func (h *SeatingHandler) HandleAssignSeat(ctx *gin.Context) {
	eventID, user, ok := h.resolve(ctx)
	if !ok {
		return
	}

	var req request.AssignSeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	rsvpID, err := uuid.Parse(req.RSVPID)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid RSVP ID")))

		return
	}

	result, err := h.svc.Assign(ctx.Request.Context(), eventID, user, rsvpID, req.TableNumber)
	if err != nil {
		if renderSeatingErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleAssignSeat -> h.svc.Assign -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleUnassignSeat godoc
// @Summary      Return a guest to the unassigned pool
// @Tags         seating
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        request  body       request.UnassignSeatRequest true "request body"
// @Success      200      {object}   service.AssignResult
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/seating/unassign [post]
func (h *SeatingHandler) HandleUnassignSeat(ctx *gin.Context) {
	eventID, user, ok := h.resolve(ctx)
	if !ok {
		return
	}

	var req request.UnassignSeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	rsvpID, err := uuid.Parse(req.RSVPID)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid RSVP ID")))

		return
	}

	removed, err := h.svc.Unassign(ctx.Request.Context(), eventID, user, rsvpID)
	if err != nil {
		if renderSeatingErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleUnassignSeat -> h.svc.Unassign -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, service.AssignResult{Success: removed})
}

// HandleAutoAssign godoc
// @Summary      Auto-assign unassigned guests to tables
// @Tags         seating
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Success      200      {object}   service.AutoAssignResult
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/seating/auto-assign [post]
func (h *SeatingHandler) HandleAutoAssign(ctx *gin.Context) {
	eventID, user, ok := h.resolve(ctx)
	if !ok {
		return
	}

	result, err := h.svc.AutoAssign(ctx.Request.Context(), eventID, user)
	if err != nil {
		if renderSeatingErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleAutoAssign -> h.svc.AutoAssign -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleSeatingStats godoc
// @Summary      Get seating occupancy stats
// @Tags         seating
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Success      200      {object}   domain.SeatingStats
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/seating/stats [get]
func (h *SeatingHandler) HandleSeatingStats(ctx *gin.Context) {
	eventID, user, ok := h.resolve(ctx)
	if !ok {
		return
	}

	result, err := h.svc.Stats(ctx.Request.Context(), eventID, user)
	if err != nil {
		if renderSeatingErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleSeatingStats -> h.svc.Stats -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleExportSeating godoc
// @Summary      Export the seating chart as CSV
// @Tags         seating
// @Security     BearerAuth
// @Produce      text/csv
// @Param        eventID  path       string true "event ID"
// @Success      200      {string}   string "CSV body"
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/seating/export [get]
func (h *SeatingHandler) HandleExportSeating(ctx *gin.Context) {
	eventID, user, ok := h.resolve(ctx)
	if !ok {
		return
	}

	body, err := h.svc.ExportCSV(ctx.Request.Context(), eventID, user)
	if err != nil {
		if renderSeatingErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleExportSeating -> h.svc.ExportCSV -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="seating.csv"`)
	ctx.Data(http.StatusOK, "text/csv", []byte(body))
}
