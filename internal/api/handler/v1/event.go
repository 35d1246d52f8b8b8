package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/muster-events/backend/internal/api/handler/v1/request"
	"github.com/muster-events/backend/internal/api/handler/v1/response"
	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/service"
	"github.com/muster-events/backend/internal/stats"
)

type EventService interface {
	CreateEvent(ctx context.Context, event domain.Event, user domain.User) (domain.Event, error)
	GetEvent(ctx context.Context, eventID uuid.UUID) (domain.Event, error)
	ListEventsFor(ctx context.Context, user domain.User) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, event domain.Event, user domain.User) (domain.Event, error)
	DeleteEvent(ctx context.Context, eventID uuid.UUID, user domain.User) error
	GetResponses(ctx context.Context, eventID uuid.UUID, user domain.User) ([]domain.RSVP, error)
	GetStats(ctx context.Context, eventID uuid.UUID) (stats.Stats, error)
	ImportRoster(ctx context.Context, eventID uuid.UUID, user domain.User, entries []domain.RSVP) (int, error)
	DeleteResponse(ctx context.Context, eventID, rsvpID uuid.UUID, user domain.User) error
	CheckIn(ctx context.Context, eventID uuid.UUID, token string, user domain.User) (domain.RSVP, bool, error)
	ExportResponsesCSV(ctx context.Context, eventID uuid.UUID, user domain.User) (string, error)
}

type EventHandler struct {
	svc  EventService
	uSvc UserService
}

func NewEventHandler(svc EventService, uSvc UserService) *EventHandler {
	return &EventHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// renderEventErr maps the shared service errors; returns false when the
// error was not one of them.
func renderEventErr(ctx *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.RenderErr(ctx, response.ErrNotFound(service.ErrEventNotFound))
	case errors.Is(err, service.ErrNotEventOwner):
		response.RenderErr(ctx, response.ErrPermissionDenied(err))
	case errors.Is(err, service.ErrRemoteConflict):
		response.RenderErr(ctx, response.ErrConflict(err))
	default:
		return false
	}

	return true
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        request  body       request.CreateEventRequest true "request body"
// @Success      201      {object}   domain.Event
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events [post]
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	event, err := h.svc.CreateEvent(ctx.Request.Context(), req.ToDomain(), user)
	if err != nil {
		if renderEventErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleCreateEvent -> h.svc.CreateEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// HandleListEvents godoc
// @Summary      List the caller's events
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Success      200      {array}    domain.Event
// @Failure      500      {object}   response.Err
// @Router       /events [get]
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	events, err := h.svc.ListEventsFor(ctx.Request.Context(), user)
	if err != nil {
		if renderEventErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleListEvents -> h.svc.ListEventsFor -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Success      200      {object}   domain.Event
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID} [get]
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	event, err := h.svc.GetEvent(ctx.Request.Context(), eventID)
	if err != nil {
		if renderEventErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleGetEvent -> h.svc.GetEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleUpdateEvent godoc
// @Summary      Update an event
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        request  body       request.UpdateEventRequest true "request body"
// @Success      200      {object}   domain.Event
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID} [put]
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	var req request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	event := req.ToDomain()
	event.ID = eventID
	if req.Status != "" {
		event.Status = req.Status
	}

	updated, err := h.svc.UpdateEvent(ctx.Request.Context(), event, user)
	if err != nil {
		if renderEventErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleUpdateEvent -> h.svc.UpdateEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleDeleteEvent godoc
// @Summary      Delete an event and its responses
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Success      204      {string}   string "No Content"
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID} [delete]
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	if err := h.svc.DeleteEvent(ctx.Request.Context(), eventID, user); err != nil {
		if renderEventErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleDeleteEvent -> h.svc.DeleteEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleGetResponses godoc
// @Summary      List an event's responses
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Success      200      {array}    domain.RSVP
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/responses [get]
func (h *EventHandler) HandleGetResponses(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	responses, err := h.svc.GetResponses(ctx.Request.Context(), eventID, user)
	if err != nil {
		if renderEventErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleGetResponses -> h.svc.GetResponses -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, responses)
}

// HandleGetStats godoc
// @Summary      Get attendance stats for an event
// @Tags         events
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Success      200      {object}   stats.Stats
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/stats [get]
func (h *EventHandler) HandleGetStats(ctx *gin.Context) {
	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	result, err := h.svc.GetStats(ctx.Request.Context(), eventID)
	if err != nil {
		if renderEventErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleGetStats -> h.svc.GetStats -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleImportRoster godoc
// @Summary      Import a roster as invited guests
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        request  body       request.RosterImportRequest true "request body"
// @Success      200      {object}   response.RosterImportResponse
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/roster [post]
func (h *EventHandler) HandleImportRoster(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	var req request.RosterImportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	entries := make([]domain.RSVP, 0, len(req.Entries))
	for _, e := range req.Entries {
		if err := e.Validate(); err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("entry %q: %w", e.Email, err)))

			return
		}

		entries = append(entries, domain.RSVP{
			Name:   e.Name,
			Email:  e.Email,
			Rank:   e.Rank,
			Unit:   e.Unit,
			Branch: e.Branch,
		})
	}

	imported, err := h.svc.ImportRoster(ctx.Request.Context(), eventID, user, entries)
	if err != nil {
		if renderEventErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleImportRoster -> h.svc.ImportRoster -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.RosterImportResponse{Imported: imported})
}

// HandleDeleteResponse godoc
// @Summary      Delete a single response
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        rsvpID   path       string true "RSVP ID"
// @Success      204      {string}   string "No Content"
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/responses/{rsvpID} [delete]
func (h *EventHandler) HandleDeleteResponse(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	rsvpID, err := uuid.Parse(ctx.Param("rsvpID"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid RSVP ID")))

		return
	}

	if err = h.svc.DeleteResponse(ctx.Request.Context(), eventID, rsvpID, user); err != nil {
		if errors.Is(err, service.ErrRSVPNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrRSVPNotFound))

			return
		}
		if renderEventErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleDeleteResponse -> h.svc.DeleteResponse -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleCheckIn godoc
// @Summary      Check in a guest by scanned token
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        request  body       request.CheckInRequest true "request body"
// @Success      200      {object}   response.CheckInResponse
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/check-in [post]
func (h *EventHandler) HandleCheckIn(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	var req request.CheckInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	rsvp, alreadyIn, err := h.svc.CheckIn(ctx.Request.Context(), eventID, req.Token, user)
	if err != nil {
		if errors.Is(err, service.ErrRSVPNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(errors.New("unknown check-in token")))

			return
		}
		if renderEventErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleCheckIn -> h.svc.CheckIn -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.CheckInResponse{
		Name:       rsvp.Name,
		PartySize:  rsvp.PartySize(),
		CheckedIn:  true,
		AlreadyIn:  alreadyIn,
		DietaryStr: strings.Join(rsvp.DietaryRestrictions, ", "),
	})
}

// HandleExportResponses godoc
// @Summary      Export an event's responses as CSV
// @Tags         events
// @Security     BearerAuth
// @Produce      text/csv
// @Param        eventID  path       string true "event ID"
// @Success      200      {string}   string "CSV body"
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/responses/export [get]
func (h *EventHandler) HandleExportResponses(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	body, err := h.svc.ExportResponsesCSV(ctx.Request.Context(), eventID, user)
	if err != nil {
		if renderEventErr(ctx, err) {
			return
		}

		err = fmt.Errorf("v1.HandleExportResponses -> h.svc.ExportResponsesCSV -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="responses.csv"`)
	ctx.Data(http.StatusOK, "text/csv", []byte(body))
}
