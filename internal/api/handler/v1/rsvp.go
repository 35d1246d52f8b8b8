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

type RSVPService interface {
	Submit(ctx context.Context, eventID uuid.UUID, sub service.Submission) (domain.Confirmation, error)
	FindByEditToken(ctx context.Context, eventID uuid.UUID, editToken string) (domain.RSVP, error)
}

type RSVPHandler struct {
	svc RSVPService
}

func NewRSVPHandler(svc RSVPService) *RSVPHandler {
	return &RSVPHandler{
		svc: svc,
	}
}

// HandleSubmitRSVP godoc
// @Summary      Submit or update an RSVP
// @Tags         rsvps
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        request  body       request.SubmitRSVPRequest true "request body"
// @Success      200      {object}   domain.Confirmation
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      429      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/rsvp [post]
func (h *RSVPHandler) HandleSubmitRSVP(ctx *gin.Context) {
	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	var req request.SubmitRSVPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	confirmation, err := h.svc.Submit(ctx.Request.Context(), eventID, req.ToSubmission())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound(service.ErrEventNotFound))
		case errors.Is(err, service.ErrInvalidEditToken):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidEditToken))
		case errors.Is(err, service.ErrSubmissionInProgress):
			response.RenderErr(ctx, response.ErrTooManyRequests(service.ErrSubmissionInProgress))
		default:
			err = fmt.Errorf("v1.HandleSubmitRSVP -> h.svc.Submit -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, confirmation)
}

// HandleGetRSVPByEditToken godoc
// @Summary      Load an existing RSVP for editing
// @Tags         rsvps
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        token    query      string true "edit token"
// @Success      200      {object}   domain.RSVP
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/rsvp [get]
func (h *RSVPHandler) HandleGetRSVPByEditToken(ctx *gin.Context) {
	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	token := ctx.Query("token")
	if token == "" {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("missing edit token")))

		return
	}

	rsvp, err := h.svc.FindByEditToken(ctx.Request.Context(), eventID, token)
	if err != nil {
		if errors.Is(err, service.ErrRSVPNotFound) || errors.Is(err, service.ErrInvalidEditToken) {
			response.RenderErr(ctx, response.ErrNotFound(errors.New("no RSVP matches this edit token")))

			return
		}

		err = fmt.Errorf("v1.HandleGetRSVPByEditToken -> h.svc.FindByEditToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, rsvp)
}
