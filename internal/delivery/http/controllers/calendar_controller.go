package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"partyhub/internal/delivery/http/helpers"
	"partyhub/internal/delivery/http/middleware"
	"partyhub/internal/domain"
)

// EnableFeedRequest is the request body for POST /api/calendar/feed. An
// empty body keeps an existing token; rotate replaces it.
type EnableFeedRequest struct {
	Rotate bool `json:"rotate"`
}

// DisableFeedResponse is the data payload for DELETE /api/calendar/feed (200).
type DisableFeedResponse struct {
	Status string `json:"status"`
}

type CalendarController struct {
	Logger  *slog.Logger
	Service domain.CalendarService
}

func NewCalendarController(logger *slog.Logger, svc domain.CalendarService) *CalendarController {
	return &CalendarController{
		Logger:  logger,
		Service: svc,
	}
}

// EnableFeed godoc
// @Summary Enable or rotate my calendar feed
// @Description Issues the caller's calendar feed token and returns the subscription URL. With rotate true a fresh token replaces the old one, cutting off anyone holding the old URL.
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body EnableFeedRequest false "Set rotate to replace an existing token"
// @Success 200 {object} helpers.APIResponse "data contains the calendar status with feed_url"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/calendar/feed [post]
func (c *CalendarController) EnableFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req EnableFeedRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !helpers.DecodeAndValidate(w, r, &req) {
			return
		}
	}
	status, err := c.Service.EnableFeed(r.Context(), userID, req.Rotate)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, status)
}

// DisableFeed godoc
// @Summary Disable my calendar feed
// @Description Revokes the caller's feed token. The subscription URL stops working immediately.
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains status disabled"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/calendar/feed [delete]
func (c *CalendarController) DisableFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DisableFeed(r.Context(), userID); err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DisableFeedResponse{Status: "disabled"})
}

// Status godoc
// @Summary My calendar sync status
// @Description Reports whether a feed token exists, its URL, when the feed was last served, and how many saved parties it would contain.
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the calendar status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/calendar/status [get]
func (c *CalendarController) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	status, err := c.Service.Status(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, status)
}

// ServeFeed godoc
// @Summary Serve a calendar feed
// @Description Renders the ICS calendar of the token owner's saved parties. The token in the URL is the only credential; calendar apps poll this without headers.
// @Tags calendar
// @Produce text/calendar
// @Param token path string true "Feed token (with .ics suffix)"
// @Success 200 {string} string "ICS calendar"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown or revoked token)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/calendar/feed/{token} [get]
func (c *CalendarController) ServeFeed(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutSuffix(r.PathValue("token"), ".ics")
	if !ok || token == "" {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "calendar feed not found")
		return
	}
	ics, err := c.Service.Feed(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrFeedTokenNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "calendar feed not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ics)
}

// PartyICS godoc
// @Summary Download one party as an ICS event
// @Description Renders a single party as a downloadable calendar event. The event status reflects the caller's save: CONFIRMED when going, TENTATIVE otherwise.
// @Tags calendar
// @Produce text/calendar
// @Security BearerAuth
// @Param partyID path string true "Party ID"
// @Success 200 {string} string "ICS event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/parties/{partyID}/calendar.ics [get]
func (c *CalendarController) PartyICS(w http.ResponseWriter, r *http.Request) {
	partyID := r.PathValue("partyID")
	if partyID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing partyID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	ics, err := c.Service.PartyICS(r.Context(), userID, partyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "party not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="party.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ics)
}
