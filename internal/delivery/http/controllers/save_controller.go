package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"partyhub/internal/delivery/http/helpers"
	"partyhub/internal/delivery/http/middleware"
	"partyhub/internal/domain"
)

// SavePartyRequest is the request body for POST /api/parties/{partyID}/save.
// An empty body or empty status means a plain bookmark.
type SavePartyRequest struct {
	Status string `json:"status"`
}

// Validate implements Validator.
func (s SavePartyRequest) Validate() []string {
	if s.Status != "" && !domain.ValidSaveStatus(s.Status) {
		return []string{"status must be \"saved\" or \"going\""}
	}
	return nil
}

// SavedPartiesResponse is the data payload for GET /api/me/parties.
type SavedPartiesResponse struct {
	Parties []*domain.SavedParty `json:"parties"`
}

// UnsavePartyResponse is the data payload for DELETE /api/parties/{partyID}/save (200).
type UnsavePartyResponse struct {
	Status string `json:"status"`
}

type SaveController struct {
	Logger  *slog.Logger
	Service domain.SaveService
}

func NewSaveController(logger *slog.Logger, svc domain.SaveService) *SaveController {
	return &SaveController{
		Logger:  logger,
		Service: svc,
	}
}

// SaveParty godoc
// @Summary Save or RSVP a party
// @Description Saves the party for the caller. Status "saved" (default) is a bookmark, "going" an RSVP. Idempotent: re-posting returns 200 with the existing save, re-posting a different status updates it.
// @Tags saves
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param partyID path string true "Party ID"
// @Param body body SavePartyRequest false "Save status (defaults to saved)"
// @Success 200 {object} helpers.APIResponse "data contains the existing or updated save"
// @Success 201 {object} helpers.APIResponse "data contains the created save"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/parties/{partyID}/save [post]
func (c *SaveController) SaveParty(w http.ResponseWriter, r *http.Request) {
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
	req := SavePartyRequest{Status: domain.SaveStatusSaved}
	if r.Body != nil && r.ContentLength != 0 {
		if !helpers.DecodeAndValidate(w, r, &req) {
			return
		}
		if req.Status == "" {
			req.Status = domain.SaveStatusSaved
		}
	}

	save, created, err := c.Service.SaveParty(r.Context(), partyID, userID, req.Status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "party not found")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, save)
}

// UnsaveParty godoc
// @Summary Unsave a party
// @Description Removes the caller's save of the party.
// @Tags saves
// @Produce json
// @Security BearerAuth
// @Param partyID path string true "Party ID"
// @Success 200 {object} helpers.APIResponse "data contains status removed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (party not saved)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/parties/{partyID}/save [delete]
func (c *SaveController) UnsaveParty(w http.ResponseWriter, r *http.Request) {
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
	if err := c.Service.UnsaveParty(r.Context(), partyID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "party not saved")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, UnsavePartyResponse{Status: "removed"})
}

// ListSavedParties godoc
// @Summary List my saved parties
// @Description Returns the caller's saves joined with their parties, soonest first.
// @Tags saves
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the saved parties"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/me/parties [get]
func (c *SaveController) ListSavedParties(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	parties, err := c.Service.ListSavedParties(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SavedPartiesResponse{Parties: parties})
}
