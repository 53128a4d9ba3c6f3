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

// CreateConnectionRequest is the request body for POST /api/connections.
type CreateConnectionRequest struct {
	UserID string `json:"user_id"`
}

// Validate implements Validator.
func (c CreateConnectionRequest) Validate() []string {
	if strings.TrimSpace(c.UserID) == "" {
		return []string{"user_id is required"}
	}
	return nil
}

// ConnectionListResponse is the data payload for GET /api/connections.
type ConnectionListResponse struct {
	Connections []*domain.ConnectedUser `json:"connections"`
}

// DisconnectResponse is the data payload for DELETE /api/connections/{userID} (200).
type DisconnectResponse struct {
	Status string `json:"status"`
}

type ConnectionController struct {
	Logger  *slog.Logger
	Service domain.ConnectionService
}

func NewConnectionController(logger *slog.Logger, svc domain.ConnectionService) *ConnectionController {
	return &ConnectionController{
		Logger:  logger,
		Service: svc,
	}
}

// ListConnections godoc
// @Summary List my connections
// @Description Returns the profiles of everyone the caller is connected with.
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains connections[]"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/connections [get]
func (c *ConnectionController) ListConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	conns, err := c.Service.ListConnections(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ConnectionListResponse{Connections: conns})
}

// Connect godoc
// @Summary Connect with another attendee
// @Description Creates a connection between the caller and the given user. One row per pair regardless of direction.
// @Tags connections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateConnectionRequest true "The user to connect with"
// @Success 201 {object} helpers.APIResponse "data contains the connection"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (self-connect)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown user)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already connected)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/connections [post]
func (c *ConnectionController) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateConnectionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	conn, err := c.Service.Connect(r.Context(), userID, req.UserID, domain.ConnectionSourceManual)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateConnection) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "already connected")
			return
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
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
	helpers.WriteJSONSuccess(w, http.StatusCreated, conn)
}

// Disconnect godoc
// @Summary Remove a connection
// @Description Deletes the connection between the caller and the given user.
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param userID path string true "The other user's ID"
// @Success 200 {object} helpers.APIResponse "data contains status removed"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (not connected)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/connections/{userID} [delete]
func (c *ConnectionController) Disconnect(w http.ResponseWriter, r *http.Request) {
	otherID := r.PathValue("userID")
	if otherID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing userID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Disconnect(r.Context(), userID, otherID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not connected")
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
	helpers.WriteJSONSuccess(w, http.StatusOK, DisconnectResponse{Status: "removed"})
}
