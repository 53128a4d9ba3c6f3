package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "partyhub/internal/delivery/http/helpers"
	"partyhub/internal/delivery/http/middleware"
	"partyhub/internal/domain"
)

// errCodeNoInvitesRemaining is the envelope error code for an exhausted
// invite budget.
const errCodeNoInvitesRemaining = "no_invites_remaining"

// SendInviteRequest is the request body for POST /api/invites.
type SendInviteRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (s SendInviteRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(s.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// AcceptInviteRequest is the request body for POST /api/invites/accept.
type AcceptInviteRequest struct {
	Code  string `json:"code"`
	Email string `json:"email"`
}

// Validate implements Validator.
func (a AcceptInviteRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.Code) == "" {
		errs = append(errs, "code is required")
	}
	email := strings.TrimSpace(strings.ToLower(a.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

type InviteController struct {
	Logger  *slog.Logger
	Service domain.InviteService
}

func NewInviteController(logger *slog.Logger, svc domain.InviteService) *InviteController {
	return &InviteController{
		Logger:  logger,
		Service: svc,
	}
}

// Overview godoc
// @Summary My invite budget and sent invites
// @Description Returns the caller's remaining invite budget and every invite they sent.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains budget and sent[]"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/invites [get]
func (c *InviteController) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	overview, err := c.Service.Overview(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, overview)
}

// SendInvite godoc
// @Summary Send an invite
// @Description Spends one invite from the caller's budget and emails the recipient a personal invite code. The budget never goes negative; at 0 remaining this returns 409 no_invites_remaining.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SendInviteRequest true "Recipient email"
// @Success 201 {object} helpers.APIResponse "data contains the created invite"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: no_invites_remaining or conflict (duplicate recipient)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/invites [post]
func (c *InviteController) SendInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req SendInviteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	invite, err := c.Service.SendInvite(r.Context(), userID, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNoInvitesRemaining) {
			h.WriteJSONError(w, http.StatusConflict, errCodeNoInvitesRemaining, "no invites remaining")
			return
		}
		if errors.Is(err, domain.ErrDuplicateInvite) {
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, "invite already sent to this email")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, invite)
}

// AcceptInvite godoc
// @Summary Accept an invite
// @Description Marks an invite code as accepted. Unauthenticated: the acceptor may not have an account yet. When they do, sender and acceptor are connected.
// @Tags invites
// @Accept json
// @Produce json
// @Param body body AcceptInviteRequest true "Invite code and acceptor email"
// @Success 200 {object} helpers.APIResponse "data contains the accepted invite"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown code)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already accepted)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/invites/accept [post]
func (c *InviteController) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req AcceptInviteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	invite, err := c.Service.AcceptInvite(r.Context(), req.Code, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "invite code not found")
			return
		}
		if errors.Is(err, domain.ErrInviteUsed) {
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, "invite already accepted")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, invite)
}
