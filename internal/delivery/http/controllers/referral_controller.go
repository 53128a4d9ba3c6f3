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

// RedeemReferralRequest is the request body for POST /api/referral/redeem.
type RedeemReferralRequest struct {
	Code string `json:"code"`
}

// Validate implements Validator.
func (r RedeemReferralRequest) Validate() []string {
	if strings.TrimSpace(r.Code) == "" {
		return []string{"code is required"}
	}
	return nil
}

type ReferralController struct {
	Logger  *slog.Logger
	Service domain.ReferralService
}

func NewReferralController(logger *slog.Logger, svc domain.ReferralService) *ReferralController {
	return &ReferralController{
		Logger:  logger,
		Service: svc,
	}
}

// Generate godoc
// @Summary Generate my referral code
// @Description Returns the caller's shareable referral code, minting it on first call. Regenerating returns the same code.
// @Tags referral
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the referral code"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/referral/generate [post]
func (c *ReferralController) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	code, err := c.Service.MyCode(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, code)
}

// Redeem godoc
// @Summary Redeem a referral code
// @Description Redeems a code (case-insensitive) and grants its bonus to the caller's invite budget. Each code redeems at most once per user.
// @Tags referral
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RedeemReferralRequest true "Code to redeem"
// @Success 200 {object} helpers.APIResponse "data contains code, bonus_granted, and invites_remaining"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (own code, empty code)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown code)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already redeemed)"
// @Failure 410 {object} helpers.APIResponse "error.code: gone (expired or exhausted)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/referral/redeem [post]
func (c *ReferralController) Redeem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req RedeemReferralRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	outcome, err := c.Service.Redeem(r.Context(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeNotFound):
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "referral code not found")
		case errors.Is(err, domain.ErrOwnCode):
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "cannot redeem your own code")
		case errors.Is(err, domain.ErrAlreadyRedeemed):
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, "code already redeemed")
		case errors.Is(err, domain.ErrCodeExpired):
			h.WriteJSONError(w, http.StatusGone, h.ErrCodeGone, "referral code expired")
		case errors.Is(err, domain.ErrCodeExhausted):
			h.WriteJSONError(w, http.StatusGone, h.ErrCodeGone, "referral code has no uses left")
		case errors.Is(err, domain.ErrInvalidInput):
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		}
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, outcome)
}

// Status godoc
// @Summary My referral status
// @Description Returns the caller's own code (if generated) with its use count, plus the codes they redeemed.
// @Tags referral
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains code and redeemed[]"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/referral/status [get]
func (c *ReferralController) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	status, err := c.Service.Status(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, status)
}
