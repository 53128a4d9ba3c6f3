package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"partyhub/internal/delivery/http/helpers"
	"partyhub/internal/delivery/http/middleware"
	"partyhub/internal/domain"
)

// CreatePartyRequest is the request body for POST /api/parties (admin).
type CreatePartyRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Category    string    `json:"category"`
	FocusTags   []string  `json:"focus_tags"`
	Capacity    int       `json:"capacity"`
	Featured    bool      `json:"featured"`
}

// Validate implements Validator.
func (p CreatePartyRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(p.Title) == "" {
		errs = append(errs, "title is required")
	}
	if p.StartsAt.IsZero() {
		errs = append(errs, "starts_at is required")
	}
	if p.EndsAt.IsZero() {
		errs = append(errs, "ends_at is required")
	}
	if !p.StartsAt.IsZero() && !p.EndsAt.IsZero() && !p.EndsAt.After(p.StartsAt) {
		errs = append(errs, "ends_at must be after starts_at")
	}
	if p.Capacity < 0 {
		errs = append(errs, "capacity must not be negative")
	}
	return errs
}

// UpdatePartyRequest is the request body for PUT /api/parties/{partyID} (admin).
// All fields optional; omitted fields are unchanged.
type UpdatePartyRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Venue       *string    `json:"venue"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Category    *string    `json:"category"`
	FocusTags   []string   `json:"focus_tags"`
	Capacity    *int       `json:"capacity"`
	Featured    *bool      `json:"featured"`
}

// Validate implements Validator. Cross-field time ordering is only checkable
// here when both ends are in the body; the service re-checks against the
// stored row.
func (p UpdatePartyRequest) Validate() []string {
	var errs []string
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		errs = append(errs, "title must not be empty")
	}
	if p.StartsAt != nil && p.EndsAt != nil && !p.EndsAt.After(*p.StartsAt) {
		errs = append(errs, "ends_at must be after starts_at")
	}
	if p.Capacity != nil && *p.Capacity < 0 {
		errs = append(errs, "capacity must not be negative")
	}
	return errs
}

// PartyListResponse is the data payload for GET /api/parties.
type PartyListResponse struct {
	Parties    []*domain.PartyView    `json:"parties"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// PartyListSuccessResponse is the success response envelope for GET /api/parties (200).
type PartyListSuccessResponse struct {
	Data  PartyListResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// DeletePartyResponse is the data payload for DELETE /api/parties/{partyID} (200).
type DeletePartyResponse struct {
	Status string `json:"status"`
}

type PartyController struct {
	Logger  *slog.Logger
	Service domain.PartyService
}

func NewPartyController(logger *slog.Logger, svc domain.PartyService) *PartyController {
	return &PartyController{
		Logger:  logger,
		Service: svc,
	}
}

// parsePartyFilters reads the list filters from the query string. The error
// message names the offending parameter.
func parsePartyFilters(r *http.Request) (domain.PartyFilters, string) {
	q := r.URL.Query()
	filters := domain.PartyFilters{
		Category: strings.TrimSpace(q.Get("category")),
		Query:    strings.TrimSpace(q.Get("q")),
	}
	if s := q.Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filters, "from must be an RFC3339 timestamp"
		}
		filters.From = &t
	}
	if s := q.Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filters, "to must be an RFC3339 timestamp"
		}
		filters.To = &t
	}
	if s := q.Get("featured"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return filters, "featured must be a boolean"
		}
		filters.Featured = &v
	}
	return filters, ""
}

// ListParties godoc
// @Summary List parties
// @Description Paginated party list sorted by start time. Filters: category, q (title/venue substring), from/to (RFC3339), featured. Every item carries a persona breakdown; authenticated callers also get their save status per party.
// @Tags parties
// @Produce json
// @Param category query string false "Filter by category"
// @Param q query string false "Title/venue substring filter"
// @Param from query string false "Only parties starting at or after this RFC3339 time"
// @Param to query string false "Only parties starting before this RFC3339 time"
// @Param featured query bool false "Only featured parties"
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} controllers.PartyListSuccessResponse "data contains parties and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/parties [get]
func (c *PartyController) ListParties(w http.ResponseWriter, r *http.Request) {
	filters, badParam := parsePartyFilters(r)
	if badParam != "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, badParam)
		return
	}
	page := helpers.ParsePagination(r)
	userID, _ := middleware.UserIDFromContext(r.Context())

	parties, total, err := c.Service.ListParties(r.Context(), filters, page, userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, PartyListResponse{
		Parties:    parties,
		Pagination: helpers.NewPaginationMeta(page.Page, page.Limit(), total),
	})
}

// GetParty godoc
// @Summary Get a party
// @Description Returns one party with its persona breakdown and going-count. Authenticated callers also get their save status.
// @Tags parties
// @Produce json
// @Param partyID path string true "Party ID"
// @Success 200 {object} helpers.APIResponse "data contains the party view"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/parties/{partyID} [get]
func (c *PartyController) GetParty(w http.ResponseWriter, r *http.Request) {
	partyID := r.PathValue("partyID")
	if partyID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing partyID")
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())

	view, err := c.Service.GetParty(r.Context(), partyID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "party not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// CreateParty godoc
// @Summary Create a party
// @Description Creates a manually curated party. Admin only.
// @Tags parties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePartyRequest true "Party data"
// @Success 201 {object} helpers.APIResponse "data contains the created party"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/parties [post]
func (c *PartyController) CreateParty(w http.ResponseWriter, r *http.Request) {
	var req CreatePartyRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	party := &domain.Party{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Category:    req.Category,
		FocusTags:   req.FocusTags,
		Capacity:    req.Capacity,
		Featured:    req.Featured,
	}
	if err := c.Service.CreateParty(r.Context(), party); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, party)
}

// UpdateParty godoc
// @Summary Update a party
// @Description Updates party fields; omitted fields are unchanged. Admin only.
// @Tags parties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param partyID path string true "Party ID"
// @Param body body UpdatePartyRequest true "Fields to update (all optional)"
// @Success 200 {object} helpers.APIResponse "data contains the updated party"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/parties/{partyID} [put]
func (c *PartyController) UpdateParty(w http.ResponseWriter, r *http.Request) {
	partyID := r.PathValue("partyID")
	if partyID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing partyID")
		return
	}
	var req UpdatePartyRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	upd := domain.PartyUpdate{
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Category:    req.Category,
		FocusTags:   req.FocusTags,
		Capacity:    req.Capacity,
		Featured:    req.Featured,
	}
	party, err := c.Service.UpdateParty(r.Context(), partyID, upd)
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
	helpers.WriteJSONSuccess(w, http.StatusOK, party)
}

// DeleteParty godoc
// @Summary Delete a party
// @Description Deletes a party and everyone's saves of it. Admin only.
// @Tags parties
// @Produce json
// @Security BearerAuth
// @Param partyID path string true "Party ID"
// @Success 200 {object} helpers.APIResponse "data contains status deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/parties/{partyID} [delete]
func (c *PartyController) DeleteParty(w http.ResponseWriter, r *http.Request) {
	partyID := r.PathValue("partyID")
	if partyID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing partyID")
		return
	}
	if err := c.Service.DeleteParty(r.Context(), partyID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "party not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeletePartyResponse{Status: "deleted"})
}
