package controllers

import (
	"log/slog"
	"net/http"

	"partyhub/internal/delivery/http/helpers"
	"partyhub/internal/domain"
)

// FeedSyncResponse is the data payload for POST /api/admin/feeds/sync.
type FeedSyncResponse struct {
	Reports []*domain.FeedSyncReport `json:"reports"`
}

// FeedSourcesResponse is the data payload for GET /api/admin/feeds.
type FeedSourcesResponse struct {
	Sources []*domain.FeedSourceStatus `json:"sources"`
}

type FeedAdminController struct {
	Logger  *slog.Logger
	Service domain.FeedSyncService
}

func NewFeedAdminController(logger *slog.Logger, svc domain.FeedSyncService) *FeedAdminController {
	return &FeedAdminController{
		Logger:  logger,
		Service: svc,
	}
}

// SyncNow godoc
// @Summary Sync upstream feeds now
// @Description Runs one sync pass over every configured upstream feed and reports per-source results. Runs in addition to the scheduled sync. Admin only.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains one report per source"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /api/admin/feeds/sync [post]
func (c *FeedAdminController) SyncNow(w http.ResponseWriter, r *http.Request) {
	reports := c.Service.SyncAll(r.Context())
	helpers.WriteJSONSuccess(w, http.StatusOK, FeedSyncResponse{Reports: reports})
}

// ListSources godoc
// @Summary List upstream feed sources
// @Description Lists the configured upstream feeds with their sync state: validators, last fetch and sync times, and last outcome. Admin only.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains sources[] with state"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/admin/feeds [get]
func (c *FeedAdminController) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := c.Service.SourceStates(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, FeedSourcesResponse{Sources: sources})
}
