package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/service"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/httputil"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/requestcontext"
)

// Service defines the MRCM operations exposed to operators.
type Service interface {
	UpdateAll(ctx context.Context, path string) (*service.Result, error)
	Preview(ctx context.Context, path string) (*service.Result, error)
	SetAutoUpdate(ctx context.Context, path string, enabled bool) (*vmodels.Branch, error)
}

// Handler wires MRCM admin endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the admin endpoints. Branch paths contain slashes, so they are taken
// from the wildcard.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/mrcm/rebuild/*", h.HandleRebuild)
	r.Get("/admin/mrcm/preview/*", h.HandlePreview)
	r.Put("/admin/branches/auto-update/*", h.HandleSetAutoUpdate)
}

// HandleRebuild handles POST /admin/mrcm/rebuild/{branch}.
func (h *Handler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path, ok := branchPath(w, r)
	if !ok {
		return
	}
	start := time.Now()

	result, err := h.service.UpdateAll(ctx, path)
	if err != nil {
		h.logger.ErrorContext(ctx, "MRCM rebuild failed",
			"request_id", requestcontext.RequestID(ctx),
			"branch", path,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "MRCM rebuilt",
		"request_id", requestcontext.RequestID(ctx),
		"branch", path,
		"changes", result.Changes.Size(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandlePreview handles GET /admin/mrcm/preview/{branch}.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path, ok := branchPath(w, r)
	if !ok {
		return
	}
	result, err := h.service.Preview(ctx, path)
	if err != nil {
		h.logger.ErrorContext(ctx, "MRCM preview failed",
			"request_id", requestcontext.RequestID(ctx),
			"branch", path,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type autoUpdateRequest struct {
	Enabled *bool `json:"enabled"`
}

type autoUpdateResponse struct {
	Branch     string `json:"branch"`
	AutoUpdate bool   `json:"auto_update"`
}

// HandleSetAutoUpdate handles PUT /admin/branches/auto-update/{branch}.
func (h *Handler) HandleSetAutoUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path, ok := branchPath(w, r)
	if !ok {
		return
	}
	var req autoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Enabled == nil {
		httputil.BadRequest(w, "enabled is required")
		return
	}

	branch, err := h.service.SetAutoUpdate(ctx, path, *req.Enabled)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, autoUpdateResponse{
		Branch:     branch.Path,
		AutoUpdate: branch.MetadataValue(service.MetadataDisableAutoUpdate) != "true",
	})
}

func branchPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	path := strings.Trim(chi.URLParam(r, "*"), "/")
	if path == "" {
		httputil.BadRequest(w, "branch path is required")
		return "", false
	}
	return path, true
}
