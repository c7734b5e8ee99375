package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/studentdash/internal/app"
)

// RefreshDependencies defines the interface for on-demand cycles.
type RefreshDependencies interface {
	Refresh(ctx context.Context) error
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type refreshResponse struct {
	Status string `json:"status"`
}

// HandleRefresh handles POST /api/refresh requests. A failing cycle is
// reported as 502 since the fault lies with the snapshot source.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Refresh(r.Context()); err != nil {
		if errors.Is(err, service.ErrNotStarted) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
			return
		}
		writeError(w, http.StatusBadGateway, "refresh_failed", WrapKind(op, ErrRefresh, err))
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Status: "refreshed"})
}
