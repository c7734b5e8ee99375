package api

import (
	"context"
	"net/http"
)

// DashboardDependencies defines the interface for reading the published list.
type DashboardDependencies interface {
	Dashboard(ctx context.Context) Dashboard
}

// DashboardHandler handles dashboard requests.
type DashboardHandler struct {
	deps DashboardDependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleGetDashboard handles GET /api/dashboard requests. The body is the
// ordered student list with the loading flag and the last cycle error.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Dashboard(r.Context()))
}
