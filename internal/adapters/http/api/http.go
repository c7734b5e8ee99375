// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/studentdash/internal/app"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	DashboardDependencies
	StudentDependencies
	CardsDependencies
	SettingsDependencies
	RefreshDependencies
	StreamDependencies
}

// Dashboard mirrors the published contract served by GET /api/dashboard.
type Dashboard = service.Dashboard

// Card mirrors one entry of GET /api/cards.
type Card = service.Card

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dashboardHandler *DashboardHandler
	studentHandler   *StudentHandler
	cardsHandler     *CardsHandler
	settingsHandler  *SettingsHandler
	refreshHandler   *RefreshHandler
	streamHandler    *StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		dashboardHandler: NewDashboardHandler(deps),
		studentHandler:   NewStudentHandler(deps),
		cardsHandler:     NewCardsHandler(deps),
		settingsHandler:  NewSettingsHandler(deps),
		refreshHandler:   NewRefreshHandler(deps),
		streamHandler:    NewStreamHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/dashboard", MetricsMiddleware(s.dashboardHandler.HandleGetDashboard, "dashboard"))
	mux.HandleFunc("/api/students/", MetricsMiddleware(s.studentHandler.HandleGetStudent, "student"))
	mux.HandleFunc("/api/cards", MetricsMiddleware(s.cardsHandler.HandleGetCards, "cards"))
	mux.HandleFunc("/api/settings", MetricsMiddleware(s.settingsHandler.HandleSettings, "settings"))
	mux.HandleFunc("/api/refresh", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))
	mux.HandleFunc("/api/stream", MetricsMiddleware(s.streamHandler.HandleStream, "stream"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
