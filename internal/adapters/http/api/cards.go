package api

import (
	"context"
	"net/http"
)

// CardsDependencies defines the interface for per-source evaluations.
type CardsDependencies interface {
	Cards(ctx context.Context) []Card
}

// CardsHandler handles card requests.
type CardsHandler struct {
	deps CardsDependencies
}

// NewCardsHandler creates a new cards handler.
func NewCardsHandler(deps CardsDependencies) *CardsHandler {
	return &CardsHandler{deps: deps}
}

// HandleGetCards handles GET /api/cards requests.
func (h *CardsHandler) HandleGetCards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	cards := h.deps.Cards(r.Context())
	if cards == nil {
		cards = []Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}
