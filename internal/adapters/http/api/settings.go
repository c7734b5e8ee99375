package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/studentdash/internal/domain/policy"
)

const maxSettingsBody = 64 << 10

// SettingsDependencies defines the interface for the metric policy.
type SettingsDependencies interface {
	Settings(ctx context.Context) policy.Settings
	SaveSettings(ctx context.Context, st policy.Settings) error
}

// SettingsHandler handles metric policy requests.
type SettingsHandler struct {
	deps SettingsDependencies
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(deps SettingsDependencies) *SettingsHandler {
	return &SettingsHandler{deps: deps}
}

// HandleSettings handles GET and PUT /api/settings requests. A PUT body is
// applied over the active policy, so sources it omits keep their values.
func (h *SettingsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.Settings(r.Context()))
	case http.MethodPut:
		h.put(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_settings"
	st := h.deps.Settings(r.Context())
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&st); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SaveSettings(r.Context(), st); err != nil {
		if errors.Is(err, policy.ErrInvalidPolicy) {
			writeError(w, http.StatusBadRequest, "invalid_policy", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
