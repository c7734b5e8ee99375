package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/studentdash/internal/app"
	"github.com/okian/studentdash/internal/domain/model"
)

// StudentDependencies defines the interface for single student lookups.
type StudentDependencies interface {
	Student(ctx context.Context, id string) (model.StudentRecord, error)
}

// StudentHandler handles student requests.
type StudentHandler struct {
	deps StudentDependencies
}

// NewStudentHandler creates a new student handler.
func NewStudentHandler(deps StudentDependencies) *StudentHandler {
	return &StudentHandler{deps: deps}
}

// HandleGetStudent handles GET /api/students/{id} requests.
func (h *StudentHandler) HandleGetStudent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_student"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/students/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.Student(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
