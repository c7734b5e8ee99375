package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/studentdash/internal/domain/model"
)

const keepAliveInterval = 20 * time.Second

// StreamDependencies defines the interface for change notifications.
type StreamDependencies interface {
	Subscribe(fn func([]model.StudentRecord)) (func(), error)
	SubscribeErrors(fn func(error)) (func(), error)
}

// StreamHandler serves published lists as server-sent events.
type StreamHandler struct {
	deps      StreamDependencies
	keepAlive time.Duration
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps StreamDependencies) *StreamHandler {
	return &StreamHandler{deps: deps, keepAlive: keepAliveInterval}
}

type streamError struct {
	Message string `json:"message"`
}

// HandleStream handles GET /api/stream requests. The current list is sent
// first, then every published list as a "students" event and every cycle
// failure as an "error" event. Slow clients only see the latest list.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrStreaming))
		return
	}

	lists := make(chan []model.StudentRecord, 1)
	errs := make(chan error, 1)
	unsubscribe, err := h.deps.Subscribe(func(list []model.StudentRecord) {
		for {
			select {
			case lists <- list:
				return
			default:
			}
			select {
			case <-lists:
			default:
			}
		}
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	}
	defer unsubscribe()
	unsubscribeErrors, err := h.deps.SubscribeErrors(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	}
	defer unsubscribeErrors()

	// The server's write timeout would otherwise cut long-lived streams.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case list := <-lists:
			if list == nil {
				list = []model.StudentRecord{}
			}
			if writeEvent(w, "students", list) != nil {
				return
			}
		case err := <-errs:
			if writeEvent(w, "error", streamError{Message: err.Error()}) != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
