package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// MaxUploadSize caps the uploaded image at 10MB.
const MaxUploadSize = 10 * 1024 * 1024

// Answerer answers a question about an image.
type Answerer interface {
	Answer(ctx context.Context, image []byte, mimeType, question string) (string, error)
}

type Handler struct {
	answerer      Answerer
	maxUploadSize int64
}

func New(answerer Answerer) *Handler {
	return &Handler{
		answerer:      answerer,
		maxUploadSize: MaxUploadSize,
	}
}

// Routes returns the API mux wrapped in the request logging and CORS
// middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/process", h.HandleProcess)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.ErrorContext(r.Context(), "Unable to write healthcheck", "err", err)
		}
	})
	mux.HandleFunc("/", h.HandleRoot)

	return withRequestLogging(withCORS(mux))
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

// writeError sends {"detail": message}, the error shape clients parse.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), message, "status", code)
	} else {
		slog.WarnContext(r.Context(), message, "status", code)
	}
	h.writeJSON(w, code, map[string]string{"detail": message})
}
