package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/docvqa/internal/logging"
)

// withRequestLogging tags each request with an id, logs its start and end,
// and stamps X-Request-ID and X-Process-Time on the response.
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		ctx := logging.WithRequestID(r.Context(), reqID)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", reqID)

		status := 0
		stamp := func(code int) {
			if status != 0 {
				return
			}
			status = code
			w.Header().Set("X-Process-Time", fmt.Sprintf("%.6f", time.Since(start).Seconds()))
		}

		ww := httpsnoop.Wrap(w, httpsnoop.Hooks{
			WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
				return func(code int) {
					stamp(code)
					next(code)
				}
			},
			Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
				return func(b []byte) (int, error) {
					stamp(http.StatusOK)
					return next(b)
				}
			},
			ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
				return func(src io.Reader) (int64, error) {
					stamp(http.StatusOK)
					return next(src)
				}
			},
		})

		slog.InfoContext(ctx, "Request started", "method", r.Method, "path", r.URL.Path)

		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(ctx, "Request failed", "err", rec, "duration", time.Since(start))
				if status == 0 {
					ww.Header().Set("Content-Type", "application/json")
					ww.WriteHeader(http.StatusInternalServerError)
					_, _ = ww.Write([]byte(`{"detail":"Internal Server Error"}` + "\n"))
				}
				return
			}
			if status == 0 {
				status = http.StatusOK
			}
			slog.InfoContext(ctx, "Request finished", "status", status, "duration", time.Since(start))
		}()

		next.ServeHTTP(ww, r)
	})
}

// withCORS allows any origin, method and header. Credentialed requests get
// their origin echoed back since "*" is not accepted with credentials.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "DELETE, GET, HEAD, OPTIONS, PATCH, POST, PUT")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
			}
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
