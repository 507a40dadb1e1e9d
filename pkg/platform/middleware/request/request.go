// Package request holds the HTTP middleware every route runs through.
package request

import (
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"kickoff/internal/platform/privacy"
	"kickoff/pkg/requestcontext"
)

const (
	HeaderRequestID = "X-Request-ID"

	// MaxRequestIDLength bounds client-supplied ids before they reach logs.
	MaxRequestIDLength = 128
)

var validRequestID = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Recovery turns a handler panic into a JSON 500 and logs the stack.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					ctx := r.Context()
					logger.ErrorContext(ctx, "panic recovered",
						"panic", rec,
						"stack", string(debug.Stack()),
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", requestcontext.RequestID(ctx),
					)
					writeJSONError(w, http.StatusInternalServerError, `{"error":"Internal server error"}`)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID reuses a well-formed X-Request-ID from the caller and otherwise
// mints a UUID. The id is echoed back and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if !isValidRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}

func isValidRequestID(id string) bool {
	return id != "" && len(id) <= MaxRequestIDLength && validRequestID.MatchString(id)
}

// Logger writes one line per request. Health probes and metric scrapes are
// only logged when they fail.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)
			next.ServeHTTP(rw, r)

			if isQuietPath(r.URL.Path) && rw.status < http.StatusInternalServerError {
				return
			}

			ctx := r.Context()
			level := slog.LevelInfo
			if rw.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"bytes", rw.written,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestcontext.RequestID(ctx),
				"remote_addr_prefix", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
			)
		})
	}
}

func isQuietPath(path string) bool {
	return path == "/metrics" || path == "/health" || strings.HasPrefix(path, "/health/")
}

// ContentTypeJSON rejects POST/PUT/PATCH requests that declare a non-JSON
// Content-Type with a 415. A missing Content-Type is let through.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if ct := r.Header.Get("Content-Type"); ct != "" {
				if mediaType, _, err := mime.ParseMediaType(ct); err != nil || mediaType != "application/json" {
					writeJSONError(w, http.StatusUnsupportedMediaType,
						`{"error":"invalid_content_type","error_description":"Content-Type must be application/json"}`)
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// LatencyMiddleware observes latency labelled by the matched chi route
// pattern. Unmatched paths share one label.
func LatencyMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)
			next.ServeHTTP(rw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.observe(route, r.Method, rw.status, time.Since(start).Seconds())
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body)) //nolint:errcheck // status already sent
}

// statusRecorder captures the status code and body size.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	written     int
	wroteHeader bool
}

func wrap(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
