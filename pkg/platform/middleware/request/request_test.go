package request

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kickoff/pkg/requestcontext"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		reused bool
	}{
		{"no header mints a uuid", "", false},
		{"valid id is reused", "typeform-delivery-123", true},
		{"periods and underscores are allowed", "trace.span_1234", true},
		{"exactly max length is allowed", strings.Repeat("a", MaxRequestIDLength), true},
		{"over max length is replaced", strings.Repeat("a", MaxRequestIDLength+1), false},
		{"newline injection is replaced", "abc\nlevel=error", false},
		{"spaces are replaced", "abc def", false},
		{"angle brackets are replaced", "<script>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = requestcontext.RequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodPost, "/webhooks/typeform", nil)
			if tt.header != "" {
				req.Header[HeaderRequestID] = []string{tt.header}
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
			if tt.reused {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.Len(t, seen, 36)
				assert.NotEqual(t, tt.header, seen)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	h := RequestID(Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("mapper blew up")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/typeform", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "mapper blew up")
	assert.Contains(t, logs.String(), rec.Header().Get(HeaderRequestID))
}

func TestLogger(t *testing.T) {
	serve := func(path string, status int) map[string]any {
		var logs bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logs, nil))
		h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("ok"))
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

		if logs.Len() == 0 {
			return nil
		}
		var line map[string]any
		require.NoError(t, json.Unmarshal(logs.Bytes(), &line))
		return line
	}

	t.Run("logs status and size", func(t *testing.T) {
		line := serve("/webhooks/typeform", http.StatusUnauthorized)
		require.NotNil(t, line)
		assert.Equal(t, "INFO", line["level"])
		assert.EqualValues(t, http.StatusUnauthorized, line["status"])
		assert.EqualValues(t, 2, line["bytes"])
	})

	t.Run("server errors log at error level", func(t *testing.T) {
		line := serve("/webhooks/typeform", http.StatusInternalServerError)
		require.NotNil(t, line)
		assert.Equal(t, "ERROR", line["level"])
	})

	t.Run("healthy probes are quiet", func(t *testing.T) {
		assert.Nil(t, serve("/health/ready", http.StatusOK))
		assert.Nil(t, serve("/metrics", http.StatusOK))
	})

	t.Run("failing probes are logged", func(t *testing.T) {
		assert.NotNil(t, serve("/health/ready", http.StatusServiceUnavailable))
	})
}

func TestContentTypeJSON(t *testing.T) {
	tests := []struct {
		method, contentType string
		want                int
	}{
		{http.MethodPost, "application/json", http.StatusNoContent},
		{http.MethodPost, "application/json; charset=utf-8", http.StatusNoContent},
		{http.MethodPost, "", http.StatusNoContent},
		{http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodPatch, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{http.MethodGet, "text/plain", http.StatusNoContent},
	}

	h := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.contentType, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/newsletter", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestLatencyMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegisterer(reg)

	r := chi.NewRouter()
	r.Use(LatencyMiddleware(m))
	r.Post("/api/newsletter", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	for range 3 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/newsletter", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 2, testutil.CollectAndCount(m.EndpointLatency))

	t.Run("nil metrics are a no-op", func(t *testing.T) {
		h := LatencyMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		assert.NotPanics(t, func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}
