package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"kickoff/internal/intake/mapping"
	"kickoff/internal/intake/models"
	"kickoff/internal/intake/service"
	"kickoff/internal/intake/signature"
	"kickoff/internal/intake/store"
	"kickoff/pkg/platform/middleware/request"
	"kickoff/pkg/testutil"
)

const listID = "list-applicants"

type recordingNotifier struct {
	mu     sync.Mutex
	result bool
	calls  []models.ThankYou
}

func (n *recordingNotifier) SendThankYou(_ context.Context, msg models.ThankYou) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, msg)
	return n.result
}

type HandlerSuite struct {
	suite.Suite
	store    *store.InMemory
	notifier *recordingNotifier
	router   chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = store.NewInMemory()
	s.notifier = &recordingNotifier{result: true}

	svc := service.New(
		signature.New(testutil.WebhookSecret, signature.WithLogger(logger)),
		mapping.NewMapper(mapping.DefaultTable()),
		s.store,
		listID,
		service.WithExpectedFormID(testutil.FormID),
		service.WithNotifier(s.notifier),
		service.WithLogger(logger),
	)

	s.router = chi.NewRouter()
	s.router.Use(request.BodyLimit(4096))
	New(svc, logger).Register(s.router)
}

func (s *HandlerSuite) post(body []byte, header string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/typeform", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set(signature.HeaderName, header)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var decoded map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func (s *HandlerSuite) TestSignedSubmissionIsRecorded() {
	body, header := testutil.CompleteApplication(testutil.FormID).
		Choices("heard_from", "Instagram", "TikTok").
		Signed(testutil.WebhookSecret)

	rec, resp := s.post(body, header)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("application/json", rec.Header().Get("Content-Type"))
	s.Equal(true, resp["success"])
	s.Equal(true, resp["emailSent"])
	s.Equal([]any{}, resp["unmappedRefs"])

	items := s.store.Items(listID)
	s.Require().Len(items, 1)
	s.Equal(items[0].ID, resp["sharePointItemId"])
	s.Equal("Instagram, TikTok", items[0].Fields["HeardFrom"])
	s.Equal("Submitted", items[0].Fields["STATUS"])
	s.Len(s.notifier.calls, 1)
}

func (s *HandlerSuite) TestInvalidSignature() {
	body := []byte(`{"form_response":{"form_id":"FORM123"}}`)

	rec, resp := s.post(body, "sha256=invalid")

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(map[string]any{"error": "Invalid signature"}, resp)
	s.Zero(s.store.Count(listID))
	s.Empty(s.notifier.calls)
}

func (s *HandlerSuite) TestMissingRequiredField() {
	body, header := testutil.NewWebhook(testutil.FormID).
		Text("full_name", "Alex Morgan").
		Choice("city", "Leeds").
		Choice("position", "Goalkeeper").
		Bool("terms_accepted", true).
		Signed(testutil.WebhookSecret)

	rec, resp := s.post(body, header)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Missing required fields", resp["error"])
	s.Equal([]any{"Email"}, resp["missing"])
	s.Zero(s.store.Count(listID))
}

func (s *HandlerSuite) TestNotifierFailureStillSucceeds() {
	s.notifier.result = false
	body, header := testutil.CompleteApplication(testutil.FormID).Signed(testutil.WebhookSecret)

	rec, resp := s.post(body, header)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(false, resp["emailSent"])
	s.NotEmpty(resp["sharePointItemId"])
}

func (s *HandlerSuite) TestReplayCreatesDuplicate() {
	body, header := testutil.CompleteApplication(testutil.FormID).Signed(testutil.WebhookSecret)

	first, firstResp := s.post(body, header)
	second, secondResp := s.post(body, header)

	s.Equal(http.StatusOK, first.Code)
	s.Equal(http.StatusOK, second.Code)
	s.NotEqual(firstResp["sharePointItemId"], secondResp["sharePointItemId"])
	s.Equal(2, s.store.Count(listID))
}

func (s *HandlerSuite) TestOversizedBody() {
	body := testutil.CompleteApplication(testutil.FormID).
		Text("highlights_url", strings.Repeat("x", 8192)).
		Bytes()

	rec, resp := s.post(body, signature.Sign(body, testutil.WebhookSecret))

	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	s.Equal("Payload too large", resp["error"])
	s.Zero(s.store.Count(listID))
}

type stubProcessor struct {
	raw    []byte
	header string
}

func (p *stubProcessor) Process(_ context.Context, raw []byte, header string) service.Result {
	p.raw, p.header = raw, header
	return service.Result{Status: http.StatusTeapot, Body: map[string]string{"ok": "stub"}}
}

func TestHandlerPassesExactBytes(t *testing.T) {
	proc := &stubProcessor{}
	router := chi.NewRouter()
	New(proc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)

	body := []byte("{ \"form_response\" : {}  }\n")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/typeform", bytes.NewReader(body))
	req.Header.Set(signature.HeaderName, "sha256=abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, body, proc.raw)
	assert.Equal(t, "sha256=abc", proc.header)
}

func TestHandlerRejectsOtherMethods(t *testing.T) {
	router := chi.NewRouter()
	New(&stubProcessor{}, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/typeform", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
