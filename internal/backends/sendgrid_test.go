package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sendgrid/rest"

	"github.com/villaverde/sendgrid-backend/internal/config"
	"github.com/villaverde/sendgrid-backend/internal/email"
	ierr "github.com/villaverde/sendgrid-backend/internal/errors"
	"github.com/villaverde/sendgrid-backend/internal/logger"
)

// mailSendMock mocks the SendGrid mail-send endpoint and captures what
// the backend submits.
type mailSendMock struct {
	Server *httptest.Server

	mu         sync.Mutex
	StatusCode int
	Bodies     [][]byte
	AuthHeader string
}

func newMailSendMock() *mailSendMock {
	mock := &mailSendMock{StatusCode: http.StatusAccepted}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		defer mock.mu.Unlock()

		if r.URL.Path != "/v3/mail/send" || r.Method != http.MethodPost {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var buf bytes.Buffer
		if _, err := buf.ReadFrom(r.Body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		mock.Bodies = append(mock.Bodies, buf.Bytes())
		mock.AuthHeader = r.Header.Get("Authorization")
		w.WriteHeader(mock.StatusCode)
	}))

	return mock
}

func (m *mailSendMock) Close() {
	m.Server.Close()
}

func (m *mailSendMock) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Bodies)
}

func (m *mailSendMock) LastBody(t *testing.T) map[string]any {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Bodies) == 0 {
		t.Fatal("no request captured")
	}
	var out map[string]any
	if err := json.Unmarshal(m.Bodies[len(m.Bodies)-1], &out); err != nil {
		t.Fatalf("captured body is not valid JSON: %v", err)
	}
	return out
}

func testSendGridConfig(host string) *config.Config {
	return &config.Config{
		AppEmailBackend:    config.BackendSendGrid,
		AppSendEnabled:     true,
		AppTrackEmailOpens: true,
		SendGridApiHost:    host,
		SendGridApiKey:     "SG.test-key",
	}
}

func TestSendGridBackendSend(t *testing.T) {
	mock := newMailSendMock()
	defer mock.Close()

	b := NewSendGridBackend(testSendGridConfig(mock.Server.URL), logger.Nop())

	err := b.Send(context.Background(), newTestMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.RequestCount() != 1 {
		t.Fatalf("expected 1 request, got %d", mock.RequestCount())
	}
	if mock.AuthHeader != "Bearer SG.test-key" {
		t.Errorf("unexpected authorization header: %q", mock.AuthHeader)
	}

	body := mock.LastBody(t)
	if body["subject"] != "Hello, World!" {
		t.Errorf("unexpected subject: %#v", body["subject"])
	}
	sandbox := body["mail_settings"].(map[string]any)["sandbox_mode"].(map[string]any)
	if sandbox["enable"] != false {
		t.Errorf("expected sandbox off, got %#v", sandbox["enable"])
	}
}

func TestSendGridBackendSandboxInDebug(t *testing.T) {
	mock := newMailSendMock()
	defer mock.Close()

	cfg := testSendGridConfig(mock.Server.URL)
	cfg.DebugMode = true
	cfg.AppSandboxModeInDebug = true

	b := NewSendGridBackend(cfg, logger.Nop())

	if err := b.Send(context.Background(), newTestMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sandbox := mock.LastBody(t)["mail_settings"].(map[string]any)["sandbox_mode"].(map[string]any)
	if sandbox["enable"] != true {
		t.Errorf("expected sandbox on in debug mode, got %#v", sandbox["enable"])
	}
}

func TestSendGridBackendRejectedRequest(t *testing.T) {
	mock := newMailSendMock()
	defer mock.Close()
	mock.StatusCode = http.StatusUnauthorized

	b := NewSendGridBackend(testSendGridConfig(mock.Server.URL), logger.Nop())

	err := b.Send(context.Background(), newTestMessage())
	if err == nil {
		t.Fatal("expected error for rejected request, got nil")
	}
	if !ierr.IsProvider(err) {
		t.Errorf("expected a provider error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "status=401") {
		t.Errorf("expected the status in the error, got: %v", err)
	}
}

func TestSendGridBackendDryRun(t *testing.T) {
	mock := newMailSendMock()
	defer mock.Close()

	cfg := testSendGridConfig(mock.Server.URL)
	cfg.AppSendEnabled = false

	b := NewSendGridBackend(cfg, logger.Nop())

	if err := b.Send(context.Background(), newTestMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("dry-run must not call the API, got %d requests", mock.RequestCount())
	}
}

func TestSendGridBackendEcho(t *testing.T) {
	mock := newMailSendMock()
	defer mock.Close()

	cfg := testSendGridConfig(mock.Server.URL)
	cfg.AppSendEnabled = false
	cfg.AppEchoToStdout = true

	b := NewSendGridBackend(cfg, logger.Nop())
	var echo bytes.Buffer
	b.Echo = &echo

	if err := b.Send(context.Background(), newTestMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(echo.Bytes(), &body); err != nil {
		t.Fatalf("echoed body is not valid JSON: %v", err)
	}
	if _, ok := body["personalizations"]; !ok {
		t.Errorf("echoed body lacks personalizations: %s", echo.String())
	}
}

func TestSendGridBackendValidationErrorSendsNothing(t *testing.T) {
	mock := newMailSendMock()
	defer mock.Close()

	b := NewSendGridBackend(testSendGridConfig(mock.Server.URL), logger.Nop())

	msg := newTestMessage()
	msg.ReplyTo = []email.Address{{Name: "Sam Smith", Address: "sam.smith@example.com"}}
	msg.Headers = map[string]string{"Reply-To": "Bad Name <sam.smith@example.com>"}

	err := b.Send(context.Background(), msg)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !ierr.IsValidation(err) {
		t.Errorf("expected a validation error, got: %v", err)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("no request must be made for invalid messages, got %d", mock.RequestCount())
	}
}

func TestClassifyResponse(t *testing.T) {
	testCases := []struct {
		status      int
		expectError bool
	}{
		{200, false},
		{202, false},
		{299, false},
		{301, true},
		{400, true},
		{401, true},
		{500, true},
	}

	for _, tc := range testCases {
		err := classifyResponse(&rest.Response{StatusCode: tc.status, Body: "response body"})
		if tc.expectError && err == nil {
			t.Errorf("status %d: expected error", tc.status)
		}
		if !tc.expectError && err != nil {
			t.Errorf("status %d: unexpected error: %v", tc.status, err)
		}
	}
}
