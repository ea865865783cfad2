package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/fssonca/ezy-collect-challenge/internal/core"
)

// Test errors
var (
	ErrMockInternal = errors.New("mock internal error")
	ErrMockPing     = errors.New("mock ping error")
)

// MockPaymentCreator implements PaymentCreator for testing
type MockPaymentCreator struct {
	CreateFunc func(ctx context.Context, idempotencyKey string, req core.CreatePaymentRequest) (*core.Result, error)
	Calls      int
	LastKey    string
	LastReq    core.CreatePaymentRequest
}

func (m *MockPaymentCreator) CreatePayment(ctx context.Context, idempotencyKey string, req core.CreatePaymentRequest) (*core.Result, error) {
	m.Calls++
	m.LastKey = idempotencyKey
	m.LastReq = req

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, idempotencyKey, req)
	}
	return &core.Result{
		Kind:       core.ResultCreated,
		HTTPStatus: http.StatusCreated,
		Body:       []byte(`{"id":"pay-1","status":"CREATED","createdAt":"2026-02-25T12:34:56Z"}`),
	}, nil
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

type testServer struct {
	payments *MockPaymentCreator
	health   *MockHealthChecker
	server   *Server
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)

	payments := &MockPaymentCreator{}
	health := &MockHealthChecker{}
	return &testServer{
		payments: payments,
		health:   health,
		server:   NewServer(payments, health, ServerConfig{}),
	}
}

func (ts *testServer) postPayment(t *testing.T, idempotencyKey, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	w := httptest.NewRecorder()
	ts.server.router.ServeHTTP(w, req)
	return w
}

const validBody = `{
	"firstName": "Jane",
	"lastName": "Doe",
	"expiry": "12/25",
	"cvv": "123",
	"cardNumber": "4242424242424242",
	"invoiceIds": ["INV-2025-008", "INV-2025-007"]
}`

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error response is not valid JSON: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestHandleCreatePaymentCreated(t *testing.T) {
	ts := newTestServer()

	w := ts.postPayment(t, "idem-1", validBody)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", w.Code, w.Body.String())
	}
	if ts.payments.Calls != 1 {
		t.Fatalf("service calls = %d, want 1", ts.payments.Calls)
	}
	if ts.payments.LastKey != "idem-1" {
		t.Errorf("idempotency key = %q", ts.payments.LastKey)
	}
	if ts.payments.LastReq.FirstName != "Jane" || ts.payments.LastReq.CardNumber != "4242424242424242" {
		t.Errorf("normalized request = %+v", ts.payments.LastReq)
	}

	var resp core.PaymentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if resp.ID != "pay-1" || resp.Status != "CREATED" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleCreatePaymentReplayWritesCachedBytes(t *testing.T) {
	ts := newTestServer()
	cached := `{"id":"pay-1","status":"CREATED","createdAt":"2026-02-25T12:34:56Z"}`
	ts.payments.CreateFunc = func(ctx context.Context, key string, req core.CreatePaymentRequest) (*core.Result, error) {
		return &core.Result{Kind: core.ResultReplay, HTTPStatus: http.StatusOK, Body: []byte(cached)}, nil
	}

	w := ts.postPayment(t, "idem-1", validBody)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != cached {
		t.Errorf("body = %s, want cached bytes verbatim", w.Body.String())
	}
}

func TestHandleCreatePaymentMissingIdempotencyKey(t *testing.T) {
	ts := newTestServer()

	for _, key := range []string{"", "   "} {
		w := ts.postPayment(t, key, validBody)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		resp := decodeError(t, w)
		if resp.Code != CodeMissingIdempotencyKey {
			t.Errorf("code = %q, want %q", resp.Code, CodeMissingIdempotencyKey)
		}
		if ts.payments.Calls != 0 {
			t.Error("service called despite missing idempotency key")
		}
	}
}

func TestHandleCreatePaymentMalformedJSON(t *testing.T) {
	ts := newTestServer()

	w := ts.postPayment(t, "idem-1", `{"firstName": `)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Code != CodeValidationError || resp.Message != "Malformed JSON request" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleCreatePaymentValidationErrors(t *testing.T) {
	ts := newTestServer()

	w := ts.postPayment(t, "idem-1", `{"firstName":"Jane","lastName":"Doe","expiry":"13/25","cvv":"12","cardNumber":"123","invoiceIds":["INV-1"]}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (%s)", w.Code, w.Body.String())
	}
	resp := decodeError(t, w)
	if resp.Code != CodeValidationError || resp.Message != "Request validation failed" {
		t.Errorf("response = %+v", resp)
	}

	wantFields := []string{"cardNumber", "cvv", "expiry"}
	if len(resp.FieldErrors) != len(wantFields) {
		t.Fatalf("field errors = %+v, want %v", resp.FieldErrors, wantFields)
	}
	for i, want := range wantFields {
		if resp.FieldErrors[i].Field != want {
			t.Errorf("field error %d = %q, want %q (sorted)", i, resp.FieldErrors[i].Field, want)
		}
	}
	if ts.payments.Calls != 0 {
		t.Error("service called despite validation failure")
	}
}

func TestHandleCreatePaymentConflict(t *testing.T) {
	ts := newTestServer()
	ts.payments.CreateFunc = func(ctx context.Context, key string, req core.CreatePaymentRequest) (*core.Result, error) {
		return nil, core.ErrIdempotencyConflict
	}

	w := ts.postPayment(t, "idem-1", validBody)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Code != CodeIdempotencyKeyReused {
		t.Errorf("code = %q, want %q", resp.Code, CodeIdempotencyKeyReused)
	}
	if resp.Message != "Idempotency-Key was already used with a different request payload" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestHandleCreatePaymentInFlight(t *testing.T) {
	ts := newTestServer()
	ts.payments.CreateFunc = func(ctx context.Context, key string, req core.CreatePaymentRequest) (*core.Result, error) {
		return nil, core.ErrRequestInFlight
	}

	w := ts.postPayment(t, "idem-1", validBody)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Code != CodeRequestInProgress {
		t.Errorf("code = %q, want %q", resp.Code, CodeRequestInProgress)
	}
	if got := w.Header().Get("Retry-After"); got == "" {
		t.Error("Retry-After header not set")
	}
}

func TestHandleCreatePaymentInternalError(t *testing.T) {
	ts := newTestServer()
	ts.payments.CreateFunc = func(ctx context.Context, key string, req core.CreatePaymentRequest) (*core.Result, error) {
		return nil, ErrMockInternal
	}

	w := ts.postPayment(t, "idem-1", validBody)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Code != CodeInternalError {
		t.Errorf("code = %q, want %q", resp.Code, CodeInternalError)
	}
	// Infrastructure details must not leak to the caller
	if resp.Message != "Unexpected server error" {
		t.Errorf("message = %q leaks internals", resp.Message)
	}
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	ts.server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	ts.health.PingFunc = func(ctx context.Context) error { return ErrMockPing }
	w = httptest.NewRecorder()
	ts.server.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}
