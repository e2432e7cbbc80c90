package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bcrelay/pkg/businesscentral"
	"bcrelay/pkg/config"
	"bcrelay/pkg/middleware"
)

const validBody = `{"context":{},"inputs":[{"q":"customers"}]}`

func newRouter(p *Pipeline, cfg config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	RegisterHTTP(r, p, cfg, zap.NewNop().Sugar())
	return r
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newBCFake(t)
	rec := httptest.NewRecorder()

	newRouter(f.pipeline(f.config("")), f.config("")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Zero(t, f.tokenCalls.Load())
}

func TestHealth_Disabled(t *testing.T) {
	f := newBCFake(t)
	cfg := f.config("")
	cfg.HealthRoute = false
	rec := httptest.NewRecorder()

	newRouter(f.pipeline(cfg), cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredict_EndToEnd(t *testing.T) {
	f := newBCFake(t)
	cfg := f.config("")

	rec := post(t, newRouter(f.pipeline(cfg), cfg), validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"predictions": [{"id":"K1","displayName":"Adatum"},{"id":"K2","displayName":"Trey Research"}],
		"metadata": {"source":"BusinessCentral","type":"customer","count":2}
	}`, rec.Body.String())
}

func TestPredict_AuthFailureIsServerError(t *testing.T) {
	f := newBCFake(t)
	f.tokenStatus = http.StatusUnauthorized
	cfg := f.config("")

	rec := post(t, newRouter(f.pipeline(cfg), cfg), validBody)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authentication", body["error_kind"])
	assert.Contains(t, body["message"], "status 401")
	assert.Equal(t, rec.Header().Get("X-Request-Id"), body["request_id"])
	assert.Zero(t, f.customerCalls.Load())
}

func TestPredict_InvalidEnvelope(t *testing.T) {
	f := newBCFake(t)
	cfg := f.config("")

	rec := post(t, newRouter(f.pipeline(cfg), cfg), `{"inputs":"nope"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error_kind":"validation"`)
	assert.Zero(t, f.tokenCalls.Load())
}

func TestPredict_LenientAcceptsAnyJSON(t *testing.T) {
	f := newBCFake(t)
	cfg := f.config("")
	cfg.StrictInput = false

	rec := post(t, newRouter(f.pipeline(cfg), cfg), `{"whatever":1}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpenAPIDocs(t *testing.T) {
	f := newBCFake(t)
	cfg := f.config("")
	h := newRouter(f.pipeline(cfg), cfg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/predict"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/predict:")
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", &ValidationError{Err: errors.New("x")}, 400, "validation"},
		{"authentication", &businesscentral.Error{Kind: businesscentral.KindAuthentication, Op: "token", Status: 401}, 502, "authentication"},
		{"company resolution", &businesscentral.Error{Kind: businesscentral.KindCompanyResolution}, 502, "company_resolution"},
		{"upstream", &businesscentral.Error{Kind: businesscentral.KindUpstream, Status: 500}, 502, "upstream"},
		{"upstream deadline", &businesscentral.Error{Kind: businesscentral.KindUpstream, Err: context.DeadlineExceeded}, 504, "upstream"},
		{"upstream net timeout", &businesscentral.Error{Kind: businesscentral.KindUpstream, Err: timeoutErr{}}, 504, "upstream"},
		{"unknown", errors.New("boom"), 500, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
