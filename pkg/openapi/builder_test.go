package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sample() *Registry {
	r := NewRegistry()
	r.Register(Operation{Method: "POST", Path: "/predict", Summary: "Run", Responses: map[string]any{"200": JSONBody("OK", map[string]any{"type": "object"})}})
	r.Register(Operation{Method: "GET", Path: "/", Summary: "Health", Responses: map[string]any{"200": map[string]any{"description": "OK"}}})
	return r
}

func TestBuild_LowercasesMethods(t *testing.T) {
	doc := sample().Build("svc", "v1")

	paths := doc["paths"].(map[string]any)
	require.Contains(t, paths, "/predict")
	assert.Contains(t, paths["/predict"].(map[string]any), "post")
	assert.Contains(t, paths["/"].(map[string]any), "get")
	assert.Equal(t, map[string]any{"title": "svc", "version": "v1"}, doc["info"])
}

func TestServeHandlers(t *testing.T) {
	r := sample()

	rec := httptest.NewRecorder()
	r.ServeHandler("svc", "v1")(rec, httptest.NewRequest(http.MethodGet, "/.well-known/openapi.json", nil))
	var j map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &j))
	assert.Equal(t, "3.1.0", j["openapi"])

	rec = httptest.NewRecorder()
	r.ServeYAML("svc", "v1")(rec, httptest.NewRequest(http.MethodGet, "/.well-known/openapi.yaml", nil))
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	var y map[string]any
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &y))
	assert.Equal(t, "3.1.0", y["openapi"])
}
