package relay

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bcrelay/pkg/businesscentral"
	"bcrelay/pkg/config"
	"bcrelay/pkg/middleware"
	"bcrelay/pkg/openapi"
	"bcrelay/pkg/problems"
)

const maxRequestBytes = 1 << 20

// RegisterHTTP mounts the relay routes.
// GET  /         {"status":"ok"} (when cfg.HealthRoute)
// POST /predict  body: { context, inputs } -> { predictions, metadata }
func RegisterHTTP(r chi.Router, p *Pipeline, cfg config.Config, log *zap.SugaredLogger) {
	docs := openapi.NewRegistry()

	if cfg.HealthRoute {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		docs.Register(openapi.Operation{Method: "GET", Path: "/", Summary: "Health check",
			Responses: map[string]any{"200": openapi.JSONBody("Service is up", map[string]any{"type": "object"})}})
	}

	r.Post("/predict", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		if _, err := DecodeRequest(http.MaxBytesReader(w, req.Body, maxRequestBytes), cfg.StrictInput); err != nil {
			writeError(w, req, log, err)
			return
		}
		resp, err := p.Run(ctx)
		if err != nil {
			writeError(w, req, log, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
	docs.Register(openapi.Operation{Method: "POST", Path: "/predict", Summary: "Relay Business Central customers",
		RequestBody: openapi.JSONBody("Prediction request envelope", requestSchema),
		Responses: map[string]any{
			"200": openapi.JSONBody("Customer records", responseSchema),
			"400": openapi.JSONBody("Malformed envelope", problemSchema),
			"502": openapi.JSONBody("Identity or Business Central failure", problemSchema),
			"504": openapi.JSONBody("Business Central timed out", problemSchema),
		}})

	r.Get("/.well-known/openapi.json", docs.ServeHandler("bcrelay", "v1"))
	r.Get("/.well-known/openapi.yaml", docs.ServeYAML("bcrelay", "v1"))
}

// StatusFor maps a pipeline failure to an HTTP status and error kind.
func StatusFor(err error) (int, string) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, "validation"
	}
	var be *businesscentral.Error
	if errors.As(err, &be) {
		if be.Kind == businesscentral.KindUpstream && be.Timeout() {
			return http.StatusGatewayTimeout, string(be.Kind)
		}
		return http.StatusBadGateway, string(be.Kind)
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, req *http.Request, log *zap.SugaredLogger, err error) {
	status, kind := StatusFor(err)
	reqID := middleware.RequestIDFrom(req.Context())
	if status >= 500 {
		log.Errorw("predict failed", "kind", kind, "status", status, "reqid", reqID, "err", err)
	} else {
		log.Infow("predict rejected", "kind", kind, "reqid", reqID, "err", err)
	}
	problems.Write(w, problems.Problem{
		Title:     http.StatusText(status),
		Status:    status,
		ErrorKind: kind,
		Message:   err.Error(),
		RequestID: reqID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var (
	requestSchema = map[string]any{
		"type":     "object",
		"required": []string{"context", "inputs"},
		"properties": map[string]any{
			"context": map[string]any{"type": "object"},
			"inputs":  map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
		},
	}
	responseSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"predictions": map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
			"metadata": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"source": map[string]any{"type": "string"},
					"type":   map[string]any{"type": "string"},
					"count":  map[string]any{"type": "integer"},
				},
			},
		},
	}
	problemSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":       map[string]any{"type": "string"},
			"title":      map[string]any{"type": "string"},
			"status":     map[string]any{"type": "integer"},
			"error_kind": map[string]any{"type": "string"},
			"message":    map[string]any{"type": "string"},
		},
	}
)
