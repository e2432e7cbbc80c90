package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"

	"bcrelay/pkg/businesscentral"
)

const (
	SourceTag = "BusinessCentral"
	TypeTag   = "customer"
)

// Request is the inbound /predict envelope. It is validated but otherwise
// not consulted by the pipeline yet.
type Request struct {
	Context map[string]any   `json:"context" validate:"required"`
	Inputs  []map[string]any `json:"inputs" validate:"required,dive,required"`
}

type Metadata struct {
	Source string `json:"source"`
	Type   string `json:"type"`
	Count  int    `json:"count"`
}

// Response is the /predict envelope. Metadata.Count always equals
// len(Predictions).
type Response struct {
	Predictions []businesscentral.Customer `json:"predictions"`
	Metadata    Metadata                   `json:"metadata"`
}

// Shape wraps customers in the response envelope.
func Shape(customers []businesscentral.Customer) Response {
	if customers == nil {
		customers = []businesscentral.Customer{}
	}
	return Response{
		Predictions: customers,
		Metadata:    Metadata{Source: SourceTag, Type: TypeTag, Count: len(customers)},
	}
}

// ValidationError reports a malformed inbound envelope.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid request: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeRequest reads a /predict body. In strict mode the body must match
// {context: object, inputs: array<object>}; otherwise any JSON (or an empty
// body) is accepted and ignored.
func DecodeRequest(body io.Reader, strict bool) (Request, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return Request{}, &ValidationError{Err: err}
	}
	if !strict {
		if len(bytes.TrimSpace(raw)) == 0 {
			return Request{}, nil
		}
		if !json.Valid(raw) {
			return Request{}, &ValidationError{Err: errors.New("body is not valid JSON")}
		}
		var req Request
		_ = json.Unmarshal(raw, &req)
		return req, nil
	}
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, &ValidationError{Err: err}
	}
	if err := validate.Struct(req); err != nil {
		return Request{}, &ValidationError{Err: err}
	}
	return req, nil
}
