// Package businesscentral talks to the Microsoft identity platform and the
// Dynamics 365 Business Central REST/OData endpoints.
package businesscentral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"bcrelay/pkg/config"
	"bcrelay/pkg/metrics"
)

const (
	VariantOData = "odata"
	VariantAPI   = "api"

	maxBodyBytes = 32 << 20
)

// Client resolves companies and lists customers for one set of credentials.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	creds    config.Credentials
	apiBase  string
	variant  string
	maxPages int
	http     *http.Client
	log      *zap.SugaredLogger
}

// NewHTTPClient returns the outbound client shared by the token source and
// the API client. A zero timeout means calls are bounded only by their context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func NewClient(cfg config.Config, hc *http.Client, log *zap.SugaredLogger) *Client {
	if hc == nil {
		hc = NewHTTPClient(cfg.HTTPTimeout)
	}
	variant := cfg.APIVariant
	if variant != VariantAPI {
		variant = VariantOData
	}
	return &Client{
		creds:    cfg.Credentials,
		apiBase:  strings.TrimRight(cfg.APIBaseURL, "/"),
		variant:  variant,
		maxPages: cfg.MaxPages,
		http:     hc,
		log:      log,
	}
}

// environmentURL is the root every Business Central call hangs off.
func (c *Client) environmentURL() string {
	return fmt.Sprintf("%s/v2.0/%s/%s", c.apiBase, c.creds.TenantID, c.creds.Environment)
}

// page is the OData collection envelope; both variants share it.
type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// getCollection GETs url and follows @odata.nextLink until exhausted (or
// after the first page when firstPageOnly is set). A missing or null value
// yields an empty, non-nil slice.
func getCollection[T any](ctx context.Context, c *Client, op, token, url string, firstPageOnly bool) ([]T, error) {
	out := make([]T, 0)
	for n := 1; url != ""; n++ {
		if c.maxPages > 0 && n > c.maxPages {
			return nil, newError(KindUpstream, op, 0, fmt.Errorf("more than %d pages", c.maxPages))
		}
		var p page[T]
		if err := c.getJSON(ctx, op, token, url, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Value...)
		if firstPageOnly {
			break
		}
		url = p.NextLink
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, op, token, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return newError(KindUpstream, op, 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream(op, 0, start)
		return newError(KindUpstream, op, 0, err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(op, resp.StatusCode, start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return newError(KindUpstream, op, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warnw("upstream call failed", "op", op, "status", resp.StatusCode)
		return newError(KindUpstream, op, resp.StatusCode, errors.New(snippet(body)))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return newError(KindUpstream, op, resp.StatusCode, fmt.Errorf("decode: %w", err))
	}
	return nil
}

// snippet trims an upstream error body so it can ride along in an error message.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "empty response body"
	}
	if len(s) > 512 {
		s = s[:512] + "…"
	}
	return s
}
