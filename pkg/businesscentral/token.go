package businesscentral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"bcrelay/pkg/config"
	"bcrelay/pkg/metrics"
)

// Token is a bearer credential for the Business Central API. ExpiresAt is
// zero when the identity platform did not say.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// TokenSource hands out bearer tokens.
type TokenSource interface {
	Token(ctx context.Context) (Token, error)
}

// ClientCredentials performs the OAuth2 client-credentials grant against the
// tenant's v2.0 token endpoint. Every call is a fresh exchange.
type ClientCredentials struct {
	creds    config.Credentials
	tokenURL string
	scope    string
	http     *http.Client
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewClientCredentials(cfg config.Config, hc *http.Client, log *zap.SugaredLogger) *ClientCredentials {
	if hc == nil {
		hc = NewHTTPClient(cfg.HTTPTimeout)
	}
	return &ClientCredentials{
		creds:    cfg.Credentials,
		tokenURL: fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(cfg.AuthBaseURL, "/"), cfg.Credentials.TenantID),
		scope:    strings.TrimRight(cfg.APIBaseURL, "/") + "/.default",
		http:     hc,
		log:      log,
		now:      time.Now,
	}
}

// Key identifies the credential for caching; it never includes the secret.
func (cc *ClientCredentials) Key() string {
	return cc.creds.TenantID + ":" + cc.creds.ClientID + ":" + cc.scope
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   any    `json:"expires_in"`
}

func (cc *ClientCredentials) Token(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", cc.creds.ClientID)
	form.Set("client_secret", cc.creds.ClientSecret)
	form.Set("scope", cc.scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cc.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, newError(KindAuthentication, "token", 0, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := cc.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream("token", 0, start)
		return Token{}, newError(KindAuthentication, "token", 0, err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream("token", resp.StatusCode, start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Token{}, newError(KindAuthentication, "token", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cc.log.Warnw("token exchange rejected", "status", resp.StatusCode, "tenant", cc.creds.TenantID)
		return Token{}, newError(KindAuthentication, "token", resp.StatusCode, errors.New(snippet(body)))
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, newError(KindAuthentication, "token", resp.StatusCode, fmt.Errorf("decode: %w", err))
	}
	if tr.AccessToken == "" {
		return Token{}, newError(KindAuthentication, "token", resp.StatusCode, errors.New("response has no access_token"))
	}
	tok := Token{AccessToken: tr.AccessToken, TokenType: tr.TokenType}
	if secs := expiresIn(tr.ExpiresIn); secs > 0 {
		tok.ExpiresAt = cc.now().Add(time.Duration(secs) * time.Second)
	}
	return tok, nil
}

// expiresIn accepts both the numeric and the string form some endpoints send.
func expiresIn(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	}
	return 0
}
