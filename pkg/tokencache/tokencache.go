// Package tokencache keeps bearer tokens across pipeline runs. It is opt-in:
// without it every run performs a fresh client-credentials exchange.
package tokencache

import (
	"context"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"bcrelay/pkg/businesscentral"
	"bcrelay/pkg/metrics"
)

// DefaultSkew is how long before expiry a cached token stops being handed out.
const DefaultSkew = 2 * time.Minute

// KeyedSource is a token source that can name its credential identity.
type KeyedSource interface {
	businesscentral.TokenSource
	Key() string
}

// Store persists tokens by key. Get reports false for a missing entry.
type Store interface {
	Get(ctx context.Context, key string) (businesscentral.Token, bool, error)
	Set(ctx context.Context, key string, tok businesscentral.Token, ttl time.Duration) error
}

// Source wraps a KeyedSource and refreshes lazily once the cached token is
// within skew of its expiry.
type Source struct {
	src   KeyedSource
	store Store
	skew  time.Duration
	log   *zap.SugaredLogger
	now   func() time.Time
	mu    sync.Mutex
}

func New(src KeyedSource, store Store, log *zap.SugaredLogger) *Source {
	return &Source{src: src, store: store, skew: DefaultSkew, log: log, now: time.Now}
}

func (s *Source) fresh(tok businesscentral.Token) bool {
	return tok.AccessToken != "" && s.now().Add(s.skew).Before(tok.ExpiresAt)
}

func (s *Source) lookup(ctx context.Context, key string) (businesscentral.Token, bool) {
	tok, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warnw("token cache read failed", "err", err)
		return businesscentral.Token{}, false
	}
	return tok, ok && s.fresh(tok)
}

func (s *Source) Token(ctx context.Context) (businesscentral.Token, error) {
	key := s.src.Key()
	if tok, ok := s.lookup(ctx, key); ok {
		metrics.TokenCacheLookups.WithLabelValues("hit").Inc()
		return tok, nil
	}

	// One exchange at a time; concurrent callers pick up the winner's token.
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok, ok := s.lookup(ctx, key); ok {
		metrics.TokenCacheLookups.WithLabelValues("hit").Inc()
		return tok, nil
	}
	metrics.TokenCacheLookups.WithLabelValues("miss").Inc()

	tok, err := s.src.Token(ctx)
	if err != nil {
		return businesscentral.Token{}, err
	}
	if tok.ExpiresAt.IsZero() {
		tok.ExpiresAt = jwtExpiry(tok.AccessToken)
	}
	ttl := tok.ExpiresAt.Sub(s.now()) - s.skew
	if tok.ExpiresAt.IsZero() || ttl <= 0 {
		return tok, nil
	}
	if err := s.store.Set(ctx, key, tok, ttl); err != nil {
		s.log.Warnw("token cache write failed", "err", err)
	}
	return tok, nil
}

// jwtExpiry reads the exp claim without verifying the signature; the token
// is only inspected for its lifetime, never trusted for identity.
func jwtExpiry(raw string) time.Time {
	t, err := jwt.ParseString(raw, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return time.Time{}
	}
	return t.Expiration()
}
