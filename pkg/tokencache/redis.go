package tokencache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bcrelay/pkg/businesscentral"
)

const redisPrefix = "bcrelay:token:"

// RedisStore shares tokens between relay replicas.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

// MustRedis connects and pings, exiting the process on failure.
func MustRedis(redisURL string, log *zap.SugaredLogger) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalw("redis parse", "err", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(context.Background()).Err(); err != nil {
		log.Fatalw("redis ping", "err", err)
	}
	log.Infow("redis ready", "addr", opts.Addr)
	return cli
}

type redisToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (r *RedisStore) Get(ctx context.Context, key string) (businesscentral.Token, bool, error) {
	b, err := r.rdb.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return businesscentral.Token{}, false, nil
	}
	if err != nil {
		return businesscentral.Token{}, false, err
	}
	var rt redisToken
	if err := json.Unmarshal(b, &rt); err != nil {
		return businesscentral.Token{}, false, err
	}
	return businesscentral.Token{AccessToken: rt.AccessToken, TokenType: rt.TokenType, ExpiresAt: rt.ExpiresAt}, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, tok businesscentral.Token, ttl time.Duration) error {
	b, err := json.Marshal(redisToken{AccessToken: tok.AccessToken, TokenType: tok.TokenType, ExpiresAt: tok.ExpiresAt})
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, redisPrefix+key, b, ttl).Err()
}
