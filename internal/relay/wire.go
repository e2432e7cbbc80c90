package relay

import (
	"go.uber.org/zap"

	"bcrelay/pkg/businesscentral"
	"bcrelay/pkg/config"
	"bcrelay/pkg/tokencache"
)

// Build assembles the pipeline from configuration. The returned func
// releases anything Build opened.
func Build(cfg config.Config, log *zap.SugaredLogger) (*Pipeline, func()) {
	hc := businesscentral.NewHTTPClient(cfg.HTTPTimeout)
	cc := businesscentral.NewClientCredentials(cfg, hc, log)
	bc := businesscentral.NewClient(cfg, hc, log)

	var tokens businesscentral.TokenSource = cc
	cleanup := func() {}
	switch cfg.TokenCache {
	case "memory":
		tokens = tokencache.New(cc, tokencache.NewMemoryStore(), log)
	case "redis":
		rdb := tokencache.MustRedis(cfg.RedisURL, log)
		tokens = tokencache.New(cc, tokencache.NewRedisStore(rdb), log)
		cleanup = func() { _ = rdb.Close() }
	}
	log.Infow("pipeline ready", "variant", cfg.APIVariant, "environment", cfg.Credentials.Environment,
		"company_fixed", cfg.Credentials.CompanyID != "", "token_cache", cfg.TokenCache)
	return NewPipeline(tokens, bc, bc, log), cleanup
}
