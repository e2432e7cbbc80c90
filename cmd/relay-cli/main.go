// cmd/relay-cli/main.go runs the customer pipeline once and prints a summary.
// It always exits 0; failures are reported on stdout.
package main

import (
	"context"
	"os"

	"bcrelay/internal/relay"
	"bcrelay/pkg/config"
	"bcrelay/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	pipeline, cleanup := relay.Build(cfg, log)
	defer cleanup()

	relay.PrintSummary(context.Background(), os.Stdout, pipeline)
}
