// Command server runs the participation API: identity resolution, vote and
// comment ingest, next-comment scheduling, and conversation management.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/openagora/agora/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
