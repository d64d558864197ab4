// Command manage runs administrative tasks against the Foodgram database
// and media bucket.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/foodgram/backend/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
