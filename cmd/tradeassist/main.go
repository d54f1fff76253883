// Command tradeassist is the entry point for the trading-data access layer.
// It serves the HTTP API and offers one-shot subcommands for positions,
// trade history, analytical queries and live prices.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Setup signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, opts := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	opts.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		stop()
		os.Exit(1)
	}
}
