package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"trainloop/internal/cli"
)

func main() {
	// Ctrl+C / SIGTERM stop the loop between batches; the last completed
	// epoch stays resumable.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
