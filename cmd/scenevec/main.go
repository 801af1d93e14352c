// Command scenevec turns driving-simulator telemetry logs into feature
// vectors.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/scenevec/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cli.Execute(ctx)
}
