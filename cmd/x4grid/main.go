// Command x4grid filters, sorts and browses record sets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rlibre/x4grid/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "x4grid:", err)
		stop()
		os.Exit(1)
	}
}
