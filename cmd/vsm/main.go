// Command vsm searches and evaluates a document collection with the vector
// space model.
//
// Usage:
//
//	vsm search [flags] <query...>
//	vsm evaluate [flags]
//	vsm demo
//	vsm serve [-config configs/vsm.yaml]
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/cli"
)

// Build variables set by ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cmd := cli.NewRootCommand(version, commit, date)
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
