// Command console manages tasks and users through the remote API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaekwang-park/todo-console/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
