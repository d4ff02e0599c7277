package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/arthur-debert/bundl/cmd/bundl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := bundl.NewRootCmd()
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		if renderer, rerr := bundl.Renderer(cmd, true); rerr == nil {
			_ = renderer.RenderError(err)
		}
		stop()
		os.Exit(1)
	}
}
