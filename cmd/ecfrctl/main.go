// Command ecfrctl prints the dashboard charts for a CFR title in the terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ecfr-dashboard/internal/output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := newRootCmd()
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		noColor, _ := root.PersistentFlags().GetBool("no-color")
		output.NewPrinter(os.Stdout, os.Stderr, output.ResolveColors(noColor)).Error("%v", err)
		os.Exit(1)
	}
}
