package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	fluxerr "github.com/fluxcd/converge/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRoot().Command()
	if cmd, err := rootCmd.ExecuteContextC(ctx); err != nil {
		var fe *fluxerr.Error
		switch {
		case errors.As(err, new(usageError)):
			cmd.Println("")
			cmd.Println(cmd.UsageString())
		case errors.As(err, &fe):
			if fe.Help != "" {
				cmd.PrintErrln("")
				cmd.PrintErrln(fe.Help)
			}
		default:
			cmd.PrintErrln("")
			cmd.PrintErrln(fluxerr.CoverAllError(err).Help)
		}
		cancel()
		os.Exit(1)
	}
}
