package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"gr-rentals/config"
	"gr-rentals/utils"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	logger := utils.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newCLIApp(os.Stdout, config.Load, logger)
	err := app.RunContext(ctx, os.Args)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, err.Error())
	if errors.Is(err, utils.ErrConfig) {
		fmt.Fprintln(os.Stderr, "Set DATABASE_URL (for example in .env) and try again.")
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	os.Exit(1)
}
