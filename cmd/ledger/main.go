package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/terminal-bench/txengine/internal/app"
	"github.com/terminal-bench/txengine/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger: %v\n", err)
		return 1
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger: %v\n", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, app.ErrMissingInput) {
			fmt.Fprintf(os.Stderr, "usage: %s <transactions.csv>\n", os.Args[0])
		}
		a.Logger().Error("replay failed", zap.Error(err))
		return app.ExitCode(err)
	}
	return 0
}
