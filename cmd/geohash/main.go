package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mohammed-shakir/geohash-cache/internal/cli"
	"github.com/mohammed-shakir/geohash-cache/internal/config"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadDotEnv(os.Getenv("GEOHASH_ENV_FILE")); err != nil {
		fmt.Fprintf(os.Stderr, "env: %v\n", err)
		return cli.ExitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Version = Version
	return cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
