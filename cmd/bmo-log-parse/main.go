package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/bmo-log-parse/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Write errors surface as EPIPE instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return cli.Execute(ctx, os.Args[1:])
}
