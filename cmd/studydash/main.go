// Package main is the entry point of the studydash CLI.
//
// Every invocation loads configuration, opens the configured key-value
// backend, builds the command and query handlers and runs one subcommand.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/interface/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func run(ctx context.Context, args []string) error {
	return cli.Execute(ctx, buildApp, args, os.Stdout)
}
