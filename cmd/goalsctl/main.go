package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"goals/internal/cli"
	"goals/internal/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.LoadEnvFile(); err != nil {
		log.Default(log.ComponentCLI).Warn("Failed to load .env file", log.FieldError, err)
	}

	root := newRootCmd(openBackend, buildExportWorker, os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
