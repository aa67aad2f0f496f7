package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"goals/internal/backend"
	"goals/internal/cli"
	"goals/internal/log"
	"goals/internal/store"
)

// opener yields the goal store the commands act on and a func that
// releases it.
type opener func(ctx context.Context, logger *log.Logger) (store.Repository, func() error, error)

func openBackend(ctx context.Context, logger *log.Logger) (store.Repository, func() error, error) {
	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return nil, nil, err
	}
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize backend: %w", err)
	}
	return res.Repository, res.Cleanup, nil
}

type app struct {
	open   opener
	export exporterBuilder
	out    io.Writer
	logger *log.Logger
	asJSON bool
}

func newRootCmd(open opener, export exporterBuilder, out io.Writer) *cobra.Command {
	a := &app{open: open, export: export, out: out}

	var logLevel string
	root := &cobra.Command{
		Use:           "goalsctl",
		Short:         "Manage savings goals from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.logger = log.New(log.Config{
				Level:     log.ParseLevel(logLevel),
				Component: log.ComponentCLI,
				Format:    "text",
				Output:    cmd.ErrOrStderr(),
			})
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print goals as JSON")

	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.exportCmd(),
	)
	return root
}

// withStore opens the store for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(store.Repository) error) (err error) {
	repo, cleanup, err := a.open(ctx, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(repo)
}
