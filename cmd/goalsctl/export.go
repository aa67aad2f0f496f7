package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"goals/internal/cli"
	"goals/internal/config"
	"goals/internal/log"
	gsheet "goals/internal/sheets/google"
	"goals/internal/storage"
	"goals/internal/worker"
)

// exporterBuilder yields an export worker and a func that releases what it
// holds.
type exporterBuilder func(ctx context.Context, logger *log.Logger) (*worker.ExportWorker, func() error, error)

func buildExportWorker(ctx context.Context, logger *log.Logger) (*worker.ExportWorker, func() error, error) {
	cfg, err := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateExport)
	if err != nil {
		return nil, nil, err
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleGoalsSheet)
	if err != nil {
		return nil, nil, errors.Join(err, repo.Close())
	}
	return worker.NewExportWorker(repo, client, cfg.ExportBatchSize, logger), repo.Close, nil
}

func (a *app) exportCmd() *cobra.Command {
	var pendingOnly bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Mirror goals to the Google Sheet",
		Long: `Rewrite the goals sheet from the database.

With --pending only goals changed since their last export are written,
the same pass the worker runs on its ticker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			w, cleanup, err := a.export(cmd.Context(), a.logger)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := cleanup(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			if !pendingOnly {
				return w.FullExport(cmd.Context())
			}
			n, err := w.ProcessPending(cmd.Context())
			a.logger.Info("Pending export finished", log.FieldCount, n)
			return err
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "export only goals not yet mirrored")
	return cmd
}
