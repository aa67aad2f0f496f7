// Package worker mirrors stored goals into the export sheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goals/internal/amqp"
	"goals/internal/core"
	"goals/internal/log"
	"goals/internal/sheets"
	"goals/internal/storage"
)

// Source is the slice of the SQLite repository the worker needs.
type Source interface {
	GetForSync(ctx context.Context, id string) (storage.SyncItem, error)
	ListForSync(ctx context.Context) ([]storage.SyncItem, error)
	PendingSync(ctx context.Context, limit int) ([]storage.SyncItem, error)
	MarkSynced(ctx context.Context, id string, revision int64) (bool, error)
	MarkSyncError(ctx context.Context, id string, revision int64) error
}

type ExportWorker struct {
	source    Source
	exporter  sheets.GoalExporter
	batchSize int
	logger    *log.Logger
}

func NewExportWorker(source Source, exporter sheets.GoalExporter, batchSize int, logger *log.Logger) *ExportWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &ExportWorker{
		source:    source,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleGoalEvent exports the current state of the event's goal. Events for
// goals that no longer resolve are acknowledged and dropped.
func (w *ExportWorker) HandleGoalEvent(ctx context.Context, msg *amqp.GoalEventMessage) error {
	item, err := w.source.GetForSync(ctx, msg.GoalID)
	if errors.Is(err, core.ErrGoalNotFound) {
		w.logger.WarnContext(ctx, "Goal event for unknown goal, dropping",
			log.FieldGoalID, msg.GoalID,
			log.FieldMessageID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load goal %s: %w", msg.GoalID, err)
	}
	return w.export(ctx, item)
}

// ProcessPending exports one batch of goals not yet mirrored. It covers
// events lost while the broker or worker was down.
func (w *ExportWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.source.PendingSync(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending goals: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Exporting pending goals", log.FieldCount, len(pending))

	exported := 0
	var errs []error
	for _, item := range pending {
		if err := w.export(ctx, item); err != nil {
			errs = append(errs, err)
			continue
		}
		exported++
	}
	return exported, errors.Join(errs...)
}

// FullExport rewrites the whole sheet from the repository. Goals updated
// while the sheet was being written stay pending.
func (w *ExportWorker) FullExport(ctx context.Context) error {
	items, err := w.source.ListForSync(ctx)
	if err != nil {
		return fmt.Errorf("list goals: %w", err)
	}
	goals := make([]core.Goal, 0, len(items))
	for _, item := range items {
		goals = append(goals, item.Goal)
	}
	if err := w.exporter.ReplaceAll(ctx, goals); err != nil {
		return fmt.Errorf("replace sheet: %w", err)
	}
	for _, item := range items {
		if err := w.markSynced(ctx, item); err != nil {
			return err
		}
	}
	w.logger.InfoContext(ctx, "Full export complete", log.FieldCount, len(goals))
	return nil
}

// Run calls ProcessPending every interval until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Pending export failed",
					log.FieldOperation, log.OpExport,
					log.FieldError, err)
			}
		}
	}
}

func (w *ExportWorker) export(ctx context.Context, item storage.SyncItem) error {
	g := item.Goal
	ref, err := w.exporter.UpsertGoal(ctx, g)
	if err != nil {
		if markErr := w.source.MarkSyncError(ctx, g.ID, item.Revision); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark export error",
				log.FieldGoalID, g.ID, log.FieldError, markErr)
		}
		return fmt.Errorf("export goal %s: %w", g.ID, err)
	}
	if err := w.markSynced(ctx, item); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Goal exported",
		log.FieldGoalID, g.ID,
		log.FieldSheetRow, ref)
	return nil
}

func (w *ExportWorker) markSynced(ctx context.Context, item storage.SyncItem) error {
	ok, err := w.source.MarkSynced(ctx, item.Goal.ID, item.Revision)
	if err != nil {
		return err
	}
	if !ok {
		w.logger.InfoContext(ctx, "Goal changed during export, left pending",
			log.FieldGoalID, item.Goal.ID,
			log.FieldRevision, item.Revision)
	}
	return nil
}
