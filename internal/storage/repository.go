package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"goals/internal/core"
	"goals/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries

	newID store.IDFunc
	now   store.Clock
}

type Option func(*SQLiteRepository)

func WithIDFunc(f store.IDFunc) Option {
	return func(r *SQLiteRepository) { r.newID = f }
}

func WithClock(c store.Clock) Option {
	return func(r *SQLiteRepository) { r.now = c }
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		newID:   store.NewID,
		now:     store.SystemClock,
	}
	for _, o := range opts {
		o(repo)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements the readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Create(ctx context.Context, f core.GoalFields) (core.Goal, error) {
	g := core.NewGoal(r.newID(), r.now(), f)
	params, err := insertParams(g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	row, err := r.queries.InsertGoal(ctx, params)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal saved to SQLite",
		"goal_id", row.ID,
		"seq", row.Seq,
		"name", row.Name)

	return toCore(row)
}

// Update reads, merges and writes inside one transaction.
func (r *SQLiteRepository) Update(ctx context.Context, p core.GoalPatch) (core.Goal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Goal{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	row, err := q.GetGoal(ctx, p.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("update goal %q: %w", p.ID, core.ErrGoalNotFound)
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("load goal %q: %w", p.ID, err)
	}
	existing, err := toCore(row)
	if err != nil {
		return core.Goal{}, err
	}

	updated := core.ApplyPatch(existing, p)
	params, err := updateParams(updated)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %q: %w", p.ID, err)
	}
	if _, err := q.UpdateGoal(ctx, params); err != nil {
		return core.Goal{}, fmt.Errorf("update goal %q: %w", p.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Goal{}, fmt.Errorf("commit update: %w", err)
	}

	slog.InfoContext(ctx, "Goal updated in SQLite", "goal_id", p.ID)
	return updated, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (core.Goal, error) {
	row, err := r.queries.GetGoal(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("get goal %q: %w", id, core.ErrGoalNotFound)
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal %q: %w", id, err)
	}
	return toCore(row)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.queries.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return toCoreAll(rows)
}

func (r *SQLiteRepository) GoalsMap(ctx context.Context) (map[string]core.Goal, error) {
	goals, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]core.Goal, len(goals))
	for _, g := range goals {
		out[g.ID] = g
	}
	return out, nil
}

func (r *SQLiteRepository) GoalsList(ctx context.Context) ([]string, error) {
	ids, err := r.queries.ListGoalIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goal ids: %w", err)
	}
	return ids, nil
}

// SyncItem is a goal together with the revision it was read at. Every
// update bumps the revision, so MarkSynced for a stale read is a no-op.
type SyncItem struct {
	Goal     core.Goal
	Revision int64
}

func (r *SQLiteRepository) GetForSync(ctx context.Context, id string) (SyncItem, error) {
	row, err := r.queries.GetGoal(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncItem{}, fmt.Errorf("get goal %q: %w", id, core.ErrGoalNotFound)
	}
	if err != nil {
		return SyncItem{}, fmt.Errorf("get goal %q: %w", id, err)
	}
	items, err := toSyncItems([]GoalRow{row})
	if err != nil {
		return SyncItem{}, err
	}
	return items[0], nil
}

func (r *SQLiteRepository) ListForSync(ctx context.Context) ([]SyncItem, error) {
	rows, err := r.queries.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return toSyncItems(rows)
}

// PendingSync returns up to limit goals that still need exporting. Goals
// never tried come first, then failed ones by attempt count, oldest first
// within each, so a goal that keeps failing cannot starve the rest.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]SyncItem, error) {
	rows, err := r.queries.ListPendingSync(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	return toSyncItems(rows)
}

// MarkSynced records that revision of id was exported. It reports false,
// leaving the goal pending, when the goal changed since that revision.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, revision int64) (bool, error) {
	n, err := r.queries.MarkSynced(ctx, r.now().Format(time.RFC3339Nano), id, revision)
	if err != nil {
		return false, fmt.Errorf("mark goal %q synced: %w", id, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string, revision int64) error {
	if err := r.queries.MarkSyncError(ctx, id, revision); err != nil {
		return fmt.Errorf("mark goal %q sync error: %w", id, err)
	}
	return nil
}

func toSyncItems(rows []GoalRow) ([]SyncItem, error) {
	out := make([]SyncItem, 0, len(rows))
	for _, row := range rows {
		g, err := toCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, SyncItem{Goal: g, Revision: row.Revision})
	}
	return out, nil
}

func toCoreAll(rows []GoalRow) ([]core.Goal, error) {
	out := make([]core.Goal, 0, len(rows))
	for _, row := range rows {
		g, err := toCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

var _ store.Repository = (*SQLiteRepository)(nil)
