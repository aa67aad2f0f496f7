package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// GoalRow mirrors the goals table.
type GoalRow struct {
	Seq            int64
	ID             string
	Name           string
	TargetAmount   string
	Balance        string
	TargetDate     string
	AccountID      string
	Icon           string
	CreatedAt      string
	TransactionIDs string
	TagIDs         string
	SyncStatus     string
	SyncedAt       sql.NullString
	Revision       int64
	SyncAttempts   int64
}

const goalColumns = `seq, id, name, target_amount, balance, target_date, account_id, icon, created_at, transaction_ids, tag_ids, sync_status, synced_at, revision, sync_attempts`

func scanGoal(row interface{ Scan(...any) error }) (GoalRow, error) {
	var g GoalRow
	err := row.Scan(
		&g.Seq,
		&g.ID,
		&g.Name,
		&g.TargetAmount,
		&g.Balance,
		&g.TargetDate,
		&g.AccountID,
		&g.Icon,
		&g.CreatedAt,
		&g.TransactionIDs,
		&g.TagIDs,
		&g.SyncStatus,
		&g.SyncedAt,
		&g.Revision,
		&g.SyncAttempts,
	)
	return g, err
}

type InsertGoalParams struct {
	ID             string
	Name           string
	TargetAmount   string
	Balance        string
	TargetDate     string
	AccountID      string
	Icon           string
	CreatedAt      string
	TransactionIDs string
	TagIDs         string
}

const insertGoal = `INSERT INTO goals (id, name, target_amount, balance, target_date, account_id, icon, created_at, transaction_ids, tag_ids)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + goalColumns

func (q *Queries) InsertGoal(ctx context.Context, arg InsertGoalParams) (GoalRow, error) {
	row := q.db.QueryRowContext(ctx, insertGoal,
		arg.ID,
		arg.Name,
		arg.TargetAmount,
		arg.Balance,
		arg.TargetDate,
		arg.AccountID,
		arg.Icon,
		arg.CreatedAt,
		arg.TransactionIDs,
		arg.TagIDs,
	)
	return scanGoal(row)
}

const getGoal = `SELECT ` + goalColumns + ` FROM goals WHERE id = ?`

func (q *Queries) GetGoal(ctx context.Context, id string) (GoalRow, error) {
	return scanGoal(q.db.QueryRowContext(ctx, getGoal, id))
}

const listGoals = `SELECT ` + goalColumns + ` FROM goals ORDER BY seq`

func (q *Queries) ListGoals(ctx context.Context) ([]GoalRow, error) {
	return q.queryGoals(ctx, listGoals)
}

const listGoalIDs = `SELECT id FROM goals ORDER BY seq`

func (q *Queries) ListGoalIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listGoalIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	return items, rows.Err()
}

type UpdateGoalParams struct {
	ID             string
	Name           string
	TargetAmount   string
	Balance        string
	TargetDate     string
	AccountID      string
	Icon           string
	TransactionIDs string
	TagIDs         string
}

const updateGoal = `UPDATE goals
SET name = ?, target_amount = ?, balance = ?, target_date = ?, account_id = ?, icon = ?,
    transaction_ids = ?, tag_ids = ?, sync_status = 'pending', synced_at = NULL,
    sync_attempts = 0, revision = revision + 1
WHERE id = ?`

func (q *Queries) UpdateGoal(ctx context.Context, arg UpdateGoalParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateGoal,
		arg.Name,
		arg.TargetAmount,
		arg.Balance,
		arg.TargetDate,
		arg.AccountID,
		arg.Icon,
		arg.TransactionIDs,
		arg.TagIDs,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listPendingSync = `SELECT ` + goalColumns + ` FROM goals
WHERE sync_status IN ('pending', 'error')
ORDER BY sync_attempts, seq
LIMIT ?`

func (q *Queries) ListPendingSync(ctx context.Context, limit int64) ([]GoalRow, error) {
	return q.queryGoals(ctx, listPendingSync, limit)
}

const markSynced = `UPDATE goals SET sync_status = 'synced', synced_at = ?, sync_attempts = 0
WHERE id = ? AND revision = ?`

func (q *Queries) MarkSynced(ctx context.Context, syncedAt, id string, revision int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markSynced, syncedAt, id, revision)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markSyncError = `UPDATE goals SET sync_status = 'error', sync_attempts = sync_attempts + 1
WHERE id = ? AND revision = ?`

func (q *Queries) MarkSyncError(ctx context.Context, id string, revision int64) error {
	_, err := q.db.ExecContext(ctx, markSyncError, id, revision)
	return err
}

func (q *Queries) queryGoals(ctx context.Context, query string, args ...any) ([]GoalRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GoalRow{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}
