package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goals/internal/amqp"
	"goals/internal/core"
	"goals/internal/sheets/memory"
	"goals/internal/storage"
)

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	n := 0
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "goals.db"),
		storage.WithIDFunc(func() string { n++; return fmt.Sprintf("g%d", n) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// failingExporter fails UpsertGoal for the listed ids.
type failingExporter struct {
	*memory.Exporter
	fail map[string]bool
}

func (f *failingExporter) UpsertGoal(ctx context.Context, g core.Goal) (string, error) {
	if f.fail[g.ID] {
		return "", errors.New("quota exceeded")
	}
	return f.Exporter.UpsertGoal(ctx, g)
}

func TestHandleGoalEvent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	exp := memory.New()
	w := NewExportWorker(repo, exp, 10, nil)

	g, err := repo.Create(ctx, core.GoalFields{Name: "Vacation", TargetAmount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	require.NoError(t, w.HandleGoalEvent(ctx, amqp.NewGoalEventMessage(g.ID, amqp.GoalCreated)))
	rows := exp.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, g.ID, rows[0][0])

	pending, err := repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestHandleGoalEvent_UnknownGoalIsDropped(t *testing.T) {
	w := NewExportWorker(newRepo(t), memory.New(), 10, nil)
	assert.NoError(t, w.HandleGoalEvent(context.Background(), amqp.NewGoalEventMessage("ghost", amqp.GoalUpdated)))
}

func TestHandleGoalEvent_ExportFailureMarksError(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	exp := &failingExporter{Exporter: memory.New(), fail: map[string]bool{"g1": true}}
	w := NewExportWorker(repo, exp, 10, nil)
	_, _ = repo.Create(ctx, core.GoalFields{Name: "A"})

	err := w.HandleGoalEvent(ctx, amqp.NewGoalEventMessage("g1", amqp.GoalCreated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	pending, _ := repo.PendingSync(ctx, 10)
	require.Len(t, pending, 1, "errored goals stay pending")
}

func TestProcessPending(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	exp := &failingExporter{Exporter: memory.New(), fail: map[string]bool{"g2": true}}
	w := NewExportWorker(repo, exp, 2, nil)
	for _, name := range []string{"A", "B", "C"} {
		_, err := repo.Create(ctx, core.GoalFields{Name: name})
		require.NoError(t, err)
	}

	n, err := w.ProcessPending(ctx)
	assert.Error(t, err)
	assert.Equal(t, 1, n, "batch of two, one failed")

	delete(exp.fail, "g2")
	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, exp.Rows(), 3)
}

// mutatingExporter runs onUpsert before delegating, standing in for an
// update that lands while the row is being written.
type mutatingExporter struct {
	*memory.Exporter
	onUpsert func(g core.Goal)
}

func (m *mutatingExporter) UpsertGoal(ctx context.Context, g core.Goal) (string, error) {
	if m.onUpsert != nil {
		m.onUpsert(g)
	}
	return m.Exporter.UpsertGoal(ctx, g)
}

func TestProcessPending_FailingGoalDoesNotBlockQueue(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	exp := &failingExporter{Exporter: memory.New(), fail: map[string]bool{"g1": true}}
	w := NewExportWorker(repo, exp, 1, nil)
	for _, name := range []string{"bad", "good"} {
		_, err := repo.Create(ctx, core.GoalFields{Name: name})
		require.NoError(t, err)
	}

	for range 3 {
		_, _ = w.ProcessPending(ctx)
	}

	rows := exp.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "g2", rows[0][0])

	pending, err := repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "g1", pending[0].Goal.ID)
}

func TestProcessPending_UpdateDuringExportStaysPending(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, err := repo.Create(ctx, core.GoalFields{Name: "Car", Balance: decimal.NewFromInt(10)})
	require.NoError(t, err)

	exp := &mutatingExporter{Exporter: memory.New()}
	exp.onUpsert = func(g core.Goal) {
		exp.onUpsert = nil
		_, err := repo.Update(ctx, core.GoalPatch{ID: g.ID, Balance: core.Some(decimal.NewFromInt(999))})
		require.NoError(t, err)
	}
	w := NewExportWorker(repo, exp, 10, nil)

	_, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10.00", exp.Rows()[0][4])

	pending, err := repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1, "newer revision still needs exporting")

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "999.00", exp.Rows()[0][4])

	pending, err = repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFullExport_UpdateDuringExportStaysPending(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, err := repo.Create(ctx, core.GoalFields{Name: "A"})
	require.NoError(t, err)

	w := NewExportWorker(repo, &replaceHookExporter{
		Exporter: memory.New(),
		onReplace: func() {
			_, err := repo.Update(ctx, core.GoalPatch{ID: "g1", Name: core.Some("A2")})
			require.NoError(t, err)
		},
	}, 10, nil)

	require.NoError(t, w.FullExport(ctx))
	pending, err := repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "A2", pending[0].Goal.Name)
}

type replaceHookExporter struct {
	*memory.Exporter
	onReplace func()
}

func (r *replaceHookExporter) ReplaceAll(ctx context.Context, goals []core.Goal) error {
	r.onReplace()
	return r.Exporter.ReplaceAll(ctx, goals)
}

func TestFullExport(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	exp := memory.New()
	w := NewExportWorker(repo, exp, 10, nil)
	for _, name := range []string{"A", "B"} {
		_, _ = repo.Create(ctx, core.GoalFields{Name: name})
	}

	require.NoError(t, w.FullExport(ctx))
	rows := exp.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0][2])

	pending, _ := repo.PendingSync(ctx, 10)
	assert.Empty(t, pending)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := newRepo(t)
	exp := memory.New()
	_, _ = repo.Create(ctx, core.GoalFields{Name: "A"})
	w := NewExportWorker(repo, exp, 10, nil)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return len(exp.Rows()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
