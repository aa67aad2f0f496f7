// Package memory is an in-process GoalExporter for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"goals/internal/core"
	ports "goals/internal/sheets"
)

// Exporter keeps rendered rows in sheet order, header excluded.
type Exporter struct {
	mu   sync.Mutex
	rows [][]string
}

var _ ports.GoalExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) UpsertGoal(_ context.Context, g core.Goal) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	row := ports.GoalRow(g)
	for i, r := range e.rows {
		if r[0] == g.ID {
			e.rows[i] = row
			return fmt.Sprintf("mem:%d", i+2), nil
		}
	}
	e.rows = append(e.rows, row)
	return fmt.Sprintf("mem:%d", len(e.rows)+1), nil
}

func (e *Exporter) ReplaceAll(_ context.Context, goals []core.Goal) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = make([][]string, 0, len(goals))
	for _, g := range goals {
		e.rows = append(e.rows, ports.GoalRow(g))
	}
	return nil
}

// Rows returns a copy of the exported rows.
func (e *Exporter) Rows() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.rows))
	for i, r := range e.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
