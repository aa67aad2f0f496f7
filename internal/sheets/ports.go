package sheets

import (
	"context"

	"goals/internal/core"
)

// Ports for outbound export adapters.
type (
	// GoalExporter mirrors goals into a spreadsheet, one row per goal keyed
	// by id.
	GoalExporter interface {
		// UpsertGoal rewrites the goal's row, appending one if the id is new.
		UpsertGoal(ctx context.Context, g core.Goal) (rowRef string, err error)
		// ReplaceAll rewrites the whole sheet body in the given order.
		ReplaceAll(ctx context.Context, goals []core.Goal) error
	}
)
