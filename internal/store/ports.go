// Package store defines the goal store contract shared by the in-memory
// store and the SQLite repository.
package store

import (
	"context"

	"goals/internal/core"
)

type (
	// GoalCreator assigns the id and creation time and appends the goal.
	GoalCreator interface {
		Create(ctx context.Context, f core.GoalFields) (core.Goal, error)
	}

	// GoalUpdater merges a patch over an existing goal. An unknown id
	// returns core.ErrGoalNotFound and changes nothing.
	GoalUpdater interface {
		Update(ctx context.Context, p core.GoalPatch) (core.Goal, error)
	}

	GoalReader interface {
		GetByID(ctx context.Context, id string) (core.Goal, error)
	}

	// GoalLister returns goals in insertion order.
	GoalLister interface {
		List(ctx context.Context) ([]core.Goal, error)
	}

	// Selector exposes the normalized view. Both results are copies.
	Selector interface {
		GoalsMap(ctx context.Context) (map[string]core.Goal, error)
		GoalsList(ctx context.Context) ([]string, error)
	}

	Repository interface {
		GoalCreator
		GoalUpdater
		GoalReader
		GoalLister
		Selector
	}
)
