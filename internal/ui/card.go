package ui

import (
	"context"
	"fmt"

	"goals/internal/core"
	"goals/internal/store"
)

const cardDateLayout = "Jan 2, 2006"

// GoalCard is the read-only presentation of one stored goal.
type GoalCard struct {
	Goal       core.Goal
	Balance    string
	Target     string
	TargetDate string
	Progress   float64
}

func NewGoalCard(g core.Goal) GoalCard {
	targetDate := "No target date"
	if !g.TargetDate.IsZero() {
		targetDate = "Target: " + g.TargetDate.Format(cardDateLayout)
	}
	return GoalCard{
		Goal:       g,
		Balance:    core.FormatAmount(g.Balance),
		Target:     core.FormatAmount(g.TargetAmount),
		TargetDate: targetDate,
		Progress:   core.Progress(g.Balance, g.TargetAmount),
	}
}

func (c GoalCard) ProgressLabel() string {
	return fmt.Sprintf("%.0f%%", c.Progress)
}

// ProgressValue is the value attribute of the progress element.
func (c GoalCard) ProgressValue() string {
	return fmt.Sprintf("%.1f", c.Progress)
}

// Open hands the goal to the modal and shows it.
func (c GoalCard) Open(m ModalController) {
	m.SetContent(c.Goal)
	m.SetType(ModalTypeGoal)
	m.SetIsOpen(true)
}

// CardsFrom builds cards in store order from the normalized selectors.
func CardsFrom(ctx context.Context, sel store.Selector) ([]GoalCard, error) {
	ids, err := sel.GoalsList(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goal ids: %w", err)
	}
	goals, err := sel.GoalsMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	cards := make([]GoalCard, 0, len(ids))
	for _, id := range ids {
		g, ok := goals[id]
		if !ok {
			continue
		}
		cards = append(cards, NewGoalCard(g))
	}
	return cards, nil
}
