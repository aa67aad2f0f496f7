package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"goals/internal/core"
)

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode ids: %w", err)
	}
	return string(b), nil
}

func decodeIDs(s string) ([]string, error) {
	ids := []string{}
	if s == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, fmt.Errorf("decode ids: %w", err)
	}
	return ids, nil
}

func toCore(row GoalRow) (core.Goal, error) {
	target, err := decimal.NewFromString(row.TargetAmount)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal %s target_amount: %w", row.ID, err)
	}
	balance, err := decimal.NewFromString(row.Balance)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal %s balance: %w", row.ID, err)
	}
	var targetDate core.Date
	if row.TargetDate != "" {
		if targetDate, err = core.ParseDate(row.TargetDate); err != nil {
			return core.Goal{}, fmt.Errorf("goal %s target_date: %w", row.ID, err)
		}
	}
	created, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal %s created_at: %w", row.ID, err)
	}
	txIDs, err := decodeIDs(row.TransactionIDs)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal %s transaction_ids: %w", row.ID, err)
	}
	tagIDs, err := decodeIDs(row.TagIDs)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal %s tag_ids: %w", row.ID, err)
	}
	return core.Goal{
		ID:             row.ID,
		Name:           row.Name,
		TargetAmount:   target,
		Balance:        balance,
		TargetDate:     targetDate,
		AccountID:      row.AccountID,
		Icon:           row.Icon,
		Created:        created,
		TransactionIDs: txIDs,
		TagIDs:         tagIDs,
	}, nil
}

func insertParams(g core.Goal) (InsertGoalParams, error) {
	txIDs, err := encodeIDs(g.TransactionIDs)
	if err != nil {
		return InsertGoalParams{}, err
	}
	tagIDs, err := encodeIDs(g.TagIDs)
	if err != nil {
		return InsertGoalParams{}, err
	}
	return InsertGoalParams{
		ID:             g.ID,
		Name:           g.Name,
		TargetAmount:   g.TargetAmount.String(),
		Balance:        g.Balance.String(),
		TargetDate:     g.TargetDate.String(),
		AccountID:      g.AccountID,
		Icon:           g.Icon,
		CreatedAt:      g.Created.UTC().Format(time.RFC3339Nano),
		TransactionIDs: txIDs,
		TagIDs:         tagIDs,
	}, nil
}

func updateParams(g core.Goal) (UpdateGoalParams, error) {
	p, err := insertParams(g)
	if err != nil {
		return UpdateGoalParams{}, err
	}
	return UpdateGoalParams{
		ID:             p.ID,
		Name:           p.Name,
		TargetAmount:   p.TargetAmount,
		Balance:        p.Balance,
		TargetDate:     p.TargetDate,
		AccountID:      p.AccountID,
		Icon:           p.Icon,
		TransactionIDs: p.TransactionIDs,
		TagIDs:         p.TagIDs,
	}, nil
}
