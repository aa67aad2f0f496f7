package core

import (
	"github.com/shopspring/decimal"
)

// GoalPatch is a partial update addressed by ID. Only fields with Set=true
// are applied; ID and Created can never change.
type GoalPatch struct {
	ID             string                    `json:"id"`
	Name           Optional[string]          `json:"name"`
	TargetAmount   Optional[decimal.Decimal] `json:"targetAmount"`
	Balance        Optional[decimal.Decimal] `json:"balance"`
	TargetDate     Optional[Date]            `json:"targetDate"`
	AccountID      Optional[string]          `json:"accountId"`
	Icon           Optional[string]          `json:"icon"`
	TransactionIDs Optional[[]string]        `json:"transactionIds"`
	TagIDs         Optional[[]string]        `json:"tagIds"`
}

// PatchFromFields builds a patch that overwrites every editable field of id.
func PatchFromFields(id string, f GoalFields) GoalPatch {
	return GoalPatch{
		ID:             id,
		Name:           Some(f.Name),
		TargetAmount:   Some(f.TargetAmount),
		Balance:        Some(f.Balance),
		TargetDate:     Some(f.TargetDate),
		AccountID:      Some(f.AccountID),
		Icon:           Some(f.Icon),
		TransactionIDs: Some(cloneIDs(f.TransactionIDs)),
		TagIDs:         Some(cloneIDs(f.TagIDs)),
	}
}

// Empty reports whether the patch would change nothing.
func (p GoalPatch) Empty() bool {
	return !p.Name.Set && !p.TargetAmount.Set && !p.Balance.Set && !p.TargetDate.Set &&
		!p.AccountID.Set && !p.Icon.Set && !p.TransactionIDs.Set && !p.TagIDs.Set
}

// ApplyPatch merges p over existing and returns the result. An unset or
// empty icon keeps the existing one. existing is not modified.
func ApplyPatch(existing Goal, p GoalPatch) Goal {
	g := existing.Clone()
	if p.Name.Set {
		g.Name = p.Name.Value
	}
	if p.TargetAmount.Set {
		g.TargetAmount = p.TargetAmount.Value
	}
	if p.Balance.Set {
		g.Balance = p.Balance.Value
	}
	if p.TargetDate.Set {
		g.TargetDate = p.TargetDate.Value
	}
	if p.AccountID.Set {
		g.AccountID = p.AccountID.Value
	}
	if p.Icon.Set && p.Icon.Value != "" {
		g.Icon = p.Icon.Value
	}
	if p.TransactionIDs.Set {
		g.TransactionIDs = cloneIDs(p.TransactionIDs.Value)
	}
	if p.TagIDs.Set {
		g.TagIDs = cloneIDs(p.TagIDs.Value)
	}
	return g
}
