package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGoal() Goal {
	return NewGoal("g1", time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), GoalFields{
		Name:           "Vacation",
		TargetAmount:   decimal.NewFromInt(1000),
		Balance:        decimal.NewFromInt(200),
		TargetDate:     NewDate(2026, 8, 1),
		AccountID:      "acc-1",
		Icon:           "🏖️",
		TransactionIDs: []string{"t1"},
		TagIDs:         []string{"travel"},
	})
}

func TestApplyPatchOnlySetFields(t *testing.T) {
	existing := sampleGoal()
	got := ApplyPatch(existing, GoalPatch{ID: existing.ID, Balance: Some(decimal.NewFromInt(400))})

	want := existing.Clone()
	want.Balance = decimal.NewFromInt(400)
	assert.Equal(t, want, got)
}

func TestApplyPatchIcon(t *testing.T) {
	existing := sampleGoal()

	cases := []struct {
		name  string
		patch Optional[string]
		want  string
	}{
		{"unset keeps", Optional[string]{}, "🏖️"},
		{"empty keeps", Some(""), "🏖️"},
		{"explicit overwrites", Some("🚗"), "🚗"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ApplyPatch(existing, GoalPatch{ID: existing.ID, Icon: tc.patch})
			assert.Equal(t, tc.want, got.Icon)
		})
	}
}

func TestApplyPatchNeverTouchesIdentity(t *testing.T) {
	existing := sampleGoal()
	got := ApplyPatch(existing, PatchFromFields("other", GoalFields{Name: "x"}))

	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, existing.Created, got.Created)
	assert.Equal(t, "x", got.Name)
	assert.Equal(t, existing.Icon, got.Icon)
	assert.Empty(t, got.TransactionIDs)
}

func TestApplyPatchDoesNotAliasInput(t *testing.T) {
	existing := sampleGoal()
	tags := []string{"a"}
	got := ApplyPatch(existing, GoalPatch{ID: existing.ID, TagIDs: Some(tags)})
	tags[0] = "mutated"

	assert.Equal(t, []string{"a"}, got.TagIDs)
	assert.Equal(t, []string{"travel"}, existing.TagIDs)
}

func TestGoalPatchJSON(t *testing.T) {
	var p GoalPatch
	require.NoError(t, json.Unmarshal([]byte(`{"id":"g1","balance":"400","icon":null}`), &p))

	assert.Equal(t, "g1", p.ID)
	assert.True(t, p.Balance.Set)
	assert.True(t, p.Balance.Value.Equal(decimal.NewFromInt(400)))
	assert.False(t, p.Icon.Set)
	assert.False(t, p.Name.Set)
	assert.False(t, p.Empty())

	assert.True(t, GoalPatch{ID: "g1"}.Empty())
}

func TestOptionalGet(t *testing.T) {
	assert.Equal(t, "fallback", Optional[string]{}.Get("fallback"))
	assert.Equal(t, "v", Some("v").Get("fallback"))
}
