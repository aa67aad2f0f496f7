package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-01", true},
		{" 2025-12-31 ", true},
		{"2025-13-01", false},
		{"01/02/2025", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.False(t, d.IsZero(), tc.in)
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidDate, tc.in)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2026, 3, 9))
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-09"`, string(b))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-09"`), &d))
	assert.Equal(t, NewDate(2026, 3, 9), d)

	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &d))
}

func TestNewGoalDefaults(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g := NewGoal("g1", created, GoalFields{
		Name:         "Vacation",
		TargetAmount: decimal.NewFromInt(1000),
		Balance:      decimal.NewFromInt(200),
	})

	assert.Equal(t, "g1", g.ID)
	assert.Equal(t, DefaultIcon, g.Icon)
	assert.Equal(t, created, g.Created)
	assert.NotNil(t, g.TransactionIDs)
	assert.Empty(t, g.TransactionIDs)
	assert.NotNil(t, g.TagIDs)
	assert.Empty(t, g.TagIDs)
}

func TestNewGoalKeepsSuppliedIcon(t *testing.T) {
	g := NewGoal("g1", time.Now(), GoalFields{Icon: "🏖️"})
	assert.Equal(t, "🏖️", g.Icon)
}

func TestGoalCloneIsIndependent(t *testing.T) {
	g := NewGoal("g1", time.Now(), GoalFields{TransactionIDs: []string{"t1"}, TagIDs: []string{"a"}})
	c := g.Clone()
	c.TransactionIDs[0] = "changed"
	c.TagIDs = append(c.TagIDs, "b")

	assert.Equal(t, []string{"t1"}, g.TransactionIDs)
	assert.Equal(t, []string{"a"}, g.TagIDs)
}

func TestGoalFieldsValidate(t *testing.T) {
	good := GoalFields{
		Name:         "Car",
		TargetAmount: decimal.NewFromInt(5000),
		Balance:      decimal.Zero,
		TargetDate:   NewDate(2027, 6, 1),
	}
	require.NoError(t, good.Validate())

	cases := []struct {
		name   string
		mutate func(*GoalFields)
		want   error
	}{
		{"blank name", func(f *GoalFields) { f.Name = "   " }, ErrEmptyName},
		{"long name", func(f *GoalFields) { f.Name = string(make([]rune, 101)) }, ErrNameTooLong},
		{"negative target", func(f *GoalFields) { f.TargetAmount = decimal.NewFromInt(-1) }, ErrNegativeAmount},
		{"negative balance", func(f *GoalFields) { f.Balance = decimal.NewFromFloat(-0.01) }, ErrNegativeAmount},
		{"zero date", func(f *GoalFields) { f.TargetDate = Date{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := good
			tc.mutate(&f)
			assert.ErrorIs(t, f.Validate(), tc.want)
		})
	}
}

func TestGoalJSONKeys(t *testing.T) {
	g := NewGoal("g1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), GoalFields{
		Name:         "Vacation",
		TargetAmount: decimal.RequireFromString("1000.50"),
		TargetDate:   NewDate(2026, 8, 1),
	})
	b, err := json.Marshal(g)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	for _, k := range []string{"id", "name", "targetAmount", "balance", "targetDate", "accountId", "icon", "created", "transactionIds", "tagIds"} {
		assert.Contains(t, raw, k)
	}
	assert.Equal(t, "1000.5", raw["targetAmount"])
	assert.Equal(t, "2026-08-01", raw["targetDate"])
	assert.Equal(t, []any{}, raw["transactionIds"])
}
