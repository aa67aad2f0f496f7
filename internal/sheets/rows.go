package sheets

import (
	"fmt"
	"strings"
	"time"

	"goals/internal/core"
)

// Header is the first row of the goals sheet. Column A always holds the
// goal id.
var Header = []string{
	"ID", "Icon", "Name", "Target", "Balance", "Progress %",
	"Target Date", "Account", "Created", "Transactions", "Tags",
}

// LastColumn is the column letter of the final Header entry.
const LastColumn = "K"

// GoalRow renders g as sheet cells in Header order.
func GoalRow(g core.Goal) []string {
	return []string{
		g.ID,
		EscapeText(g.Icon),
		EscapeText(g.Name),
		g.TargetAmount.StringFixed(2),
		g.Balance.StringFixed(2),
		fmt.Sprintf("%.1f", core.Progress(g.Balance, g.TargetAmount)),
		g.TargetDate.String(),
		EscapeText(g.AccountID),
		g.Created.UTC().Format(time.RFC3339),
		EscapeText(strings.Join(g.TransactionIDs, ",")),
		EscapeText(strings.Join(g.TagIDs, ",")),
	}
}

// EscapeText quotes free text so the sheet stores it verbatim. Values
// starting with = + - or @ would otherwise be parsed as formulas.
func EscapeText(s string) string {
	if s != "" && strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}

// FindRow returns the 1-based sheet row whose first cell equals id, given
// the values of column A starting at row 1. When id is absent it returns
// the row an append would use and false.
func FindRow(columnA [][]any, id string) (int, bool) {
	for i, row := range columnA {
		if i == 0 || len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, true
		}
	}
	next := len(columnA) + 1
	if next < 2 {
		next = 2
	}
	return next, false
}
