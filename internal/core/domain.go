package core

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultIcon is used whenever a goal is created without an icon.
const DefaultIcon = "💰"

// DateLayout is the calendar-date wire format used by forms, JSON and storage.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// Goal is a savings target. AccountID, TransactionIDs and TagIDs are
	// references to entities owned elsewhere.
	Goal struct {
		ID             string          `json:"id"`
		Name           string          `json:"name"`
		TargetAmount   decimal.Decimal `json:"targetAmount"`
		Balance        decimal.Decimal `json:"balance"`
		TargetDate     Date            `json:"targetDate"`
		AccountID      string          `json:"accountId"`
		Icon           string          `json:"icon"`
		Created        time.Time       `json:"created"`
		TransactionIDs []string        `json:"transactionIds"`
		TagIDs         []string        `json:"tagIds"`
	}

	// GoalFields is the input of a create: everything but the id and the
	// creation timestamp, which the store assigns.
	GoalFields struct {
		Name           string          `json:"name"`
		TargetAmount   decimal.Decimal `json:"targetAmount"`
		Balance        decimal.Decimal `json:"balance"`
		TargetDate     Date            `json:"targetDate"`
		AccountID      string          `json:"accountId"`
		Icon           string          `json:"icon"`
		TransactionIDs []string        `json:"transactionIds"`
		TagIDs         []string        `json:"tagIds"`
	}
)

var (
	ErrGoalNotFound   = errors.New("goal not found")
	ErrEmptyName      = errors.New("empty name")
	ErrNegativeAmount = errors.New("negative amount")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidEmoji   = errors.New("icon must be a single emoji")
	ErrNameTooLong    = errors.New("name too long (max 100 characters)")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today(now time.Time) Date {
	y, m, d := now.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clone returns a copy of g that shares no slices with it.
func (g Goal) Clone() Goal {
	g.TransactionIDs = cloneIDs(g.TransactionIDs)
	g.TagIDs = cloneIDs(g.TagIDs)
	return g
}

// Fields returns the editable part of g.
func (g Goal) Fields() GoalFields {
	return GoalFields{
		Name:           g.Name,
		TargetAmount:   g.TargetAmount,
		Balance:        g.Balance,
		TargetDate:     g.TargetDate,
		AccountID:      g.AccountID,
		Icon:           g.Icon,
		TransactionIDs: cloneIDs(g.TransactionIDs),
		TagIDs:         cloneIDs(g.TagIDs),
	}
}

// NewGoal builds the stored record for a create. The icon falls back to
// DefaultIcon and nil reference lists become empty ones. Values are not
// validated.
func NewGoal(id string, created time.Time, f GoalFields) Goal {
	icon := f.Icon
	if icon == "" {
		icon = DefaultIcon
	}
	return Goal{
		ID:             id,
		Name:           f.Name,
		TargetAmount:   f.TargetAmount,
		Balance:        f.Balance,
		TargetDate:     f.TargetDate,
		AccountID:      f.AccountID,
		Icon:           icon,
		Created:        created,
		TransactionIDs: cloneIDs(f.TransactionIDs),
		TagIDs:         cloneIDs(f.TagIDs),
	}
}

// Validate applies the rules a user-facing form enforces. The store itself
// never calls it.
func (f GoalFields) Validate() error {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > 100 {
		return ErrNameTooLong
	}
	if f.TargetAmount.IsNegative() || f.Balance.IsNegative() {
		return ErrNegativeAmount
	}
	if err := f.TargetDate.Validate(); err != nil {
		return err
	}
	return nil
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}
