// Package ui holds the view models behind the goal pages: the edit form,
// the goal card, the emoji picker and the modal contract.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"goals/internal/core"
	"goals/internal/log"
	"goals/internal/store"
)

// Form field names, shared with the HTML inputs.
const (
	FieldName         = "name"
	FieldTargetAmount = "targetAmount"
	FieldBalance      = "balance"
	FieldTargetDate   = "targetDate"
	FieldAccountID    = "accountId"
	FieldIcon         = "icon"
)

// Dispatcher receives the form's create and update intents.
type Dispatcher interface {
	store.GoalCreator
	store.GoalUpdater
}

// GoalForm is the edit buffer for one goal. It is not safe for concurrent
// use; each request builds its own.
type GoalForm struct {
	dispatcher Dispatcher
	seed       *core.Goal
	onClose    func()
	logger     *log.Logger

	fields core.GoalFields
	inputs map[string]string
	errs   map[string]error

	pickerOpen bool
}

type FormOption func(*GoalForm)

// WithOnClose sets the callback invoked after a dispatched submit.
func WithOnClose(fn func()) FormOption {
	return func(f *GoalForm) { f.onClose = fn }
}

func WithFormLogger(l *log.Logger) FormOption {
	return func(f *GoalForm) { f.logger = l.WithComponent(log.ComponentForm) }
}

// WithClock sets the clock used for the default target date.
func WithClock(c store.Clock) FormOption {
	return func(f *GoalForm) {
		if f.seed == nil {
			f.setDate(core.Today(c()))
		}
	}
}

// NewGoalForm seeds the buffer from seed, or from defaults when seed is nil.
func NewGoalForm(d Dispatcher, seed *core.Goal, opts ...FormOption) *GoalForm {
	f := &GoalForm{
		dispatcher: d,
		logger:     log.Default(log.ComponentForm),
		inputs:     make(map[string]string),
		errs:       make(map[string]error),
	}
	if seed != nil {
		g := seed.Clone()
		f.seed = &g
		f.fields = g.Fields()
	} else {
		f.fields = core.GoalFields{
			Icon:           core.DefaultIcon,
			TransactionIDs: []string{},
			TagIDs:         []string{},
		}
		f.setDate(core.Today(store.SystemClock()))
	}
	f.inputs[FieldTargetAmount] = f.fields.TargetAmount.String()
	f.inputs[FieldBalance] = f.fields.Balance.String()
	f.inputs[FieldTargetDate] = f.fields.TargetDate.String()
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *GoalForm) setDate(d core.Date) {
	f.fields.TargetDate = d
	f.inputs[FieldTargetDate] = d.String()
}

func (f *GoalForm) Editing() bool { return f.seed != nil }

// GoalID is empty for a new goal.
func (f *GoalForm) GoalID() string {
	if f.seed == nil {
		return ""
	}
	return f.seed.ID
}

func (f *GoalForm) SubmitLabel() string {
	if f.Editing() {
		return "Update Goal"
	}
	return "Create Goal"
}

func (f *GoalForm) Fields() core.GoalFields {
	out := f.fields
	out.TransactionIDs = append([]string{}, f.fields.TransactionIDs...)
	out.TagIDs = append([]string{}, f.fields.TagIDs...)
	return out
}

func (f *GoalForm) SetName(name string) {
	f.fields.Name = name
	delete(f.errs, FieldName)
}

func (f *GoalForm) SetAccountID(id string) {
	f.fields.AccountID = strings.TrimSpace(id)
}

// SetTargetAmount parses raw; on failure the previous amount is kept and
// the error is recorded against the field.
func (f *GoalForm) SetTargetAmount(raw string) error {
	return f.setAmount(FieldTargetAmount, raw, &f.fields.TargetAmount)
}

func (f *GoalForm) SetBalance(raw string) error {
	return f.setAmount(FieldBalance, raw, &f.fields.Balance)
}

func (f *GoalForm) setAmount(field, raw string, dst *decimal.Decimal) error {
	f.inputs[field] = raw
	amount, err := core.ParseAmount(raw)
	if err != nil {
		f.errs[field] = err
		return err
	}
	*dst = amount
	delete(f.errs, field)
	return nil
}

// SetTargetDate parses a YYYY-MM-DD value on every change. An unparsable
// value keeps the previous date.
func (f *GoalForm) SetTargetDate(raw string) error {
	f.inputs[FieldTargetDate] = raw
	d, err := core.ParseDate(raw)
	if err != nil {
		f.errs[FieldTargetDate] = err
		return err
	}
	f.fields.TargetDate = d
	delete(f.errs, FieldTargetDate)
	return nil
}

// Input returns the raw text last entered for field, so an invalid value
// can be shown back to the user.
func (f *GoalForm) Input(field string) string {
	switch field {
	case FieldName:
		return f.fields.Name
	case FieldAccountID:
		return f.fields.AccountID
	case FieldIcon:
		return f.fields.Icon
	}
	return f.inputs[field]
}

func (f *GoalForm) Icon() string { return f.fields.Icon }

func (f *GoalForm) PickerOpen() bool { return f.pickerOpen }

func (f *GoalForm) ToggleEmojiPicker() {
	f.pickerOpen = !f.pickerOpen
}

// Picker returns an emoji picker wired to this form's icon.
func (f *GoalForm) Picker() EmojiPicker {
	return EmojiPicker{
		OnSelect: func(glyph string) {
			f.fields.Icon = glyph
			delete(f.errs, FieldIcon)
		},
		OnClose: func() { f.pickerOpen = false },
	}
}

// SelectEmoji sets the icon and closes the picker.
func (f *GoalForm) SelectEmoji(glyph string) error {
	if err := f.Picker().Select(glyph); err != nil {
		f.errs[FieldIcon] = err
		return err
	}
	return nil
}

// Errors returns field errors keyed by field name.
func (f *GoalForm) Errors() map[string]string {
	out := make(map[string]string, len(f.errs))
	for k, err := range f.errs {
		out[k] = err.Error()
	}
	return out
}

// Validate checks the buffer and records one error per failing field.
func (f *GoalForm) Validate() error {
	name := strings.TrimSpace(f.fields.Name)
	switch {
	case name == "":
		f.errs[FieldName] = core.ErrEmptyName
	case len([]rune(name)) > 100:
		f.errs[FieldName] = core.ErrNameTooLong
	}
	if _, failed := f.errs[FieldTargetAmount]; !failed && f.fields.TargetAmount.IsNegative() {
		f.errs[FieldTargetAmount] = core.ErrNegativeAmount
	}
	if _, failed := f.errs[FieldBalance]; !failed && f.fields.Balance.IsNegative() {
		f.errs[FieldBalance] = core.ErrNegativeAmount
	}
	if _, failed := f.errs[FieldTargetDate]; !failed && f.fields.TargetDate.IsZero() {
		f.errs[FieldTargetDate] = core.ErrInvalidDate
	}

	if len(f.errs) == 0 {
		return nil
	}
	errs := make([]error, 0, len(f.errs))
	for _, field := range []string{FieldName, FieldTargetAmount, FieldBalance, FieldTargetDate, FieldIcon} {
		if err, ok := f.errs[field]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	return errors.Join(errs...)
}

// Submit validates and dispatches the create or update intent, then calls
// the close callback. When editing, the id, creation time and reference
// lists of the seed goal are kept.
//
// An update whose goal vanished is logged and still closes the form; the
// returned error wraps core.ErrGoalNotFound.
func (f *GoalForm) Submit(ctx context.Context) (core.Goal, error) {
	if err := f.Validate(); err != nil {
		return core.Goal{}, err
	}

	fields := f.Fields()
	fields.Name = strings.TrimSpace(fields.Name)

	var (
		goal core.Goal
		err  error
		op   = log.OpCreate
	)
	if f.seed != nil {
		op = log.OpUpdate
		fields.TransactionIDs = f.seed.TransactionIDs
		fields.TagIDs = f.seed.TagIDs
		goal, err = f.dispatcher.Update(ctx, core.PatchFromFields(f.seed.ID, fields))
	} else {
		fields.TransactionIDs = []string{}
		fields.TagIDs = []string{}
		goal, err = f.dispatcher.Create(ctx, fields)
	}

	switch {
	case errors.Is(err, core.ErrGoalNotFound):
		f.logger.WarnContext(ctx, "Goal no longer exists, nothing updated",
			log.NewFields().
				WithOperation(op).
				WithGoal(f.seed.ID, "", "", "").
				WithError(err, log.ErrorTypeNotFound).
				ToSlice()...)
		f.close()
		return core.Goal{}, err
	case err != nil:
		return core.Goal{}, fmt.Errorf("%s goal: %w", op, err)
	}

	f.logger.DebugContext(ctx, "Goal form submitted", log.FieldOperation, op, log.FieldGoalID, goal.ID)
	f.close()
	return goal, nil
}

func (f *GoalForm) close() {
	if f.onClose != nil {
		f.onClose()
	}
}
