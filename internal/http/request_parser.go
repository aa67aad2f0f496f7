package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"goals/internal/core"
	"goals/internal/ui"
)

const maxBodyBytes = 1 << 20

// applyGoalForm copies submitted form values into f. Parse failures are
// recorded on the form and surface on Submit.
func applyGoalForm(form url.Values, f *ui.GoalForm) {
	f.SetName(sanitizeInput(form.Get(ui.FieldName)))
	f.SetAccountID(sanitizeInput(form.Get(ui.FieldAccountID)))
	_ = f.SetTargetAmount(strings.TrimSpace(form.Get(ui.FieldTargetAmount)))
	_ = f.SetBalance(strings.TrimSpace(form.Get(ui.FieldBalance)))
	_ = f.SetTargetDate(strings.TrimSpace(form.Get(ui.FieldTargetDate)))
	if icon := strings.TrimSpace(form.Get(ui.FieldIcon)); icon != "" && icon != f.Icon() {
		_ = f.SelectEmoji(icon)
	}
}

// decodeJSON reads a single JSON object from r into dst, rejecting unknown
// fields and bodies over 1 MiB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body too large")
		case errors.Is(err, io.EOF):
			return fmt.Errorf("request body is empty")
		default:
			return fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

// validateFields applies the form rules to an API create.
func validateFields(f core.GoalFields) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Icon != "" && !ui.IsSingleEmoji(f.Icon) {
		return core.ErrInvalidEmoji
	}
	return nil
}

// validatePatch applies the form rules to the fields a patch sets.
func validatePatch(p core.GoalPatch) error {
	if p.Empty() {
		return fmt.Errorf("no fields to update")
	}
	if p.Name.Set {
		name := strings.TrimSpace(p.Name.Value)
		if name == "" {
			return core.ErrEmptyName
		}
		if len([]rune(name)) > 100 {
			return core.ErrNameTooLong
		}
	}
	if (p.TargetAmount.Set && p.TargetAmount.Value.IsNegative()) || (p.Balance.Set && p.Balance.Value.IsNegative()) {
		return core.ErrNegativeAmount
	}
	if p.TargetDate.Set {
		if err := p.TargetDate.Value.Validate(); err != nil {
			return err
		}
	}
	if p.Icon.Set && p.Icon.Value != "" && !ui.IsSingleEmoji(p.Icon.Value) {
		return core.ErrInvalidEmoji
	}
	return nil
}
