package newcode

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// ErrCannotSave is returned by Save when the draft is unchanged or invalid.
var ErrCannotSave = errors.New("new code period: nothing valid to save")

// Saver persists a new code period definition.
type Saver interface {
	SetNewCodePeriod(ctx context.Context, p model.NewCodePeriod) (*model.NewCodePeriod, error)
}

// Form is the editable draft of the new code period setting.
type Form struct {
	saved  model.NewCodePeriod
	bounds Bounds

	selected model.NewCodeDefinitionType
	days     string
	branch   string

	// Saved is set after a successful save and reset by the next edit.
	Saved bool
}

// NewForm returns a form showing the saved definition.
func NewForm(saved model.NewCodePeriod, b Bounds) *Form {
	if !saved.Type.IsValid() {
		saved = model.DefaultNewCodePeriod()
	}
	f := &Form{saved: saved, bounds: b}
	f.reset()
	return f
}

func (f *Form) reset() {
	f.selected = f.saved.Type
	f.days = strconv.Itoa(DefaultDays)
	f.branch = ""
	switch f.saved.Type {
	case model.NewCodeNumberOfDays:
		f.days = f.saved.Value
	case model.NewCodeReferenceBranch:
		f.branch = f.saved.Value
	}
}

// Selected returns the selected definition type.
func (f *Form) Selected() model.NewCodeDefinitionType { return f.selected }

// Days returns the days input as typed.
func (f *Form) Days() string { return f.days }

// SelectType switches the definition type.
func (f *Form) SelectType(t model.NewCodeDefinitionType) {
	f.selected = t
	f.Saved = false
}

// SetDays replaces the days input.
func (f *Form) SetDays(s string) {
	f.days = s
	f.Saved = false
}

// SetBranch replaces the reference branch input.
func (f *Form) SetBranch(s string) {
	f.branch = s
	f.Saved = false
}

// Validation grades the days input. It is only meaningful while the
// number-of-days type is selected.
func (f *Form) Validation() Result {
	return Validate(f.days, f.saved, f.bounds)
}

// Draft returns the definition the form would save.
func (f *Form) Draft() model.NewCodePeriod {
	p := model.NewCodePeriod{Type: f.selected}
	switch f.selected {
	case model.NewCodeNumberOfDays:
		p.Value = strings.TrimSpace(f.days)
	case model.NewCodeReferenceBranch:
		p.Value = strings.TrimSpace(f.branch)
	}
	return p
}

// Dirty reports whether the draft differs from the saved definition.
func (f *Form) Dirty() bool {
	d := f.Draft()
	return d.Type != f.saved.Type || d.Value != f.saved.Value
}

// CanSave reports whether the save action is enabled.
func (f *Form) CanSave() bool {
	if !f.Dirty() {
		return false
	}
	return ValidatePeriod(f.Draft(), f.saved, f.bounds) == nil
}

// Cancel discards the draft.
func (f *Form) Cancel() {
	f.reset()
	f.Saved = false
}

// Save persists the draft. Nothing is sent when CanSave is false.
func (f *Form) Save(ctx context.Context, s Saver) error {
	if !f.CanSave() {
		return ErrCannotSave
	}
	stored, err := s.SetNewCodePeriod(ctx, f.Draft())
	if err != nil {
		return err
	}
	f.saved = *stored
	f.reset()
	f.Saved = true
	return nil
}
