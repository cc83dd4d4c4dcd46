// Package newcode validates and edits the new code period definition.
package newcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// Message keys shown next to the days input.
const (
	MsgInvalidDays       = "new_code_definition.number_days.invalid"
	MsgComplianceWarning = "baseline.number_days.compliance_warning.title"
)

// DefaultDays is proposed when switching to a number of days.
const DefaultDays = 30

// Bounds is the accepted range for a number of days.
type Bounds struct {
	MinDays int
	MaxDays int
}

// DefaultBounds follows the compliance recommendation of at most 90 days.
var DefaultBounds = Bounds{MinDays: 1, MaxDays: 90}

// Level grades a days input.
type Level int

const (
	Valid Level = iota
	// Warning inputs are out of compliance but may still be saved.
	Warning
	// Invalid inputs block saving.
	Invalid
)

func (l Level) String() string {
	switch l {
	case Valid:
		return "valid"
	case Warning:
		return "warning"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Result is the outcome of validating a days input.
type Result struct {
	Days    int
	Level   Level
	Message string
}

// OK reports whether the input may be saved.
func (r Result) OK() bool { return r.Level != Invalid }

// Validate checks a days input. Values above b.MaxDays are rejected unless
// they equal the currently saved value, which stays acceptable with a
// compliance warning until it is changed.
func Validate(input string, saved model.NewCodePeriod, b Bounds) Result {
	s := strings.TrimSpace(input)
	n, err := strconv.Atoi(s)
	if err != nil || n < b.MinDays {
		return Result{Level: Invalid, Message: MsgInvalidDays}
	}
	if n > b.MaxDays {
		if savedDays(saved) == n {
			return Result{Days: n, Level: Warning, Message: MsgComplianceWarning}
		}
		return Result{Days: n, Level: Invalid, Message: MsgInvalidDays}
	}
	return Result{Days: n, Level: Valid}
}

// savedDays is the saved number of days, or 0 when the saved definition is
// not a number of days.
func savedDays(saved model.NewCodePeriod) int {
	if saved.Type != model.NewCodeNumberOfDays {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(saved.Value))
	if err != nil {
		return 0
	}
	return n
}

// ValidatePeriod checks a definition before it is stored. It returns a
// *model.ValidationError if any rule fails.
func ValidatePeriod(p model.NewCodePeriod, saved model.NewCodePeriod, b Bounds) error {
	var ve model.ValidationError
	switch p.Type {
	case model.NewCodePreviousVersion:
		if p.Value != "" {
			ve.Errors = append(ve.Errors, model.FieldError{Field: "value", Message: "must be empty for PREVIOUS_VERSION"})
		}
	case model.NewCodeNumberOfDays:
		if r := Validate(p.Value, saved, b); !r.OK() {
			ve.Errors = append(ve.Errors, model.FieldError{Field: "value", Message: fmt.Sprintf("%s: %q", r.Message, p.Value)})
		}
	case model.NewCodeReferenceBranch:
		if strings.TrimSpace(p.Value) == "" {
			ve.Errors = append(ve.Errors, model.FieldError{Field: "value", Message: "branch name is required"})
		}
	default:
		ve.Errors = append(ve.Errors, model.FieldError{Field: "type", Message: fmt.Sprintf("invalid value %q", p.Type)})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
