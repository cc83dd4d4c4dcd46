package model

import "time"

// NewCodeDefinitionType selects how the new code period is computed.
type NewCodeDefinitionType string

const (
	NewCodePreviousVersion NewCodeDefinitionType = "PREVIOUS_VERSION"
	NewCodeNumberOfDays    NewCodeDefinitionType = "NUMBER_OF_DAYS"
	NewCodeReferenceBranch NewCodeDefinitionType = "REFERENCE_BRANCH"
)

// IsValid checks whether the definition type is a known value.
func (t NewCodeDefinitionType) IsValid() bool {
	switch t {
	case NewCodePreviousVersion, NewCodeNumberOfDays, NewCodeReferenceBranch:
		return true
	}
	return false
}

// NewCodePeriod is the instance-wide new code definition.
// Value holds the number of days or the branch name, depending on Type.
type NewCodePeriod struct {
	Type      NewCodeDefinitionType `json:"type"`
	Value     string                `json:"value,omitempty"`
	UpdatedAt time.Time             `json:"updatedAt,omitempty"`
}

// DefaultNewCodePeriod is used until a definition has been saved.
func DefaultNewCodePeriod() NewCodePeriod {
	return NewCodePeriod{Type: NewCodePreviousVersion}
}

// Workspace carries instance-level flags that affect what the UI may show.
type Workspace struct {
	// NeedIssueSync is true while issues are being reindexed.
	NeedIssueSync bool      `json:"needIssueSync"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}
