package model

import "time"

// IssueType classifies what an issue represents.
type IssueType string

const (
	TypeBug             IssueType = "BUG"
	TypeVulnerability   IssueType = "VULNERABILITY"
	TypeCodeSmell       IssueType = "CODE_SMELL"
	TypeSecurityHotspot IssueType = "SECURITY_HOTSPOT"
)

// IsValid checks whether the issue type is a known value.
func (t IssueType) IsValid() bool {
	switch t {
	case TypeBug, TypeVulnerability, TypeCodeSmell, TypeSecurityHotspot:
		return true
	}
	return false
}

// Severity ranks the impact of an issue.
type Severity string

const (
	SeverityBlocker  Severity = "BLOCKER"
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
	SeverityInfo     Severity = "INFO"
)

// IsValid checks whether the severity is a known value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityBlocker, SeverityCritical, SeverityMajor, SeverityMinor, SeverityInfo:
		return true
	}
	return false
}

// Scope tells whether an issue was raised on main or test sources.
type Scope string

const (
	ScopeMain Scope = "MAIN"
	ScopeTest Scope = "TEST"
)

// Status represents the workflow state of an issue.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusConfirmed Status = "CONFIRMED"
	StatusReopened  Status = "REOPENED"
	StatusResolved  Status = "RESOLVED"
	StatusClosed    Status = "CLOSED"
)

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusConfirmed, StatusReopened, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Resolution is set once an issue is resolved. Unresolved issues carry "".
type Resolution string

const (
	ResolutionFixed         Resolution = "FIXED"
	ResolutionFalsePositive Resolution = "FALSE-POSITIVE"
	ResolutionWontFix       Resolution = "WONTFIX"
	ResolutionRemoved       Resolution = "REMOVED"
)

// Issue is a single finding reported by analysis. The facet model only reads
// issues; it never mutates them.
type Issue struct {
	Key             string     `json:"key"`
	Message         string     `json:"message"`
	Type            IssueType  `json:"type"`
	Severity        Severity   `json:"severity"`
	Scope           Scope      `json:"scope"`
	Status          Status     `json:"status"`
	Resolution      Resolution `json:"resolution,omitempty"`
	Rule            string     `json:"rule"`
	RuleName        string     `json:"ruleName,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Project         string     `json:"project"`
	Assignee        string     `json:"assignee,omitempty"`
	Author          string     `json:"author,omitempty"`
	Language        string     `json:"language,omitempty"`
	CodeVariants    []string   `json:"codeVariants,omitempty"`
	OWASPTop10_2021 []string   `json:"owaspTop10-2021,omitempty"` // a1..a10
	InNewCodePeriod bool       `json:"inNewCodePeriod"`
	CreatedAt       time.Time  `json:"creationDate"`
}
