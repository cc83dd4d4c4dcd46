// Package facet holds the issue filter model: the selection of values per
// filter dimension, the pure operations that change it, and the composition
// of a selection into a query for a results provider.
package facet

import "fmt"

// Dimension is one independently filterable attribute of the issue set.
type Dimension string

const (
	Type             Dimension = "type"
	Severity         Dimension = "severity"
	Scope            Dimension = "scope"
	Resolution       Dimension = "resolution"
	Status           Dimension = "status"
	Rule             Dimension = "rule"
	Tag              Dimension = "tag"
	Project          Dimension = "project"
	Assignee         Dimension = "assignee"
	Author           Dimension = "author"
	Language         Dimension = "language"
	CodeVariant      Dimension = "codeVariant"
	OWASPTop10_2021  Dimension = "owaspTop10-2021"
	CreationDateFrom Dimension = "creationDateFrom"
	CreationDateTo   Dimension = "creationDateTo"
	OnlyNewCode      Dimension = "onlyNewCode"
	OnlyMine         Dimension = "onlyMine"
)

// Kind describes the shape of the value a dimension holds.
type Kind int

const (
	// Multi dimensions hold a set of string values.
	Multi Kind = iota + 1
	// Date dimensions hold a single calendar day.
	Date
	// Flag dimensions hold a boolean toggle.
	Flag
)

func (k Kind) String() string {
	switch k {
	case Multi:
		return "multi"
	case Date:
		return "date"
	case Flag:
		return "flag"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type dimensionInfo struct {
	kind  Kind
	param string // URL parameter name used by the issues search API
	// enumerated dimensions draw values from a fixed vocabulary that never
	// contains commas, so a comma-separated parameter is read as a list.
	enumerated bool
}

// dimensions is indexed in canonical order; Compose and All follow it.
var dimensions = []struct {
	dim  Dimension
	info dimensionInfo
}{
	{Type, dimensionInfo{Multi, "types", true}},
	{Severity, dimensionInfo{Multi, "severities", true}},
	{Scope, dimensionInfo{Multi, "scopes", true}},
	{Resolution, dimensionInfo{Multi, "resolutions", true}},
	{Status, dimensionInfo{Multi, "statuses", true}},
	{Rule, dimensionInfo{Multi, "rules", false}},
	{Tag, dimensionInfo{Multi, "tags", false}},
	{Project, dimensionInfo{Multi, "projects", false}},
	{Assignee, dimensionInfo{Multi, "assignees", false}},
	{Author, dimensionInfo{Multi, "author", false}},
	{Language, dimensionInfo{Multi, "languages", false}},
	{CodeVariant, dimensionInfo{Multi, "codeVariants", false}},
	{OWASPTop10_2021, dimensionInfo{Multi, "owaspTop10-2021", true}},
	{CreationDateFrom, dimensionInfo{Date, "createdAfter", false}},
	{CreationDateTo, dimensionInfo{Date, "createdBefore", false}},
	{OnlyNewCode, dimensionInfo{Flag, "inNewCodePeriod", false}},
	{OnlyMine, dimensionInfo{Flag, "assignedToMe", false}},
}

var byName = func() map[Dimension]dimensionInfo {
	m := make(map[Dimension]dimensionInfo, len(dimensions))
	for _, d := range dimensions {
		m[d.dim] = d.info
	}
	return m
}()

// All returns every dimension in canonical order.
func All() []Dimension {
	out := make([]Dimension, len(dimensions))
	for i, d := range dimensions {
		out[i] = d.dim
	}
	return out
}

// MultiValued returns the set-valued dimensions in canonical order.
func MultiValued() []Dimension {
	var out []Dimension
	for _, d := range dimensions {
		if d.info.kind == Multi {
			out = append(out, d.dim)
		}
	}
	return out
}

// IsValid reports whether d is a known dimension.
func (d Dimension) IsValid() bool {
	_, ok := byName[d]
	return ok
}

// Kind returns the value shape of d, or 0 for unknown dimensions.
func (d Dimension) Kind() Kind {
	return byName[d].kind
}

// Param returns the query parameter name for d.
func (d Dimension) Param() string {
	return byName[d].param
}

// String returns the string representation of the dimension.
func (d Dimension) String() string {
	return string(d)
}

// ParseDimension accepts either a dimension name or its query parameter name.
func ParseDimension(s string) (Dimension, error) {
	if d := Dimension(s); d.IsValid() {
		return d, nil
	}
	for _, d := range dimensions {
		if d.info.param == s {
			return d.dim, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

func order(d Dimension) int {
	for i, e := range dimensions {
		if e.dim == d {
			return i
		}
	}
	return len(dimensions)
}
