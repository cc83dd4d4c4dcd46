package facet

// Count is the number of matching issues carrying one facet value.
type Count struct {
	Value string `json:"val"`
	Count int    `json:"count"`
}

// Counts maps each aggregated dimension to its value counts, highest first.
type Counts map[Dimension][]Count

// CreationDate keys the creation date facet, whose counts are a monthly
// histogram ("2023-01") and whose selection is the CreationDateFrom and
// CreationDateTo pair.
const CreationDate = CreationDateFrom

// PanelFacets returns the facets the panel renders, in display order.
func PanelFacets() []Dimension {
	return append(MultiValued(), CreationDate)
}

// Flags are the workspace and viewer conditions visibility depends on.
type Flags struct {
	// NeedIssueSync is set while issues are being reindexed.
	NeedIssueSync bool
	// Anonymous is set when no user is logged in.
	Anonymous bool
}

// hiddenWhileSyncing lists the facets whose data is unreliable during reindexing.
var hiddenWhileSyncing = map[Dimension]bool{
	Assignee:         true,
	Author:           true,
	Project:          true,
	Tag:              true,
	Rule:             true,
	Resolution:       true,
	Status:           true,
	Scope:            true,
	Language:         true,
	CreationDateFrom: true,
	CreationDateTo:   true,
	CodeVariant:      true,
}

// Visible reports whether the control for d is shown.
func Visible(d Dimension, f Flags, counts Counts) bool {
	if !d.IsValid() {
		return false
	}
	if f.NeedIssueSync && hiddenWhileSyncing[d] {
		return false
	}
	switch d {
	case CodeVariant:
		return HasCodeVariants(counts)
	case OnlyMine:
		return !f.Anonymous
	}
	return true
}

// HasCodeVariants reports whether the aggregate counts contain at least one
// issue carrying a code variant.
func HasCodeVariants(counts Counts) bool {
	for _, c := range counts[CodeVariant] {
		if c.Count > 0 {
			return true
		}
	}
	return false
}
