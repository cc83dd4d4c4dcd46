package facet

import "testing"

func TestVisible(t *testing.T) {
	withVariants := Counts{CodeVariant: {{Value: "variant 1", Count: 1}}}
	zeroVariants := Counts{CodeVariant: {{Value: "variant 1", Count: 0}}}

	for _, tc := range []struct {
		name   string
		dim    Dimension
		flags  Flags
		counts Counts
		want   bool
	}{
		{"TypeAlwaysShown", Type, Flags{}, nil, true},
		{"TypeShownWhileSyncing", Type, Flags{NeedIssueSync: true}, nil, true},
		{"SeverityShownWhileSyncing", Severity, Flags{NeedIssueSync: true}, nil, true},
		{"AssigneeHiddenWhileSyncing", Assignee, Flags{NeedIssueSync: true}, nil, false},
		{"CreationDateHiddenWhileSyncing", CreationDate, Flags{NeedIssueSync: true}, nil, false},
		{"CodeVariantHiddenWithoutCounts", CodeVariant, Flags{}, nil, false},
		{"CodeVariantHiddenWithZeroCounts", CodeVariant, Flags{}, zeroVariants, false},
		{"CodeVariantShown", CodeVariant, Flags{}, withVariants, true},
		{"CodeVariantHiddenWhileSyncing", CodeVariant, Flags{NeedIssueSync: true}, withVariants, false},
		{"OnlyMineShown", OnlyMine, Flags{}, nil, true},
		{"OnlyMineHiddenForAnonymous", OnlyMine, Flags{Anonymous: true}, nil, false},
		{"OWASPShownWhileSyncing", OWASPTop10_2021, Flags{NeedIssueSync: true}, nil, true},
		{"Unknown", Dimension("owaspTop10"), Flags{}, nil, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := Visible(tc.dim, tc.flags, tc.counts); got != tc.want {
				t.Errorf("Visible(%s, %+v) = %v, want %v", tc.dim, tc.flags, got, tc.want)
			}
		})
	}
}

func TestPanelFacets(t *testing.T) {
	got := PanelFacets()
	if got[0] != Type || got[len(got)-1] != CreationDate {
		t.Errorf("PanelFacets() = %v", got)
	}
	for _, d := range got {
		if d == OnlyMine || d == OnlyNewCode {
			t.Errorf("flag %s should not be a panel facet", d)
		}
	}
}
