package facet

import "testing"

func TestLabel(t *testing.T) {
	for _, tc := range []struct {
		dim  Dimension
		val  string
		want string
	}{
		{OWASPTop10_2021, "a1", "A1 - Broken Access Control"},
		{OWASPTop10_2021, "a10", "A10 - Server-Side Request Forgery (SSRF)"},
		{OWASPTop10_2021, "a11", "A11"},
		{Rule, "a1", "a1"},
	} {
		if got := Label(tc.dim, tc.val); got != tc.want {
			t.Errorf("Label(%s, %q) = %q, want %q", tc.dim, tc.val, got, tc.want)
		}
	}
}
