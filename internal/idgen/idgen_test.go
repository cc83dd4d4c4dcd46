package idgen

import (
	"regexp"
	"strings"
	"testing"
)

func TestIssueKey_Length(t *testing.T) {
	key, err := IssueKey()
	if err != nil {
		t.Fatalf("IssueKey() error: %v", err)
	}
	if want := len(IssuePrefix) + Length; len(key) != want {
		t.Errorf("IssueKey() length = %d, want %d (key=%q)", len(key), want, key)
	}
	if !strings.HasPrefix(key, IssuePrefix) {
		t.Errorf("IssueKey() = %q, want prefix %q", key, IssuePrefix)
	}
}

func TestIssueKey_Charset(t *testing.T) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(IssuePrefix) + `[a-zA-Z0-9_-]+$`)
	for i := 0; i < 100; i++ {
		key, err := IssueKey()
		if err != nil {
			t.Fatalf("IssueKey() error on iteration %d: %v", i, err)
		}
		if !pattern.MatchString(key) {
			t.Fatalf("IssueKey() = %q, does not match expected charset pattern", key)
		}
	}
}

func TestIssueKey_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		key, err := IssueKey()
		if err != nil {
			t.Fatalf("IssueKey() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate key after %d generations: %q", i, key)
		}
		seen[key] = struct{}{}
	}
}

func TestRequestID(t *testing.T) {
	id := RequestID()
	if !strings.HasPrefix(id, RequestPrefix) || len(id) != len(RequestPrefix)+8 {
		t.Errorf("RequestID() = %q", id)
	}
}

func TestGenerateWithPrefix_Empty(t *testing.T) {
	id, err := GenerateWithPrefix("", 5)
	if err != nil {
		t.Fatalf("GenerateWithPrefix error: %v", err)
	}
	if len(id) != 5 {
		t.Errorf("GenerateWithPrefix(\"\", 5) = %q, want 5 chars", id)
	}
}
