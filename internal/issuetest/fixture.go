// Package issuetest provides the seven-issue fixture shared by provider,
// panel and server tests.
package issuetest

import (
	"time"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// CurrentUser is the login the fixture treats as the viewer.
const CurrentUser = "luke"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

// Fixture returns a fresh copy of the fixture issues, keyed issue1..issue7.
//
// Notable members: issue6 is the only FIXED, MAIN, MAJOR code smell;
// issue7 is the only one carrying "variant 1"; issue1 is the only one
// created in January 2023; issue3 is assigned to CurrentUser; issue5 is
// the only one outside the new code period. The rules are named "Simple
// rule" (issue1 BUG, issue3), "Advanced rule" (issue2 VULNERABILITY,
// issue6) and "Other check"; only issue1 and issue2 carry OWASP Top 10
// 2021 categories.
func Fixture() []*model.Issue {
	return []*model.Issue{
		{
			Key: "issue1", Message: "Issue with no location message",
			Type: model.TypeBug, Severity: model.SeverityMajor, Scope: model.ScopeMain,
			Status: model.StatusOpen, Rule: "simpleRuleId", RuleName: "Simple rule",
			Project: "org.project1", Assignee: "email1@sonarsource.com", Author: "email1@sonarsource.com",
			Language: "java", OWASPTop10_2021: []string{"a3"}, InNewCodePeriod: true,
			CreatedAt: day(2023, time.January, 5),
		},
		{
			Key: "issue2", Message: "FlowIssue",
			Type: model.TypeVulnerability, Severity: model.SeverityCritical, Scope: model.ScopeMain,
			Status: model.StatusOpen, Rule: "advancedRuleId", RuleName: "Advanced rule",
			Project: "org.project1", Assignee: "email2@sonarsource.com", Author: "email2@sonarsource.com",
			Language: "ts", CodeVariants: []string{"variant 2"}, OWASPTop10_2021: []string{"a1", "a3"},
			InNewCodePeriod: true,
			CreatedAt: day(2023, time.February, 14),
		},
		{
			Key: "issue3", Message: "Issue on file",
			Type: model.TypeCodeSmell, Severity: model.SeverityMinor, Scope: model.ScopeTest,
			Status: model.StatusReopened, Rule: "simpleRuleId", RuleName: "Simple rule", Tags: []string{"unused"},
			Project: "org.project2", Assignee: CurrentUser, Author: "email1@sonarsource.com",
			Language: "java", InNewCodePeriod: true, CreatedAt: day(2023, time.March, 2),
		},
		{
			Key: "issue4", Message: "Fix this",
			Type: model.TypeCodeSmell, Severity: model.SeverityMajor, Scope: model.ScopeTest,
			Status: model.StatusResolved, Resolution: model.ResolutionFixed, Rule: "other", RuleName: "Other check",
			Tags: []string{"unused", "convention"},
			Project: "org.project2", Assignee: "email1@sonarsource.com", Author: "email3@sonarsource.com",
			Language: "java", InNewCodePeriod: true, CreatedAt: day(2023, time.March, 20),
		},
		{
			Key: "issue5", Message: "Issue on page 2",
			Type: model.TypeCodeSmell, Severity: model.SeverityMajor, Scope: model.ScopeMain,
			Status: model.StatusResolved, Resolution: model.ResolutionWontFix, Rule: "other", RuleName: "Other check",
			Tags: []string{"unused"},
			Project: "org.project2", Assignee: "email1@sonarsource.com", Author: "email3@sonarsource.com",
			Language: "java", InNewCodePeriod: false, CreatedAt: day(2023, time.April, 3),
		},
		{
			Key: "issue6", Message: "Second issue",
			Type: model.TypeCodeSmell, Severity: model.SeverityMajor, Scope: model.ScopeMain,
			Status: model.StatusConfirmed, Resolution: model.ResolutionFixed, Rule: "advancedRuleId", RuleName: "Advanced rule",
			Project: "org.project1", Assignee: "email2@sonarsource.com", Author: "email4@sonarsource.com",
			Language: "ts", InNewCodePeriod: true, CreatedAt: day(2023, time.April, 18),
		},
		{
			Key: "issue7", Message: "Issue with tags",
			Type: model.TypeCodeSmell, Severity: model.SeverityMajor, Scope: model.ScopeMain,
			Status: model.StatusOpen, Rule: "other", RuleName: "Other check", Tags: []string{"unused"},
			Project: "org.project2", Assignee: "email1@sonarsource.com", Author: "email3@sonarsource.com",
			Language: "java", CodeVariants: []string{"variant 1"}, InNewCodePeriod: true,
			CreatedAt: day(2023, time.May, 9),
		},
	}
}

// Keys returns the keys of issues in order.
func Keys(issues []*model.Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Key
	}
	return out
}
