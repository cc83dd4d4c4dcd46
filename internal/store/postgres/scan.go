package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanIssue scans a single row into a model.Issue.
// The row must contain columns in the order defined by issueColumns.
func scanIssue(row scannable) (*model.Issue, error) {
	var is model.Issue
	var (
		resolution sql.NullString
		assignee   sql.NullString
		author     sql.NullString
		language   sql.NullString
		tags       pq.StringArray
		variants   pq.StringArray
		ruleName   sql.NullString
		owasp      pq.StringArray
	)

	err := row.Scan(
		&is.Key,
		&is.Message,
		&is.Type,
		&is.Severity,
		&is.Scope,
		&is.Status,
		&resolution,
		&is.Rule,
		&tags,
		&is.Project,
		&assignee,
		&author,
		&language,
		&variants,
		&is.InNewCodePeriod,
		&is.CreatedAt,
		&ruleName,
		&owasp,
	)
	if err != nil {
		return nil, err
	}

	is.Resolution = model.Resolution(resolution.String)
	is.Assignee = assignee.String
	is.Author = author.String
	is.Language = language.String
	if len(tags) > 0 {
		is.Tags = []string(tags)
	}
	if len(variants) > 0 {
		is.CodeVariants = []string(variants)
	}
	is.RuleName = ruleName.String
	if len(owasp) > 0 {
		is.OWASPTop10_2021 = []string(owasp)
	}
	return &is, nil
}

func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		var e model.Event
		var payload []byte
		if err := rows.Scan(&e.ID, &e.Topic, &e.Subject, &e.Actor, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			e.Payload = json.RawMessage(payload)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}

// nonNil maps a nil slice to an empty one so array columns store '{}'.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
