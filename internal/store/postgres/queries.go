package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// issueColumns is the column list used for SELECT statements on the issues table.
const issueColumns = `key, message, type, severity, scope, status, resolution,
	rule, tags, project, assignee, author, language, code_variants,
	in_new_code_period, created_at, rule_name, owasp_top10_2021`

// Keys of the settings table.
const (
	settingNewCodePeriod = "new_code_period"
	settingWorkspace     = "workspace"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateIssue(ctx context.Context, db executor, is *model.Issue) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO issues (
			key, message, type, severity, scope, status, resolution,
			rule, tags, project, assignee, author, language, code_variants,
			in_new_code_period, created_at, rule_name, owasp_top10_2021
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18
		)`,
		is.Key,
		is.Message,
		string(is.Type),
		string(is.Severity),
		string(is.Scope),
		string(is.Status),
		nullString(string(is.Resolution)),
		is.Rule,
		pq.Array(nonNil(is.Tags)),
		is.Project,
		nullString(is.Assignee),
		nullString(is.Author),
		nullString(is.Language),
		pq.Array(nonNil(is.CodeVariants)),
		is.InNewCodePeriod,
		is.CreatedAt,
		nullString(is.RuleName),
		pq.Array(nonNil(is.OWASPTop10_2021)),
	)
	return err
}

func queryGetIssue(ctx context.Context, db executor, key string) (*model.Issue, error) {
	row := db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE key = $1`, key)
	return scanIssue(row)
}

func queryListIssues(ctx context.Context, db executor) ([]*model.Issue, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+issueColumns+` FROM issues ORDER BY created_at ASC, key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []*model.Issue
	for rows.Next() {
		is, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issues: %w", err)
		}
		issues = append(issues, is)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan issues: %w", err)
	}
	return issues, nil
}

func queryDeleteIssue(ctx context.Context, db executor, key string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM issues WHERE key = $1`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// getSetting decodes the JSON value stored under key into dst. It reports
// false when no value was saved.
func getSetting(ctx context.Context, db executor, key string, dst any) (bool, error) {
	var raw []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get setting %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode setting %s: %w", key, err)
	}
	return true, nil
}

// putSetting upserts the JSON encoding of v under key and returns the
// update time.
func putSetting(ctx context.Context, db executor, key string, v any) (updatedAt sql.NullTime, err error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return updatedAt, fmt.Errorf("encode setting %s: %w", key, err)
	}
	err = db.QueryRowContext(ctx, `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
		RETURNING updated_at`,
		key, raw,
	).Scan(&updatedAt)
	return updatedAt, err
}

func queryGetNewCodePeriod(ctx context.Context, db executor) (*model.NewCodePeriod, error) {
	p := model.DefaultNewCodePeriod()
	if _, err := getSetting(ctx, db, settingNewCodePeriod, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func querySetNewCodePeriod(ctx context.Context, db executor, p *model.NewCodePeriod) error {
	updated, err := putSetting(ctx, db, settingNewCodePeriod, p)
	if err != nil {
		return err
	}
	p.UpdatedAt = updated.Time
	return nil
}

func queryGetWorkspace(ctx context.Context, db executor) (*model.Workspace, error) {
	var w model.Workspace
	if _, err := getSetting(ctx, db, settingWorkspace, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func querySetWorkspace(ctx context.Context, db executor, w *model.Workspace) error {
	updated, err := putSetting(ctx, db, settingWorkspace, w)
	if err != nil {
		return err
	}
	w.UpdatedAt = updated.Time
	return nil
}

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, subject, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.Topic, e.Subject, e.Actor, jsonbBytes(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryListEvents(ctx context.Context, db executor, subject string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, subject, actor, payload, created_at
		FROM events
		WHERE subject = $1
		ORDER BY created_at ASC`,
		subject,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}
