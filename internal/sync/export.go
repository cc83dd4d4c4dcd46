package sync

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/store"
)

// Part names of an export.
const (
	IssuesPart   = "issues.jsonl"
	SettingsPart = "settings.jsonl"
)

// Record types. The issues part starts with a header record followed by
// one issue record per issue; the settings part holds one new code period
// record and one workspace record.
const (
	recordHeader        = "header"
	recordIssue         = "issue"
	recordNewCodePeriod = "new_code_period"
	recordWorkspace     = "workspace"
)

const exportVersion = "2"

// header opens the issues part. It carries no timestamp so an unchanged
// issue set always encodes to the same bytes.
type header struct {
	Version    string                  `json:"version"`
	Type       string                  `json:"type"`
	IssueCount int                     `json:"issue_count"`
	ByType     map[model.IssueType]int `json:"by_type,omitempty"`
}

type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Snapshot is a consistent read of the issues and the settings that
// decide how they are filtered.
type Snapshot struct {
	TakenAt   time.Time
	Issues    []*model.Issue
	Period    model.NewCodePeriod
	Workspace model.Workspace
}

// TakeSnapshot reads the issue list and the settings in one transaction.
// Issues are sorted by key.
func TakeSnapshot(ctx context.Context, s store.Store) (*Snapshot, error) {
	snap := &Snapshot{}
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		if snap.Issues, err = tx.ListIssues(ctx); err != nil {
			return fmt.Errorf("list issues: %w", err)
		}
		period, err := tx.GetNewCodePeriod(ctx)
		if err != nil {
			return fmt.Errorf("get new code period: %w", err)
		}
		ws, err := tx.GetWorkspace(ctx)
		if err != nil {
			return fmt.Errorf("get workspace: %w", err)
		}
		snap.Period, snap.Workspace = *period, *ws
		return nil
	})
	if err != nil {
		return nil, err
	}
	snap.TakenAt = time.Now().UTC()
	slices.SortFunc(snap.Issues, func(a, b *model.Issue) int {
		return strings.Compare(a.Key, b.Key)
	})
	return snap, nil
}

// Part is one file of an export.
type Part struct {
	Name string
	Data []byte
}

// Export is a snapshot encoded for publishing.
type Export struct {
	TakenAt    time.Time
	IssueCount int
	Period     model.NewCodePeriod
	Parts      []Part
	// Digest identifies the content of the parts; TakenAt does not
	// contribute, so two exports of the same data share a digest.
	Digest string
}

// Encode renders the snapshot as an issues part and a settings part.
func (s *Snapshot) Encode() (*Export, error) {
	byType := map[model.IssueType]int{}
	var issues bytes.Buffer
	enc := newEncoder(&issues)
	for _, is := range s.Issues {
		byType[is.Type]++
	}
	if err := enc.Encode(header{Version: exportVersion, Type: recordHeader, IssueCount: len(s.Issues), ByType: byType}); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	for _, is := range s.Issues {
		if err := enc.Encode(record{Type: recordIssue, Data: is}); err != nil {
			return nil, fmt.Errorf("encode issue %s: %w", is.Key, err)
		}
	}

	var settings bytes.Buffer
	enc = newEncoder(&settings)
	if err := enc.Encode(record{Type: recordNewCodePeriod, Data: s.Period}); err != nil {
		return nil, fmt.Errorf("encode new code period: %w", err)
	}
	if err := enc.Encode(record{Type: recordWorkspace, Data: s.Workspace}); err != nil {
		return nil, fmt.Errorf("encode workspace: %w", err)
	}

	e := &Export{
		TakenAt:    s.TakenAt,
		IssueCount: len(s.Issues),
		Period:     s.Period,
		Parts: []Part{
			{Name: IssuesPart, Data: issues.Bytes()},
			{Name: SettingsPart, Data: settings.Bytes()},
		},
	}
	h := sha256.New()
	for _, p := range e.Parts {
		fmt.Fprintf(h, "%s\x00%d\x00", p.Name, len(p.Data))
		h.Write(p.Data)
	}
	e.Digest = hex.EncodeToString(h.Sum(nil))
	return e, nil
}

// Summary describes the export in one line, e.g.
// "7 issues, new code: number of days 30".
func (e *Export) Summary() string {
	noun := "issues"
	if e.IssueCount == 1 {
		noun = "issue"
	}
	period := strings.ToLower(strings.ReplaceAll(string(e.Period.Type), "_", " "))
	if e.Period.Value != "" {
		period += " " + e.Period.Value
	}
	return fmt.Sprintf("%d %s, new code: %s", e.IssueCount, noun, period)
}

func newEncoder(b *bytes.Buffer) *json.Encoder {
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	return enc
}
