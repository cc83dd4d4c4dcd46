package store

import (
	"context"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// Store defines the persistence interface for issues, instance settings and
// the event log. Lookups of missing rows return sql.ErrNoRows.
type Store interface {
	// Issues
	CreateIssue(ctx context.Context, issue *model.Issue) error
	GetIssue(ctx context.Context, key string) (*model.Issue, error)
	ListIssues(ctx context.Context) ([]*model.Issue, error)
	DeleteIssue(ctx context.Context, key string) error

	// Settings. Getters return the default value when nothing was saved.
	GetNewCodePeriod(ctx context.Context) (*model.NewCodePeriod, error)
	SetNewCodePeriod(ctx context.Context, p *model.NewCodePeriod) error
	GetWorkspace(ctx context.Context) (*model.Workspace, error)
	SetWorkspace(ctx context.Context, w *model.Workspace) error

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context, subject string) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
