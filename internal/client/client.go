// Package client provides a transport-agnostic interface for the issue facets
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"

	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
)

// FacetsClient is the interface the facets CLI uses to talk to the server.
// It is a provider.Provider, so a facet panel can be driven by a remote
// server the same way it is driven by an in-memory issue set.
type FacetsClient interface {
	provider.Provider
	provider.ValueSearcher

	// Issues
	CreateIssue(ctx context.Context, issue *model.Issue) (*model.Issue, error)
	GetIssue(ctx context.Context, key string) (*model.Issue, error)
	DeleteIssue(ctx context.Context, key string) error
	GetIssueEvents(ctx context.Context, key string) ([]*model.Event, error)

	// Settings
	GetNewCodePeriod(ctx context.Context) (*model.NewCodePeriod, error)
	SetNewCodePeriod(ctx context.Context, p model.NewCodePeriod) (*model.NewCodePeriod, error)
	GetWorkspace(ctx context.Context) (*model.Workspace, error)
	SetWorkspace(ctx context.Context, w model.Workspace) (*model.Workspace, error)

	// Events
	StreamEvents(ctx context.Context, topics []string, fn func(StreamEvent) error) error

	// Health
	Health(ctx context.Context) (*HealthReport, error)

	// Lifecycle
	Close() error
}

// HealthReport is the body of GET /v1/health.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// StreamEvent is one server-sent event from /v1/events/stream.
type StreamEvent struct {
	ID    string
	Topic string
	Data  []byte
}
