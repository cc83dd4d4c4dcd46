package events

import (
	"context"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// Event topic constants
const (
	TopicIssueCreated = "facets.issue.created"
	TopicIssueDeleted = "facets.issue.deleted"

	TopicNewCodePeriodUpdated = "facets.settings.new_code_period.updated"
	TopicWorkspaceUpdated     = "facets.workspace.updated"

	// TopicAll matches every topic above.
	TopicAll = "facets.>"
)

// Event types

type IssueCreated struct {
	Issue *model.Issue `json:"issue"`
}

type IssueDeleted struct {
	Key string `json:"key"`
}

type NewCodePeriodUpdated struct {
	Period   *model.NewCodePeriod `json:"period"`
	Previous *model.NewCodePeriod `json:"previous,omitempty"`
}

type WorkspaceUpdated struct {
	Workspace *model.Workspace `json:"workspace"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
