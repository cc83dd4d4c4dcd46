package provider

import (
	"context"
	"sync"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// Memory is a Provider over an in-memory issue set.
type Memory struct {
	mu     sync.RWMutex
	issues []*model.Issue
}

// NewMemory returns a Memory provider serving issues in the given order.
func NewMemory(issues []*model.Issue) *Memory {
	return &Memory{issues: issues}
}

// Search implements Provider.
func (m *Memory) Search(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Evaluate(m.issues, req)
}

// Replace swaps the issue set.
func (m *Memory) Replace(issues []*model.Issue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues = issues
}

// Lister loads the full issue set, e.g. from a store.
type Lister interface {
	ListIssues(ctx context.Context) ([]*model.Issue, error)
}

// Stored is a Provider that evaluates each request against the issues a
// Lister returns at request time.
type Stored struct {
	lister Lister
}

// NewStored returns a Provider backed by l.
func NewStored(l Lister) *Stored {
	return &Stored{lister: l}
}

// Search implements Provider.
func (s *Stored) Search(ctx context.Context, req Request) (*Result, error) {
	issues, err := s.lister.ListIssues(ctx)
	if err != nil {
		return nil, err
	}
	return Evaluate(issues, req)
}
