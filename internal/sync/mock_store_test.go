package sync

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/store"
)

// mockStore is a minimal in-memory store for sync tests.
type mockStore struct {
	issues    map[string]*model.Issue
	order     []string
	period    *model.NewCodePeriod
	workspace *model.Workspace
	events    []*model.Event
	listErr   error
}

func newMockStore() *mockStore {
	p := model.DefaultNewCodePeriod()
	return &mockStore{
		issues:    make(map[string]*model.Issue),
		period:    &p,
		workspace: &model.Workspace{},
	}
}

func (m *mockStore) CreateIssue(_ context.Context, is *model.Issue) error {
	if _, ok := m.issues[is.Key]; !ok {
		m.order = append(m.order, is.Key)
	}
	m.issues[is.Key] = is
	return nil
}

func (m *mockStore) GetIssue(_ context.Context, key string) (*model.Issue, error) {
	is, ok := m.issues[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return is, nil
}

// ListIssues returns issues in insertion order, like created_at ordering.
func (m *mockStore) ListIssues(_ context.Context) ([]*model.Issue, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*model.Issue, 0, len(m.order))
	for _, k := range m.order {
		if is, ok := m.issues[k]; ok {
			out = append(out, is)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteIssue(_ context.Context, key string) error {
	if _, ok := m.issues[key]; !ok {
		return sql.ErrNoRows
	}
	delete(m.issues, key)
	return nil
}

func (m *mockStore) GetNewCodePeriod(context.Context) (*model.NewCodePeriod, error) {
	return m.period, nil
}

func (m *mockStore) SetNewCodePeriod(_ context.Context, p *model.NewCodePeriod) error {
	m.period = p
	return nil
}

func (m *mockStore) GetWorkspace(context.Context) (*model.Workspace, error) {
	return m.workspace, nil
}

func (m *mockStore) SetWorkspace(_ context.Context, w *model.Workspace) error {
	m.workspace = w
	return nil
}

func (m *mockStore) RecordEvent(_ context.Context, e *model.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockStore) ListEvents(context.Context, string) ([]*model.Event, error) {
	return m.events, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Ping(context.Context) error { return nil }

func (m *mockStore) Close() error { return nil }

var errList = errors.New("list failed")
