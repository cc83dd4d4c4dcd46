package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alfredjeanlab/issuefacets/internal/events"
	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/store"
)

type mockStore struct {
	mu        sync.Mutex
	issues    map[string]*model.Issue
	order     []string
	period    *model.NewCodePeriod
	workspace *model.Workspace
	events    []*model.Event
	pingErr   error
}

func newMockStore(issues ...*model.Issue) *mockStore {
	p := model.DefaultNewCodePeriod()
	ms := &mockStore{
		issues:    make(map[string]*model.Issue),
		period:    &p,
		workspace: &model.Workspace{},
	}
	for _, is := range issues {
		_ = ms.CreateIssue(context.Background(), is)
	}
	return ms
}

func (m *mockStore) CreateIssue(_ context.Context, is *model.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issues[is.Key]; !ok {
		m.order = append(m.order, is.Key)
	}
	m.issues[is.Key] = is
	return nil
}

func (m *mockStore) GetIssue(_ context.Context, key string) (*model.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	is, ok := m.issues[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return is, nil
}

func (m *mockStore) ListIssues(context.Context) ([]*model.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Issue, 0, len(m.order))
	for _, k := range m.order {
		if is, ok := m.issues[k]; ok {
			out = append(out, is)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteIssue(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issues[key]; !ok {
		return sql.ErrNoRows
	}
	delete(m.issues, key)
	return nil
}

func (m *mockStore) GetNewCodePeriod(context.Context) (*model.NewCodePeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *m.period
	return &p, nil
}

func (m *mockStore) SetNewCodePeriod(_ context.Context, p *model.NewCodePeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.period = &cp
	return nil
}

func (m *mockStore) GetWorkspace(context.Context) (*model.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := *m.workspace
	return &w, nil
}

func (m *mockStore) SetWorkspace(_ context.Context, w *model.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.workspace = &cp
	return nil
}

func (m *mockStore) RecordEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.events) + 1)
	m.events = append(m.events, e)
	return nil
}

func (m *mockStore) ListEvents(_ context.Context, subject string) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Event
	for _, e := range m.events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) Close() error { return nil }

func (m *mockStore) topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Topic
	}
	return out
}

func newTestServer(opts ...Option) (*FacetsServer, *mockStore, http.Handler) {
	ms := newMockStore()
	s := NewFacetsServer(ms, &events.NoopPublisher{}, opts...)
	return s, ms, s.NewHTTPHandler("")
}

// doJSON performs an HTTP request with an optional JSON body and returns the recorder.
func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// requireStatus asserts the recorder has the expected HTTP status code.
func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d; body: %s", code, rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, rec.Body.String())
	}
	return v
}
