package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alfredjeanlab/issuefacets/internal/events"
	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/health"
	"github.com/alfredjeanlab/issuefacets/internal/idgen"
	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/newcode"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
	"github.com/alfredjeanlab/issuefacets/internal/store"
)

// FacetsServer serves issue search with facet counts, the issue set behind
// it, and the instance settings that shape the facet panel.
type FacetsServer struct {
	store     store.Store
	publisher events.Publisher
	provider  provider.Provider
	checker   *health.Checker
	bounds    newcode.Bounds
	sseHub    *sseHub
}

// Option configures a FacetsServer.
type Option func(*FacetsServer)

// WithProvider replaces the default provider, which evaluates queries
// against the issues in the store.
func WithProvider(p provider.Provider) Option {
	return func(s *FacetsServer) { s.provider = p }
}

// WithChecker sets the liveness checker behind /v1/liveness and the gRPC
// health service.
func WithChecker(c *health.Checker) Option {
	return func(s *FacetsServer) { s.checker = c }
}

// WithBounds sets the day bounds used to validate new code periods.
func WithBounds(b newcode.Bounds) Option {
	return func(s *FacetsServer) { s.bounds = b }
}

// NewFacetsServer returns a FacetsServer backed by the given store and publisher.
func NewFacetsServer(s store.Store, p events.Publisher, opts ...Option) *FacetsServer {
	srv := &FacetsServer{
		store:     s,
		publisher: p,
		provider:  provider.NewStored(s),
		checker:   &health.Checker{DB: health.PingCheck(s)},
		bounds:    newcode.DefaultBounds,
		sseHub:    newSSEHub(),
	}
	for _, o := range opts {
		o(srv)
	}
	return srv
}

// recordAndPublish persists an event to the store and publishes it to NATS.
// Both operations are best-effort; failures are logged but do not block the caller.
func (s *FacetsServer) recordAndPublish(ctx context.Context, topic, subject, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event", "topic", topic, "subject", subject, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:   topic,
		Subject: subject,
		Actor:   actor,
		Payload: payload,
	}); err != nil {
		slog.Warn("failed to record event", "topic", topic, "subject", subject, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "subject", subject, "error", err)
	}
	s.sseHub.broadcast(topic, payload)
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// asInputError converts validation and query errors into inputError and
// passes everything else through.
func asInputError(err error) error {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return inputError(ve.Error())
	case errors.Is(err, facet.ErrUnknownDimension), errors.Is(err, facet.ErrKindMismatch),
		errors.Is(err, facet.ErrInvalidValue),
		errors.Is(err, provider.ErrNoViewer), errors.Is(err, provider.ErrInvalidRequest):
		return inputError(err.Error())
	}
	return err
}

// search runs a provider search after checking the requested facets.
func (s *FacetsServer) search(ctx context.Context, q facet.Query, facetNames []string, viewer string) (*provider.Result, error) {
	req := provider.Request{Query: q, Viewer: viewer}
	for _, name := range facetNames {
		d, err := facet.ParseDimension(strings.TrimSpace(name))
		if err != nil {
			return nil, inputError(err.Error())
		}
		req.Facets = append(req.Facets, d)
	}
	res, err := s.provider.Search(ctx, req)
	if err != nil {
		var ie inputError
		if errors.As(asInputError(err), &ie) {
			return nil, ie
		}
		return nil, fmt.Errorf("search: %w", err)
	}
	return res, nil
}

// errNoValueSearch is returned when the configured provider cannot search
// facet values.
var errNoValueSearch = errors.New("facet value search is not supported by this provider")

// searchValues runs a facet value search for the facet named facetName.
func (s *FacetsServer) searchValues(ctx context.Context, q facet.Query, facetName, text, viewer string) ([]provider.ValueMatch, error) {
	vs, ok := s.provider.(provider.ValueSearcher)
	if !ok {
		return nil, errNoValueSearch
	}
	d, err := facet.ParseDimension(strings.TrimSpace(facetName))
	if err != nil {
		return nil, inputError(err.Error())
	}
	matches, err := vs.SearchValues(ctx, provider.ValueRequest{Dimension: d, Text: text, Query: q, Viewer: viewer})
	if err != nil {
		var ie inputError
		if errors.As(asInputError(err), &ie) {
			return nil, ie
		}
		return nil, fmt.Errorf("search values: %w", err)
	}
	if matches == nil {
		matches = []provider.ValueMatch{}
	}
	return matches, nil
}

// createIssue assigns a key, validates, persists and announces an issue.
func (s *FacetsServer) createIssue(ctx context.Context, is *model.Issue, actor string) (*model.Issue, error) {
	if is.Key == "" {
		key, err := idgen.IssueKey()
		if err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}
		is.Key = key
	}
	if is.Status == "" {
		is.Status = model.StatusOpen
	}
	if is.Scope == "" {
		is.Scope = model.ScopeMain
	}
	if is.CreatedAt.IsZero() {
		is.CreatedAt = time.Now().UTC()
	}
	if err := model.ValidateIssue(is); err != nil {
		return nil, asInputError(err)
	}
	if err := s.store.CreateIssue(ctx, is); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicIssueCreated, is.Key, actor, events.IssueCreated{Issue: is})
	return is, nil
}

// deleteIssue removes an issue. A missing key returns sql.ErrNoRows.
func (s *FacetsServer) deleteIssue(ctx context.Context, key, actor string) error {
	if err := s.store.DeleteIssue(ctx, key); err != nil {
		return err
	}
	s.recordAndPublish(ctx, events.TopicIssueDeleted, key, actor, events.IssueDeleted{Key: key})
	return nil
}

// setNewCodePeriod validates p against the saved definition and stores it.
// The read and the write share a transaction so the compliance exemption
// is checked against the value actually being replaced.
func (s *FacetsServer) setNewCodePeriod(ctx context.Context, p model.NewCodePeriod, actor string) (*model.NewCodePeriod, error) {
	p.Value = strings.TrimSpace(p.Value)
	var previous *model.NewCodePeriod
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		saved, err := tx.GetNewCodePeriod(ctx)
		if err != nil {
			return fmt.Errorf("get new code period: %w", err)
		}
		if err := newcode.ValidatePeriod(p, *saved, s.bounds); err != nil {
			return err
		}
		previous = saved
		return tx.SetNewCodePeriod(ctx, &p)
	})
	if err != nil {
		return nil, asInputError(err)
	}
	s.recordAndPublish(ctx, events.TopicNewCodePeriodUpdated, "new_code_period", actor,
		events.NewCodePeriodUpdated{Period: &p, Previous: previous})
	return &p, nil
}

// setWorkspace stores the workspace flags and announces the change.
func (s *FacetsServer) setWorkspace(ctx context.Context, w model.Workspace, actor string) (*model.Workspace, error) {
	if err := s.store.SetWorkspace(ctx, &w); err != nil {
		return nil, fmt.Errorf("set workspace: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicWorkspaceUpdated, "workspace", actor, events.WorkspaceUpdated{Workspace: &w})
	return &w, nil
}

func isNotFound(err error) bool { return errors.Is(err, sql.ErrNoRows) }
