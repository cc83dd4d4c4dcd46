package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
)

var (
	// ErrClosed is returned by calls made after the panel stopped running.
	ErrClosed = errors.New("panel closed")
	// ErrNoValueSearch is returned by SearchValues when the provider
	// cannot search facet values.
	ErrNoValueSearch = errors.New("provider cannot search facet values")
)

// DefaultExpanded lists the facets shown expanded on mount.
var DefaultExpanded = []facet.Dimension{facet.Type, facet.Severity}

// Options configure a Panel.
type Options struct {
	// Expanded facets on mount. Nil means DefaultExpanded.
	Expanded []facet.Dimension
	// PageSize of the issue list; 0 leaves the provider default.
	PageSize int
	// Viewer is the logged in user, empty when anonymous.
	Viewer string
	// Workspace flags at mount.
	Workspace model.Workspace
}

// Panel owns the issues page state. All state is confined to the goroutine
// executing Run; the exported methods hand work to it over a channel.
type Panel struct {
	provider provider.Provider
	logger   *slog.Logger
	opts     Options

	cmds  chan command
	views chan View
	done  chan struct{}

	// Owned by Run.
	ctx      context.Context
	sel      facet.Selection
	flags    facet.Flags
	facets   map[facet.Dimension]*facetState
	list     listState
	seq      uint64
	inflight map[uint64]context.CancelFunc
	results  chan response
	wg       sync.WaitGroup
}

type listState struct {
	gen     uint64
	loading bool
	issues  []*model.Issue
	total   int
	err     error
}

type command struct {
	fn    func() error
	reply chan error
}

type response struct {
	id  string
	seq uint64
	req provider.Request
	res *provider.Result
	err error

	// Set for facet value searches instead of req and res.
	values  *provider.ValueRequest
	matches []provider.ValueMatch
}

// New creates a Panel. Call Run to mount it.
func New(p provider.Provider, opts Options, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	expanded := opts.Expanded
	if expanded == nil {
		expanded = DefaultExpanded
	}
	facets := make(map[facet.Dimension]*facetState)
	for _, d := range facet.PanelFacets() {
		facets[d] = &facetState{}
	}
	for _, d := range expanded {
		if f, ok := facets[d]; ok {
			f.state = ExpandedLoading
		}
	}
	return &Panel{
		provider: p,
		logger:   logger,
		opts:     opts,
		cmds:     make(chan command),
		views:    make(chan View, 1),
		done:     make(chan struct{}),
		flags: facet.Flags{
			NeedIssueSync: opts.Workspace.NeedIssueSync,
			Anonymous:     opts.Viewer == "",
		},
		facets:   facets,
		inflight: make(map[uint64]context.CancelFunc),
		results:  make(chan response),
	}
}

// Run mounts the panel: it issues the initial search and processes actions
// and responses until ctx is cancelled. On return every in-flight request
// has been cancelled and its goroutine has exited.
func (p *Panel) Run(ctx context.Context) error {
	defer close(p.done)
	defer p.wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.ctx = ctx

	p.search(ctx, false)
	p.publish()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("panel unmounted", "inflight", len(p.inflight))
			return nil
		case c := <-p.cmds:
			err := c.fn()
			if err == nil {
				p.sweep()
			}
			c.reply <- err
			p.publish()
		case r := <-p.results:
			p.apply(r)
			p.sweep()
			p.publish()
		}
	}
}

// Views delivers the latest snapshot after each change. Intermediate
// snapshots are dropped when the reader falls behind.
func (p *Panel) Views() <-chan View { return p.views }

// Do applies a user action to the selection. A change of the selection
// issues exactly one search; an action that leaves the selection as is
// issues none.
func (p *Panel) Do(ctx context.Context, a facet.Action) error {
	return p.call(ctx, func() error {
		next, err := facet.Reduce(p.sel, a)
		if err != nil {
			return err
		}
		if next.Equal(p.sel) {
			return nil
		}
		p.sel = next
		p.search(p.ctx, true)
		return nil
	})
}

// Expand shows the value list of d, fetching its counts when they are stale
// or were never loaded.
func (p *Panel) Expand(ctx context.Context, d facet.Dimension) error {
	return p.call(ctx, func() error {
		f, err := p.facet(d)
		if err != nil {
			return err
		}
		if f.state.Expanded() {
			return nil
		}
		if f.loaded && !f.stale {
			f.state = ExpandedLoaded
			return nil
		}
		f.state = ExpandedLoading
		p.fetchFacet(p.ctx, d)
		return nil
	})
}

// Collapse hides the value list of d.
func (p *Panel) Collapse(ctx context.Context, d facet.Dimension) error {
	return p.call(ctx, func() error {
		f, err := p.facet(d)
		if err != nil {
			return err
		}
		f.state = Collapsed
		return nil
	})
}

// Retry re-issues the search for the current selection.
func (p *Panel) Retry(ctx context.Context) error {
	return p.call(ctx, func() error {
		p.search(p.ctx, false)
		return nil
	})
}

// SearchValues looks up the values of facet d containing text, within the
// issues the current selection matches on every other dimension. The
// result shows up in the facet's view. An empty text ends the search, and
// so does any change of the selection.
func (p *Panel) SearchValues(ctx context.Context, d facet.Dimension, text string) error {
	vs, ok := p.provider.(provider.ValueSearcher)
	if !ok {
		return ErrNoValueSearch
	}
	return p.call(ctx, func() error {
		f, err := p.facet(d)
		if err != nil {
			return err
		}
		if d.Kind() != facet.Multi {
			return fmt.Errorf("%w: %s has no searchable values", facet.ErrKindMismatch, d)
		}
		if text == "" {
			f.search = searchState{}
			return nil
		}
		p.searchValues(p.ctx, vs, d, text)
		return nil
	})
}

// SetWorkspace applies a workspace update, e.g. reindexing started or ended.
func (p *Panel) SetWorkspace(ctx context.Context, ws model.Workspace) error {
	return p.call(ctx, func() error {
		p.flags.NeedIssueSync = ws.NeedIssueSync
		return nil
	})
}

// Snapshot returns the current view.
func (p *Panel) Snapshot(ctx context.Context) (View, error) {
	var v View
	err := p.call(ctx, func() error {
		v = p.snapshot()
		return nil
	})
	return v, err
}

func (p *Panel) call(ctx context.Context, fn func() error) error {
	c := command{fn: fn, reply: make(chan error, 1)}
	select {
	case p.cmds <- c:
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.reply:
		return err
	case <-p.done:
		return ErrClosed
	}
}

func (p *Panel) facet(d facet.Dimension) (*facetState, error) {
	f, ok := p.facets[d]
	if !ok {
		return nil, facet.ErrUnknownDimension
	}
	return f, nil
}
