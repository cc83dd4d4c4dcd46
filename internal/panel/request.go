package panel

import (
	"context"
	"slices"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/idgen"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
)

// search sends the composed query with every expanded facet plus the code
// variant facet, whose counts decide its visibility. When the selection
// changed, counts held by collapsed facets become stale, and pending facet
// fetches and value searches for the old selection are abandoned.
func (p *Panel) search(ctx context.Context, changed bool) {
	p.seq++
	seq := p.seq

	var dims []facet.Dimension
	for _, d := range facet.PanelFacets() {
		f := p.facets[d]
		if changed {
			f.stale = true
			f.search = searchState{}
		}
		if !f.state.Expanded() && d != facet.CodeVariant {
			if changed {
				f.gen = 0
			}
			continue
		}
		f.gen = seq
		if f.state.Expanded() {
			f.state = ExpandedLoading
		}
		dims = append(dims, d)
	}

	p.list.gen = seq
	p.list.loading = true

	q := facet.Compose(p.sel)
	q.PageSize = p.opts.PageSize
	p.dispatch(ctx, seq, provider.Request{Query: q, Facets: dims, Viewer: p.opts.Viewer})
}

// fetchFacet loads the counts of a single facet for the current selection.
func (p *Panel) fetchFacet(ctx context.Context, d facet.Dimension) {
	p.seq++
	p.facets[d].gen = p.seq

	q := facet.Compose(p.sel)
	q.PageSize = 1
	p.dispatch(ctx, p.seq, provider.Request{Query: q, Facets: []facet.Dimension{d}, Viewer: p.opts.Viewer})
}

// searchValues starts a value search on d, superseding any earlier one.
func (p *Panel) searchValues(ctx context.Context, vs provider.ValueSearcher, d facet.Dimension, text string) {
	p.seq++
	seq := p.seq
	p.facets[d].search = searchState{text: text, gen: seq}

	req := provider.ValueRequest{Dimension: d, Text: text, Query: facet.Compose(p.sel), Viewer: p.opts.Viewer}
	p.start(ctx, seq, "value search issued", func(rctx context.Context) response {
		matches, err := vs.SearchValues(rctx, req)
		return response{values: &req, matches: matches, err: err}
	})
}

func (p *Panel) dispatch(ctx context.Context, seq uint64, req provider.Request) {
	p.start(ctx, seq, "search issued", func(rctx context.Context) response {
		res, err := p.provider.Search(rctx, req)
		return response{req: req, res: res, err: err}
	})
}

// start runs one provider call on its own goroutine and hands the response
// to the run loop, unless the panel is unmounted first.
func (p *Panel) start(ctx context.Context, seq uint64, msg string, call func(context.Context) response) {
	rctx, cancel := context.WithCancel(ctx)
	p.inflight[seq] = cancel
	id := idgen.RequestID()
	p.logger.Debug(msg, "request", id, "seq", seq)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		r := call(rctx)
		r.id, r.seq = id, seq
		select {
		case p.results <- r:
		case <-ctx.Done():
		}
	}()
}

// apply merges a response into the parts of the state still waiting for it.
func (p *Panel) apply(r response) {
	if cancel, ok := p.inflight[r.seq]; ok {
		cancel()
		delete(p.inflight, r.seq)
	}
	if r.values != nil {
		p.applyValues(r)
		return
	}

	used := false
	if p.list.gen == r.seq {
		used = true
		p.list.loading = false
		if r.err != nil {
			p.logger.Warn("issue search failed", "request", r.id, "err", r.err)
			p.list.err = r.err
			p.list.issues = nil
			p.list.total = 0
		} else {
			p.list.err = nil
			p.list.issues = r.res.Issues
			p.list.total = r.res.Total
		}
	}

	for _, d := range r.req.Facets {
		f := p.facets[d]
		if f == nil || f.gen != r.seq {
			continue
		}
		used = true
		f.gen = 0
		if f.state == ExpandedLoading {
			f.state = ExpandedLoaded
		}
		if r.err != nil {
			if p.list.gen != r.seq {
				p.logger.Warn("facet fetch failed", "request", r.id, "facet", d, "err", r.err)
			}
			continue
		}
		f.counts = r.res.Facets[d]
		f.loaded = true
		f.stale = false
	}

	if !used {
		p.logger.Debug("superseded response discarded", "request", r.id, "seq", r.seq)
	}
}

func (p *Panel) applyValues(r response) {
	f := p.facets[r.values.Dimension]
	if f == nil || f.search.gen != r.seq {
		p.logger.Debug("superseded value search discarded", "request", r.id, "seq", r.seq)
		return
	}
	f.search.gen = 0
	f.search.matches, f.search.err = r.matches, r.err
	if r.err != nil {
		p.logger.Warn("value search failed", "request", r.id, "facet", r.values.Dimension, "err", r.err)
	}
}

// sweep cancels in-flight requests nothing waits for any more.
func (p *Panel) sweep() {
	for seq, cancel := range p.inflight {
		if p.list.gen == seq {
			continue
		}
		waiting := false
		for _, f := range p.facets {
			if f.gen == seq || f.search.gen == seq {
				waiting = true
				break
			}
		}
		if waiting {
			continue
		}
		cancel()
		delete(p.inflight, seq)
		p.logger.Debug("request superseded", "seq", seq)
	}
}

func (p *Panel) publish() {
	v := p.snapshot()
	select {
	case <-p.views:
	default:
	}
	p.views <- v
}

func (p *Panel) snapshot() View {
	counts := facet.Counts{facet.CodeVariant: p.facets[facet.CodeVariant].counts}
	v := View{
		Selection: p.sel,
		Query:     facet.Compose(p.sel),
		Flags:     p.flags,
		Issues:    slices.Clone(p.list.issues),
		Total:     p.list.total,
		Loading:   p.list.loading,
		Err:       p.list.err,
	}
	for _, d := range facet.PanelFacets() {
		f := p.facets[d]
		v.Facets = append(v.Facets, FacetView{
			Dimension: d,
			State:     f.state,
			Stale:     f.stale,
			Visible:   facet.Visible(d, p.flags, counts),
			Counts:    slices.Clone(f.counts),
			Search:    f.search.view(),
		})
	}
	return v
}

func (s searchState) view() *ValueSearch {
	if s.text == "" {
		return nil
	}
	return &ValueSearch{
		Text:    s.text,
		Loading: s.gen != 0,
		Matches: slices.Clone(s.matches),
		Err:     s.err,
	}
}
