// Package health decides whether this node is alive from the status of the
// components it depends on.
package health

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
)

// Status of a single node check.
type Status int

const (
	Green Status = iota + 1
	Yellow
	Red
)

func (s Status) String() string {
	switch s {
	case Green:
		return "GREEN"
	case Yellow:
		return "YELLOW"
	case Red:
		return "RED"
	}
	return "UNKNOWN"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Check reports the status of one component.
type Check interface {
	Check(ctx context.Context) Status
}

// CheckFunc adapts a function to Check.
type CheckFunc func(ctx context.Context) Status

func (f CheckFunc) Check(ctx context.Context) Status { return f(ctx) }

// Pinger is satisfied by store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck is Green when p answers and Red otherwise.
func PingCheck(p Pinger) Check {
	return CheckFunc(func(ctx context.Context) Status {
		if err := p.Ping(ctx); err != nil {
			return Red
		}
		return Green
	})
}

// ProviderCheck runs a one-row unfiltered search. A failing search is Red.
func ProviderCheck(p provider.Provider) Check {
	return CheckFunc(func(ctx context.Context) Status {
		req := provider.Request{Query: facet.Query{Paging: facet.Paging{Page: 1, PageSize: 1}}}
		if _, err := p.Search(ctx, req); err != nil {
			return Red
		}
		return Green
	})
}

// Flag is a Check driven by the owner of a component, e.g. the web server
// flips it once it is listening. The zero value is Red.
type Flag struct {
	up atomic.Bool
}

func (f *Flag) Set(up bool) { f.up.Store(up) }

func (f *Flag) Check(context.Context) Status {
	if f.up.Load() {
		return Green
	}
	return Red
}

// Checker combines the node checks. Nil checks count as Green.
type Checker struct {
	DB     Check
	Web    Check
	Events Check
	Search Check

	// Standalone means the search provider runs in this process, so its
	// failure takes the node down.
	Standalone bool

	// Timeout bounds each check; zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds a single check.
const DefaultTimeout = 5 * time.Second

// Report is the per-component outcome of one evaluation.
type Report struct {
	Alive  bool              `json:"alive"`
	Checks map[string]Status `json:"checks"`
}

// Liveness reports whether the node is alive: the database, web server and
// event bus must all be Green, and in standalone mode the search provider
// must not be Red.
func (c *Checker) Liveness(ctx context.Context) bool {
	return c.Evaluate(ctx).Alive
}

// Evaluate runs every check and records the result of each.
func (c *Checker) Evaluate(ctx context.Context) Report {
	r := Report{Alive: true, Checks: make(map[string]Status, 4)}
	for _, nc := range []struct {
		name  string
		check Check
	}{
		{"db", c.DB},
		{"web", c.Web},
		{"events", c.Events},
	} {
		st := c.run(ctx, nc.check)
		r.Checks[nc.name] = st
		if st != Green {
			r.Alive = false
		}
	}
	if c.Standalone {
		st := c.run(ctx, c.Search)
		r.Checks["search"] = st
		if st == Red {
			r.Alive = false
		}
	}
	return r
}

func (c *Checker) run(ctx context.Context, check Check) Status {
	if check == nil {
		return Green
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return check.Check(ctx)
}

// Watch evaluates the checker every interval and calls fn with the liveness
// whenever it changes, starting with the first evaluation. It returns when
// ctx is done.
func (c *Checker) Watch(ctx context.Context, interval time.Duration, logger *slog.Logger, fn func(alive bool)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	first := true
	var last bool
	for {
		r := c.Evaluate(ctx)
		if first || r.Alive != last {
			if !r.Alive {
				logger.Warn("liveness check failed", "checks", r.Checks)
			} else if !first {
				logger.Info("liveness restored")
			}
			fn(r.Alive)
			first, last = false, r.Alive
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
