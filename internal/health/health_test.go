package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/issuefacets/internal/issuetest"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
)

func fixed(s Status) Check {
	return CheckFunc(func(context.Context) Status { return s })
}

func TestLiveness(t *testing.T) {
	for _, tc := range []struct {
		name    string
		checker Checker
		want    bool
	}{
		{"AllGreen", Checker{DB: fixed(Green), Web: fixed(Green), Events: fixed(Green)}, true},
		{"NilChecksAreGreen", Checker{}, true},
		{"DBRed", Checker{DB: fixed(Red), Web: fixed(Green), Events: fixed(Green)}, false},
		{"DBYellow", Checker{DB: fixed(Yellow), Web: fixed(Green), Events: fixed(Green)}, false},
		{"WebRed", Checker{DB: fixed(Green), Web: fixed(Red), Events: fixed(Green)}, false},
		{"EventsYellow", Checker{DB: fixed(Green), Web: fixed(Green), Events: fixed(Yellow)}, false},
		{"SearchRedIgnoredWhenNotStandalone", Checker{Search: fixed(Red)}, true},
		{"SearchRedStandalone", Checker{Search: fixed(Red), Standalone: true}, false},
		{"SearchYellowStandalone", Checker{Search: fixed(Yellow), Standalone: true}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.checker.Liveness(context.Background()); got != tc.want {
				t.Errorf("Liveness() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateReport(t *testing.T) {
	c := Checker{DB: fixed(Green), Web: fixed(Red), Standalone: true, Search: fixed(Yellow)}
	r := c.Evaluate(context.Background())
	if r.Alive {
		t.Error("expected not alive")
	}
	want := map[string]Status{"db": Green, "web": Red, "events": Green, "search": Yellow}
	for k, v := range want {
		if r.Checks[k] != v {
			t.Errorf("Checks[%s] = %s, want %s", k, r.Checks[k], v)
		}
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestPingCheck(t *testing.T) {
	if got := PingCheck(pinger{}).Check(context.Background()); got != Green {
		t.Errorf("healthy ping = %s, want GREEN", got)
	}
	if got := PingCheck(pinger{err: errors.New("down")}).Check(context.Background()); got != Red {
		t.Errorf("failing ping = %s, want RED", got)
	}
}

func TestProviderCheck(t *testing.T) {
	ok := provider.NewMemory(issuetest.Fixture())
	if got := ProviderCheck(ok).Check(context.Background()); got != Green {
		t.Errorf("memory provider = %s, want GREEN", got)
	}
	failing := provider.Func(func(context.Context, provider.Request) (*provider.Result, error) {
		return nil, errors.New("index unavailable")
	})
	if got := ProviderCheck(failing).Check(context.Background()); got != Red {
		t.Errorf("failing provider = %s, want RED", got)
	}
}

func TestFlag(t *testing.T) {
	var f Flag
	if f.Check(context.Background()) != Red {
		t.Fatal("zero Flag should be RED")
	}
	f.Set(true)
	if f.Check(context.Background()) != Green {
		t.Fatal("set Flag should be GREEN")
	}
}

func TestCheckTimeout(t *testing.T) {
	slow := CheckFunc(func(ctx context.Context) Status {
		<-ctx.Done()
		return Red
	})
	c := Checker{DB: slow, Timeout: 10 * time.Millisecond}
	if c.Liveness(context.Background()) {
		t.Fatal("expected timed out check to fail liveness")
	}
}

func TestWatchReportsChanges(t *testing.T) {
	var web Flag
	web.Set(true)
	c := Checker{Web: &web}

	var (
		mu  sync.Mutex
		got []bool
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Watch(ctx, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)), func(alive bool) {
			mu.Lock()
			got = append(got, alive)
			mu.Unlock()
		})
	}()

	waitFor := func(n int) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			mu.Lock()
			l := len(got)
			mu.Unlock()
			if l >= n {
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
		t.Fatalf("timed out waiting for %d notifications", n)
	}

	waitFor(1)
	web.Set(false)
	waitFor(2)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("notifications = %v, want [true false]", got)
	}
}
