package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/issuefacets/internal/client"
	"github.com/alfredjeanlab/issuefacets/internal/events"
	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/panel"
)

// issueTopics matches issue creation and deletion.
const issueTopics = "facets.issue.>"

var watchFilters *filterFlags

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Search, then refresh whenever issues or the workspace change",
	GroupID: "issues",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		acts, err := watchFilters.actions()
		if err != nil {
			return err
		}
		opts, err := panelOptions(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ws, err := facetsClient.GetWorkspace(ctx)
		if err != nil {
			return err
		}
		opts.Workspace = *ws

		pn := panel.New(facetsClient, opts, slog.Default())
		done := make(chan error, 1)
		go func() { done <- pn.Run(ctx) }()
		defer func() {
			stop()
			<-done
		}()
		for _, a := range acts {
			if err := pn.Do(ctx, a); err != nil {
				return err
			}
		}

		changes := make(chan change, 16)
		feedErr := make(chan error, 1)
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = loadActiveRemote().NATSURL
		}
		go func() {
			if natsURL != "" {
				feedErr <- watchNATS(ctx, natsURL, changes)
				return
			}
			feedErr <- watchSSE(ctx, facetsClient, changes)
		}()

		return watchLoop(ctx, cmd.OutOrStdout(), pn, changes, feedErr)
	},
}

// change is a notification from the event feed. A nil workspace means the
// issue set changed.
type change struct {
	workspace *model.Workspace
}

// watchLoop re-runs the search after issue changes, applies workspace
// updates, and prints every settled view that differs from the last one.
func watchLoop(ctx context.Context, w io.Writer, pn *panel.Panel, changes <-chan change, feedErr <-chan error) error {
	debounce := time.NewTimer(0)
	debounce.Stop()
	select {
	case <-debounce.C:
	default:
	}

	var last []byte
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-feedErr:
			if ctx.Err() != nil {
				return nil
			}
			if err == nil {
				return fmt.Errorf("event stream closed")
			}
			return err
		case c := <-changes:
			if c.workspace != nil {
				if err := pn.SetWorkspace(ctx, *c.workspace); err != nil && ctx.Err() == nil {
					return err
				}
				continue
			}
			debounce.Reset(200 * time.Millisecond)
		case <-debounce.C:
			if err := pn.Retry(ctx); err != nil && ctx.Err() == nil {
				return err
			}
		case v := <-pn.Views():
			if !settled(v) {
				continue
			}
			if v.Err != nil {
				slog.Warn("search failed", "err", v.Err)
				continue
			}
			var buf bytes.Buffer
			if jsonOutput {
				if err := printViewJSON(&buf, v); err != nil {
					return err
				}
			} else {
				printView(&buf, v)
			}
			if bytes.Equal(buf.Bytes(), last) {
				continue
			}
			last = buf.Bytes()
			if !jsonOutput {
				fmt.Fprintf(w, "--- %s\n", time.Now().Format("15:04:05"))
			}
			_, _ = w.Write(last)
		}
	}
}

// watchSSE feeds changes from the server's event stream.
func watchSSE(ctx context.Context, c client.FacetsClient, changes chan<- change) error {
	topics := []string{issueTopics, events.TopicWorkspaceUpdated}
	return c.StreamEvents(ctx, topics, func(e client.StreamEvent) error {
		ch := change{}
		if e.Topic == events.TopicWorkspaceUpdated {
			var evt events.WorkspaceUpdated
			if err := json.Unmarshal(e.Data, &evt); err != nil || evt.Workspace == nil {
				slog.Warn("dropping malformed workspace event", "id", e.ID, "err", err)
				return nil
			}
			ch.workspace = evt.Workspace
		}
		select {
		case changes <- ch:
		case <-ctx.Done():
		}
		return nil
	})
}

// watchNATS feeds changes from NATS. A reconnect counts as an issue change
// so that events missed while disconnected are picked up.
func watchNATS(ctx context.Context, natsURL string, changes chan<- change) error {
	send := func(c change) {
		select {
		case changes <- c:
		case <-ctx.Done():
		}
	}

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats: disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("nats: reconnected")
			send(change{})
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(issueTopics)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	wsErr := make(chan error, 1)
	go func() {
		wsErr <- events.WatchWorkspace(ctx, sub, slog.Default(), func(ws model.Workspace) {
			send(change{workspace: &ws})
		})
	}()

	for {
		select {
		case <-ctx.Done():
			<-wsErr
			return nil
		case err := <-wsErr:
			return err
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			send(change{})
		}
	}
}

func init() {
	watchFilters = addFilterFlags(watchCmd)
	addPanelFlags(watchCmd)
	watchCmd.Flags().String("nats", "", "NATS URL to receive events from (default: server event stream)")
}
