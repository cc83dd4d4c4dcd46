package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// WatchWorkspace calls fn with every workspace update received on sub until
// ctx is done. Undecodable payloads are logged and skipped.
func WatchWorkspace(ctx context.Context, sub Subscriber, logger *slog.Logger, fn func(model.Workspace)) error {
	ch, cancel, err := sub.Subscribe(TopicWorkspaceUpdated)
	if err != nil {
		return fmt.Errorf("watch workspace: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			var evt WorkspaceUpdated
			if err := json.Unmarshal(data, &evt); err != nil || evt.Workspace == nil {
				logger.Warn("dropping malformed workspace event", "err", err, "bytes", len(data))
				continue
			}
			fn(*evt.Workspace)
		}
	}
}
