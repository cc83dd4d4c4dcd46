package events

import "context"

// NoopPublisher drops every event. It stands in when FACETS_NATS_URL is unset.
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (n *NoopPublisher) Close() error { return nil }
