package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// StreamEvents connects to GET /v1/events/stream and calls fn for every
// event until ctx is done, the server closes the stream, or fn returns an
// error. An empty topics list subscribes to everything. Returns nil when
// ctx is cancelled.
func (c *HTTPClient) StreamEvents(ctx context.Context, topics []string, fn func(StreamEvent) error) error {
	path := "/v1/events/stream"
	if len(topics) > 0 {
		path += "?" + url.Values{"topics": {strings.Join(topics, ",")}}.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, c.viewer, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return apiError(resp.StatusCode, body)
	}

	err = readSSE(resp.Body, fn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readSSE parses a text/event-stream body. Comment lines (keepalives) are
// skipped; an event is dispatched on the blank line that ends it.
func readSSE(r io.Reader, fn func(StreamEvent) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var evt StreamEvent
	var data []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if len(data) > 0 {
				evt.Data = []byte(strings.Join(data, "\n"))
				if err := fn(evt); err != nil {
					return err
				}
			}
			evt, data = StreamEvent{}, nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			evt.ID = value
		case "event":
			evt.Topic = value
		case "data":
			data = append(data, value)
		}
	}
	return sc.Err()
}
