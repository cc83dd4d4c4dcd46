package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
)

// viewerHeader carries the login used for "only mine" searches and as the
// actor of mutations.
const viewerHeader = "X-Facets-User"

// HTTPClient implements FacetsClient using the HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	viewer     string
	httpClient *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithViewer sets the login sent with every request. A provider.Request
// carrying its own viewer overrides it for that search.
func WithViewer(login string) Option {
	return func(c *HTTPClient) { c.viewer = login }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Search ---

// Search implements provider.Provider against GET /v1/issues/search.
func (c *HTTPClient) Search(ctx context.Context, req provider.Request) (*provider.Result, error) {
	q := req.Query.Values()
	if len(req.Facets) > 0 {
		names := make([]string, len(req.Facets))
		for i, d := range req.Facets {
			names[i] = string(d)
		}
		q.Set("facets", strings.Join(names, ","))
	}

	path := "/v1/issues/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	viewer := req.Viewer
	if viewer == "" {
		viewer = c.viewer
	}
	var res provider.Result
	if err := c.do(ctx, http.MethodGet, path, viewer, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SearchValues implements provider.ValueSearcher against
// GET /v1/issues/facet_values.
func (c *HTTPClient) SearchValues(ctx context.Context, req provider.ValueRequest) ([]provider.ValueMatch, error) {
	q := req.Query.Values()
	q.Set("facet", string(req.Dimension))
	if req.Text != "" {
		q.Set("q", req.Text)
	}

	viewer := req.Viewer
	if viewer == "" {
		viewer = c.viewer
	}
	var resp struct {
		Values []provider.ValueMatch `json:"values"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/issues/facet_values?"+q.Encode(), viewer, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// --- Issues ---

func (c *HTTPClient) CreateIssue(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	var out model.Issue
	if err := c.doJSON(ctx, http.MethodPost, "/v1/issues", issue, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetIssue(ctx context.Context, key string) (*model.Issue, error) {
	var out model.Issue
	if err := c.doJSON(ctx, http.MethodGet, "/v1/issues/"+url.PathEscape(key), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteIssue(ctx context.Context, key string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/issues/"+url.PathEscape(key), nil, nil)
}

func (c *HTTPClient) GetIssueEvents(ctx context.Context, key string) ([]*model.Event, error) {
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/issues/"+url.PathEscape(key)+"/events", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Settings ---

func (c *HTTPClient) GetNewCodePeriod(ctx context.Context) (*model.NewCodePeriod, error) {
	var out model.NewCodePeriod
	if err := c.doJSON(ctx, http.MethodGet, "/v1/settings/new_code_period", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetNewCodePeriod saves p and returns the stored definition. It satisfies
// newcode.Saver.
func (c *HTTPClient) SetNewCodePeriod(ctx context.Context, p model.NewCodePeriod) (*model.NewCodePeriod, error) {
	var out model.NewCodePeriod
	if err := c.doJSON(ctx, http.MethodPut, "/v1/settings/new_code_period", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetWorkspace(ctx context.Context) (*model.Workspace, error) {
	var out model.Workspace
	if err := c.doJSON(ctx, http.MethodGet, "/v1/workspace", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SetWorkspace(ctx context.Context, w model.Workspace) (*model.Workspace, error) {
	var out model.Workspace
	if err := c.doJSON(ctx, http.MethodPut, "/v1/workspace", w, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Health ---

// Health returns the server health report. The report is returned even
// when the node is degraded; only transport and auth failures are errors.
func (c *HTTPClient) Health(ctx context.Context) (*HealthReport, error) {
	var resp HealthReport
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsBadRequest reports whether err is a 400 from the server.
func IsBadRequest(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	return c.do(ctx, method, path, c.viewer, body, result)
}

// do performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) do(ctx context.Context, method, path, viewer string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, viewer, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path, viewer string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if viewer != "" {
		req.Header.Set(viewerHeader, viewer)
	}
	return req, nil
}

func apiError(status int, body []byte) *APIError {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: status, Message: errResp.Error}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}
