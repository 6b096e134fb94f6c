package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ManifestEntry describes one registered operation: the method/path pair,
// its parameter names, and whether it declares a body. The manifest is the
// shared artifact that constrains the client to the routes that actually
// exist on the server.
type ManifestEntry struct {
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	PathParams  []string `json:"pathParams,omitempty"`
	QueryParams []string `json:"queryParams,omitempty"`
	HasBody     bool     `json:"hasBody,omitempty"`
	Statuses    []int    `json:"statuses,omitempty"`
}

// Manifest is the set of operations a dispatcher exposes, serializable as
// JSON so server and client builds can share it.
type Manifest []ManifestEntry

// Manifest derives the operation manifest from the registered routes, in
// registration order.
func (r *Router) Manifest() Manifest {
	routes := r.Routes()
	m := make(Manifest, 0, len(routes))
	for _, rt := range routes {
		entry := ManifestEntry{
			Method:     rt.method,
			Path:       rt.pattern.OpenAPIPath(),
			PathParams: rt.pattern.ParamNames(),
			HasBody:    rt.body != nil,
			Statuses:   rt.OutputStatuses(),
		}
		if rt.params != nil {
			captured := make(map[string]bool)
			for _, name := range entry.PathParams {
				captured[name] = true
			}
			for _, name := range rt.params.FieldNames() {
				if !captured[name] {
					entry.QueryParams = append(entry.QueryParams, name)
				}
			}
		}
		m = append(m, entry)
	}
	return m
}

// lookup finds the manifest entry for a method and path template.
func (m Manifest) lookup(method, path string) (ManifestEntry, bool) {
	for _, entry := range m {
		if entry.Method == method && entry.Path == path {
			return entry, true
		}
	}
	return ManifestEntry{}, false
}

// Client issues requests constrained to a manifest: a call naming a
// (method, path) pair absent from the manifest fails before any I/O. In
// strict mode every response must carry the dispatcher's marker header.
type Client struct {
	baseURL  string
	manifest Manifest
	http     *http.Client
	strict   bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithStrict requires the dispatcher marker header on every response,
// failing the call with ErrMissingMarker when an intermediary answers
// instead of the engine.
func WithStrict() ClientOption {
	return func(c *Client) { c.strict = true }
}

// NewClient creates a client for the given base URL, constrained to the
// operations in the manifest.
func NewClient(baseURL string, manifest Manifest, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		manifest: manifest,
		http:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientResponse is the decoded result of a client call.
type ClientResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the response body into v.
func (cr *ClientResponse) Decode(v any) error {
	return json.Unmarshal(cr.Body, v)
}

// Call issues a request for the operation identified by method and path
// template (brace notation, as listed in the manifest). Path parameters are
// substituted from params; leftover params become query parameters. A nil
// body sends no payload.
func (c *Client) Call(ctx context.Context, method, path string, params map[string]string, body any) (*ClientResponse, error) {
	entry, ok := c.manifest.lookup(method, path)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownOperation, method, path)
	}

	target, err := c.buildURL(entry, params)
	if err != nil {
		return nil, err
	}

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // read to completion below

	if c.strict && resp.Header.Get(MarkerHeader) != MarkerValue {
		return nil, fmt.Errorf("%w: %s %s", ErrMissingMarker, method, path)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &ClientResponse{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   raw,
	}, nil
}

// buildURL substitutes path parameters into the template and appends the
// rest as query parameters.
func (c *Client) buildURL(entry ManifestEntry, params map[string]string) (string, error) {
	captured := make(map[string]bool, len(entry.PathParams))
	path := entry.Path
	for _, name := range entry.PathParams {
		value, ok := params[name]
		if !ok {
			return "", fmt.Errorf("missing path parameter %q for %s %s", name, entry.Method, entry.Path)
		}
		captured[name] = true
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}

	query := make(url.Values)
	for name, value := range params {
		if !captured[name] {
			query.Set(name, value)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target, nil
}
