package api

import (
	"context"
	"net/http"
	"net/url"
)

// Request is the canonical, transport-independent view of an incoming
// request. A transport adapter builds one from its host representation;
// the body must be fully read before dispatch.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte

	// PathParams holds the decoded values captured by the matched pattern.
	// It is populated by the dispatcher, not the adapter.
	PathParams map[string]string
}

// Response is the canonical, transport-independent response. Body is
// JSON-encoded by the adapter unless it is nil, []byte, or string.
type Response struct {
	Status int
	Header http.Header
	Body   any
}

// NewResponse returns a response with the given status and body and an
// initialized header collection.
func NewResponse(status int, body any) *Response {
	return &Response{Status: status, Header: make(http.Header), Body: body}
}

// SetHeader sets a response header, allocating the collection if needed.
func (r *Response) SetHeader(key, value string) {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
}

// Input is what a handler receives: fully validated, typed values. The
// dispatcher never invokes a handler with input that failed validation.
type Input struct {
	// Params holds the merged path+query record after schema parsing.
	// Values carry the types the params schema produced (int64 for Int(),
	// bool for Bool(), ...).
	Params map[string]any

	// Body holds the parsed request body if the route declares a body
	// schema, nil otherwise.
	Body any

	// Request is the canonical request, for headers and raw access.
	Request *Request
}

// StringParam returns a string-typed parameter value.
func (in *Input) StringParam(name string) string {
	v, _ := in.Params[name].(string)
	return v
}

// IntParam returns an integer-typed parameter value.
func (in *Input) IntParam(name string) int64 {
	v, _ := in.Params[name].(int64)
	return v
}

// BoolParam returns a boolean-typed parameter value.
func (in *Input) BoolParam(name string) bool {
	v, _ := in.Params[name].(bool)
	return v
}

// HandlerFunc is the route handler signature. The dispatcher owns routing
// and validation — handlers see typed input and return a canonical response
// with one of the route's declared statuses, or an error for the error
// translation path.
type HandlerFunc func(ctx context.Context, in *Input) (*Response, error)
