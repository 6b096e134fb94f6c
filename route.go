package api

import (
	"fmt"
	"slices"
)

// Route binds an HTTP method, a compiled path pattern, input schemas,
// output schemas, a handler, and documentation metadata into one immutable
// unit. Routes are created at startup and shared read-only across requests.
type Route struct {
	method  string
	path    string
	pattern *Pattern

	params  *ObjectSchema  // path + query record; nil means no declared params
	body    Schema         // request body; nil means no body schema
	outputs map[int]Schema // response schema per declared status

	handler HandlerFunc

	summary     string
	desc        string
	tags        []string
	operationID string
	deprecated  bool

	middleware []RouteMiddleware
}

// RouteOption configures a route at construction time.
type RouteOption func(*Route)

// WithParams declares the schema for the merged path+query parameter record.
func WithParams(schema *ObjectSchema) RouteOption {
	return func(rt *Route) { rt.params = schema }
}

// WithBody declares the request body schema.
func WithBody(schema Schema) RouteOption {
	return func(rt *Route) { rt.body = schema }
}

// WithOutput declares the response schema for one status code. A route may
// declare several statuses; the OpenAPI generator requires at least one.
func WithOutput(status int, schema Schema) RouteOption {
	return func(rt *Route) {
		if rt.outputs == nil {
			rt.outputs = make(map[int]Schema)
		}
		rt.outputs[status] = schema
	}
}

// WithSummary sets the OpenAPI summary for the route.
func WithSummary(s string) RouteOption {
	return func(rt *Route) { rt.summary = s }
}

// WithDescription sets the OpenAPI description for the route.
func WithDescription(d string) RouteOption {
	return func(rt *Route) { rt.desc = d }
}

// WithRouteTags adds OpenAPI tags to the route.
func WithRouteTags(tags ...string) RouteOption {
	return func(rt *Route) { rt.tags = append(rt.tags, tags...) }
}

// WithOperationID sets a custom OpenAPI operationId.
func WithOperationID(id string) RouteOption {
	return func(rt *Route) { rt.operationID = id }
}

// WithDeprecated marks the route as deprecated in the OpenAPI spec.
func WithDeprecated() RouteOption {
	return func(rt *Route) { rt.deprecated = true }
}

// WithRouteMiddleware wraps the route's handler. Middleware runs in the
// order given, after validation succeeds.
func WithRouteMiddleware(mw ...RouteMiddleware) RouteOption {
	return func(rt *Route) { rt.middleware = append(rt.middleware, mw...) }
}

// RouteMiddleware wraps a HandlerFunc. Unlike Middleware it runs inside the
// dispatch pipeline, with typed input already validated.
type RouteMiddleware func(next HandlerFunc) HandlerFunc

// NewRoute compiles the path and validates the descriptor's internal
// consistency: every pattern parameter must have a corresponding field in
// the params schema, so the runtime validator and the generated parameter
// list cannot drift apart.
func NewRoute(method, path string, h HandlerFunc, opts ...RouteOption) (*Route, error) {
	if h == nil {
		return nil, fmt.Errorf("route %s %s: nil handler", method, path)
	}

	pattern, err := Compile(path)
	if err != nil {
		return nil, fmt.Errorf("route %s %s: %w", method, path, err)
	}

	rt := &Route{
		method:  method,
		path:    path,
		pattern: pattern,
		handler: h,
	}
	for _, opt := range opts {
		opt(rt)
	}

	for _, name := range pattern.ParamNames() {
		if rt.params == nil {
			return nil, fmt.Errorf("route %s %s: %w: %q", method, path, ErrUnboundPathParam, name)
		}
		if _, ok := rt.params.Field(name); !ok {
			return nil, fmt.Errorf("route %s %s: %w: %q", method, path, ErrUnboundPathParam, name)
		}
	}

	return rt, nil
}

// Method returns the route's HTTP method.
func (rt *Route) Method() string { return rt.method }

// Path returns the route's path as written at registration.
func (rt *Route) Path() string { return rt.path }

// Pattern returns the compiled path pattern.
func (rt *Route) Pattern() *Pattern { return rt.pattern }

// OutputStatuses returns the declared response statuses in ascending order.
func (rt *Route) OutputStatuses() []int {
	statuses := make([]int, 0, len(rt.outputs))
	for status := range rt.outputs {
		statuses = append(statuses, status)
	}
	slices.Sort(statuses)
	return statuses
}

// invoke runs the route middleware chain and the handler.
func (rt *Route) invoke() HandlerFunc {
	h := rt.handler
	for i := len(rt.middleware) - 1; i >= 0; i-- {
		h = rt.middleware[i](h)
	}
	return h
}
