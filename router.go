package api

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Marker header attached to every response produced through the dispatch
// path. A strict-mode client requires it to confirm it is talking to this
// engine rather than an intermediary.
const (
	MarkerHeader = "X-Routeline"
	MarkerValue  = "v1"
)

// DefaultSpecPath is the well-known location the OpenAPI document is served
// from unless overridden with WithSpecPath.
const DefaultSpecPath = "/.well-known/openapi.json"

// Router holds the routing trie, the registered route descriptors, and
// configuration. Registration must complete before dispatch begins; after
// that the trie is read-only and dispatch is safe for concurrent use.
// Router implements http.Handler through its transport adapter.
type Router struct {
	root   *trieNode
	routes []*Route

	middleware []Middleware

	title          string
	version        string
	specPath       string
	strictStatuses bool
	errorHandler   ErrorHandler

	mu sync.Mutex
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTitle sets the API title (used in the OpenAPI document).
func WithTitle(title string) RouterOption {
	return func(r *Router) { r.title = title }
}

// WithVersion sets the API version (used in the OpenAPI document).
func WithVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

// WithSpecPath overrides the well-known OpenAPI document path.
func WithSpecPath(path string) RouterOption {
	return func(r *Router) { r.specPath = path }
}

// WithStrictStatuses turns on runtime enforcement of declared output
// statuses: a handler returning an undeclared status yields a 500 problem
// response instead of passing through. Off by default — the output table is
// otherwise documentation-only.
func WithStrictStatuses() RouterOption {
	return func(r *Router) { r.strictStatuses = true }
}

// ErrorHandler translates a handler error into a canonical response. It
// replaces the default StatusCoder/ProblemDetail translation.
type ErrorHandler func(ctx context.Context, req *Request, err error) *Response

// WithErrorHandler sets a custom error handler for the router.
func WithErrorHandler(h ErrorHandler) RouterOption {
	return func(r *Router) { r.errorHandler = h }
}

// New creates a new Router with the given options.
func New(opts ...RouterOption) *Router {
	r := &Router{
		root:     newTrieNode(),
		specPath: DefaultSpecPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware to the router. Middleware is applied in the order added.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// Handle registers a route. It fails fast on a duplicate (method, path)
// pair or a pattern/schema inconsistency; a registration error must abort
// service initialization rather than degrade silently.
func (r *Router) Handle(rt *Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.root.insert(rt); err != nil {
		return err
	}
	r.routes = append(r.routes, rt)
	return nil
}

// Routes returns the registered route descriptors in registration order.
func (r *Router) Routes() []*Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Registrar is the interface accepted by the registration helpers.
// Both *Router and *Group implement it.
type Registrar interface {
	fullPath(path string) string
	baseOptions() []RouteOption
	mount(rt *Route) error
}

func (r *Router) fullPath(path string) string { return path }
func (r *Router) baseOptions() []RouteOption { return nil }
func (r *Router) mount(rt *Route) error { return r.Handle(rt) }

// register builds and mounts a route, panicking on error. Registration
// happens once at startup from a static route table, so a bad declaration
// is a programming error (same policy as http.ServeMux).
func register(reg Registrar, method, path string, h HandlerFunc, opts ...RouteOption) {
	all := append(reg.baseOptions(), opts...)
	rt, err := NewRoute(method, reg.fullPath(path), h, all...)
	if err != nil {
		panic(err)
	}
	if err := reg.mount(rt); err != nil {
		panic(err)
	}
}

// Get registers a GET handler.
func Get(reg Registrar, path string, h HandlerFunc, opts ...RouteOption) {
	register(reg, http.MethodGet, path, h, opts...)
}

// Post registers a POST handler.
func Post(reg Registrar, path string, h HandlerFunc, opts ...RouteOption) {
	register(reg, http.MethodPost, path, h, opts...)
}

// Put registers a PUT handler.
func Put(reg Registrar, path string, h HandlerFunc, opts ...RouteOption) {
	register(reg, http.MethodPut, path, h, opts...)
}

// Patch registers a PATCH handler.
func Patch(reg Registrar, path string, h HandlerFunc, opts ...RouteOption) {
	register(reg, http.MethodPatch, path, h, opts...)
}

// Delete registers a DELETE handler.
func Delete(reg Registrar, path string, h HandlerFunc, opts ...RouteOption) {
	register(reg, http.MethodDelete, path, h, opts...)
}

// ListenAndServe starts an HTTP server on the given address with the router
// as its handler. It blocks until the context is cancelled, then shuts down
// gracefully.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
