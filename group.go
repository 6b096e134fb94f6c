package api

// Group is a collection of routes under a shared prefix with shared tags
// and route middleware.
type Group struct {
	router     *Router
	prefix     string
	tags       []string
	middleware []RouteMiddleware
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithGroupTags adds default tags to all routes registered on the group.
func WithGroupTags(tags ...string) GroupOption {
	return func(g *Group) { g.tags = append(g.tags, tags...) }
}

// WithGroupMiddleware adds route middleware to every route registered on
// the group.
func WithGroupMiddleware(mw ...RouteMiddleware) GroupOption {
	return func(g *Group) { g.middleware = append(g.middleware, mw...) }
}

// Group creates a new route group with the given prefix and options.
func (r *Router) Group(prefix string, opts ...GroupOption) *Group {
	g := &Group{
		router: r,
		prefix: prefix,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Group) fullPath(path string) string { return g.prefix + path }

func (g *Group) baseOptions() []RouteOption {
	var opts []RouteOption
	if len(g.tags) > 0 {
		opts = append(opts, WithRouteTags(g.tags...))
	}
	if len(g.middleware) > 0 {
		opts = append(opts, WithRouteMiddleware(g.middleware...))
	}
	return opts
}

func (g *Group) mount(rt *Route) error { return g.router.Handle(rt) }
