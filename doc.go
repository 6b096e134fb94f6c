// Package api is a typed request-routing and validation layer for HTTP
// services. Route declarations carry machine-checkable input and output
// schemas; a trie-based dispatcher resolves each request to exactly one
// declared route, validates parameters and body against the route's schemas,
// and invokes the handler only with input that fully validated. An OpenAPI
// document and an operation manifest are derived from the same route table,
// so the dispatch behavior and the documentation can never drift apart.
//
// Routes are declared with schema values and registered with package-level
// helpers:
//
//	r := api.New(api.WithTitle("Todos"), api.WithVersion("1.0.0"))
//
//	api.Get(r, "/todos/{id}", getTodo,
//	    api.WithParams(api.Object(api.Fields{"id": api.Int()})),
//	    api.WithOutput(http.StatusOK, todoSchema),
//	)
//
//	api.Post(r, "/todos", createTodo,
//	    api.WithBody(api.Object(api.Fields{"title": api.String()})),
//	    api.WithOutput(http.StatusCreated, todoSchema),
//	)
//
// Handlers receive typed input and return a canonical response:
//
//	func getTodo(ctx context.Context, in *api.Input) (*api.Response, error) {
//	    id := in.IntParam("id")
//	    ...
//	    return api.NewResponse(http.StatusOK, todo), nil
//	}
//
// The engine does not implement its own HTTP server; *Router implements
// http.Handler through its transport adapter and is embedded in a host
// stack. Middleware uses the standard func(http.Handler) http.Handler
// signature, so the Go middleware ecosystem works natively.
//
// The OpenAPI document is served from /.well-known/openapi.json, and
// Router.Manifest exports the operation set a constrained Client validates
// calls against.
package api
