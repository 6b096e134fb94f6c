package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routeline/api"
)

func TestGroup_prefixAndTags(t *testing.T) {
	t.Parallel()

	r := api.New(api.WithTitle("Grouped"), api.WithVersion("1.0.0"))
	v1 := r.Group("/v1", api.WithGroupTags("v1"))

	api.Get(v1, "/todos", okHandler(http.StatusOK, nil),
		api.WithOutput(http.StatusOK, api.ArrayOf(todoOutput())))
	api.Get(v1, "/todos/{id}", okHandler(http.StatusOK, nil),
		api.WithParams(api.Object(api.Fields{"id": api.Int()})),
		api.WithOutput(http.StatusOK, todoOutput()))

	resp := dispatch(r, http.MethodGet, "/v1/todos")
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = dispatch(r, http.MethodGet, "/todos")
	assert.Equal(t, http.StatusNotFound, resp.Status, "ungrouped path is not registered")

	doc, err := r.Spec()
	require.NoError(t, err)
	require.Contains(t, doc.Paths, "/v1/todos")
	require.Contains(t, doc.Paths, "/v1/todos/{id}")
	assert.Equal(t, []string{"v1"}, doc.Paths["/v1/todos"]["get"].Tags)
}

func TestGroup_routeTagsAppendToGroupTags(t *testing.T) {
	t.Parallel()

	r := api.New()
	admin := r.Group("/admin", api.WithGroupTags("admin"))
	api.Get(admin, "/stats", okHandler(http.StatusOK, nil),
		api.WithRouteTags("reporting"),
		api.WithOutput(http.StatusOK, api.Object(api.Fields{"count": api.Int()})))

	doc, err := r.Spec()
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "reporting"}, doc.Paths["/admin/stats"]["get"].Tags)
}

func TestGroup_middleware(t *testing.T) {
	t.Parallel()

	var order []string
	groupMW := func(next api.HandlerFunc) api.HandlerFunc {
		return func(ctx context.Context, in *api.Input) (*api.Response, error) {
			order = append(order, "group")
			return next(ctx, in)
		}
	}

	r := api.New()
	g := r.Group("/v1", api.WithGroupMiddleware(groupMW))
	api.Get(g, "/todos", func(_ context.Context, _ *api.Input) (*api.Response, error) {
		order = append(order, "handler")
		return api.NewResponse(http.StatusOK, nil), nil
	}, api.WithOutput(http.StatusOK, nil))

	// Routes outside the group are unaffected.
	api.Get(r, "/health", func(_ context.Context, _ *api.Input) (*api.Response, error) {
		order = append(order, "health")
		return api.NewResponse(http.StatusOK, nil), nil
	}, api.WithOutput(http.StatusOK, nil))

	resp := dispatch(r, http.MethodGet, "/v1/todos")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, []string{"group", "handler"}, order)

	order = order[:0]
	dispatch(r, http.MethodGet, "/health")
	assert.Equal(t, []string{"health"}, order)
}

func TestGroup_duplicateAcrossGroupAndRouter(t *testing.T) {
	t.Parallel()

	r := api.New()
	g := r.Group("/v1")
	api.Get(g, "/todos", okHandler(http.StatusOK, nil))

	assert.Panics(t, func() {
		api.Get(r, "/v1/todos", okHandler(http.StatusOK, nil))
	})
}
