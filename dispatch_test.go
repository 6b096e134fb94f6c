package api_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routeline/api"
)

func okHandler(status int, body any) api.HandlerFunc {
	return func(_ context.Context, _ *api.Input) (*api.Response, error) {
		return api.NewResponse(status, body), nil
	}
}

func echoParams() api.HandlerFunc {
	return func(_ context.Context, in *api.Input) (*api.Response, error) {
		return api.NewResponse(http.StatusOK, in.Params), nil
	}
}

func dispatch(r *api.Router, method, path string) *api.Response {
	return r.Dispatch(context.Background(), &api.Request{
		Method: method,
		Path:   path,
		Query:  url.Values{},
	})
}

func TestDispatch_notFoundVsMethodNotAllowed(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/todos", okHandler(http.StatusOK, "list"),
		api.WithOutput(http.StatusOK, api.String()))
	api.Post(r, "/todos", okHandler(http.StatusCreated, "created"),
		api.WithOutput(http.StatusCreated, api.String()))

	t.Run("unknown path is 404", func(t *testing.T) {
		t.Parallel()

		resp := dispatch(r, http.MethodGet, "/nope")
		assert.Equal(t, http.StatusNotFound, resp.Status)
	})

	t.Run("known path wrong method is 405", func(t *testing.T) {
		t.Parallel()

		resp := dispatch(r, http.MethodDelete, "/todos")
		assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)
		assert.Equal(t, "GET, POST", resp.Header.Get("Allow"))
	})

	t.Run("intermediate node is 404 not 405", func(t *testing.T) {
		t.Parallel()

		r2 := api.New()
		api.Get(r2, "/a/b", okHandler(http.StatusOK, nil),
			api.WithOutput(http.StatusOK, nil))

		resp := dispatch(r2, http.MethodGet, "/a")
		assert.Equal(t, http.StatusNotFound, resp.Status)
	})
}

func TestDispatch_literalBeatsParam(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/items/{id}", okHandler(http.StatusOK, "by-id"),
		api.WithParams(api.Object(api.Fields{"id": api.String()})),
		api.WithOutput(http.StatusOK, api.String()))
	api.Get(r, "/items/featured", okHandler(http.StatusOK, "featured"),
		api.WithOutput(http.StatusOK, api.String()))

	resp := dispatch(r, http.MethodGet, "/items/featured")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "featured", resp.Body)

	resp = dispatch(r, http.MethodGet, "/items/42")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "by-id", resp.Body)
}

func TestDispatch_literalBeatsParamAtEveryDepth(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/users/{id}/posts", okHandler(http.StatusOK, "param-branch"),
		api.WithParams(api.Object(api.Fields{"id": api.String()})),
		api.WithOutput(http.StatusOK, api.String()))
	api.Get(r, "/users/me/settings", okHandler(http.StatusOK, "literal-branch"),
		api.WithOutput(http.StatusOK, api.String()))

	// A later literal under the param branch must still be matchable.
	resp := dispatch(r, http.MethodGet, "/users/me/settings")
	assert.Equal(t, "literal-branch", resp.Body)

	resp = dispatch(r, http.MethodGet, "/users/7/posts")
	assert.Equal(t, "param-branch", resp.Body)
}

func TestDispatch_paramCaptureAndCoercion(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/todos/{id}", echoParams(),
		api.WithParams(api.Object(api.Fields{"id": api.Int()})),
		api.WithOutput(http.StatusOK, api.Object(api.Fields{"id": api.Int()})))

	// Colon syntax compiles to the same pattern as braces.
	var captured map[string]any
	api.Get(r, "/raw/:id", func(_ context.Context, in *api.Input) (*api.Response, error) {
		captured = in.Params
		assert.Equal(t, "42", in.Request.PathParams["id"])
		return api.NewResponse(http.StatusOK, nil), nil
	},
		api.WithParams(api.Object(api.Fields{"id": api.Int()})),
		api.WithOutput(http.StatusOK, nil))

	resp := dispatch(r, http.MethodGet, "/raw/42")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int64(42), captured["id"], "pre-coercion string, int64 post-coercion")

	resp = dispatch(r, http.MethodGet, "/todos/not-an-int")
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestDispatch_pathParamWinsOverQuery(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/todos/{id}", echoParams(),
		api.WithParams(api.Object(api.Fields{"id": api.String()})),
		api.WithOutput(http.StatusOK, api.String()))

	resp := r.Dispatch(context.Background(), &api.Request{
		Method: http.MethodGet,
		Path:   "/todos/42",
		Query:  url.Values{"id": {"999"}, "extra": {"ignored"}},
	})

	require.Equal(t, http.StatusOK, resp.Status)
	params := resp.Body.(map[string]any)
	assert.Equal(t, "42", params["id"], "path params are structural and must not be shadowed")
}

func TestDispatch_queryValidation(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/todos", echoParams(),
		api.WithParams(api.Object(api.Fields{
			"limit": api.Optional(api.Int()),
			"done":  api.Optional(api.Bool()),
		})),
		api.WithOutput(http.StatusOK, api.String()))

	resp := r.Dispatch(context.Background(), &api.Request{
		Method: http.MethodGet,
		Path:   "/todos",
		Query:  url.Values{"limit": {"10"}, "done": {"true"}},
	})
	require.Equal(t, http.StatusOK, resp.Status)
	params := resp.Body.(map[string]any)
	assert.Equal(t, int64(10), params["limit"])
	assert.Equal(t, true, params["done"])

	resp = r.Dispatch(context.Background(), &api.Request{
		Method: http.MethodGet,
		Path:   "/todos",
		Query:  url.Values{"limit": {"ten"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestDispatch_bodyValidation(t *testing.T) {
	t.Parallel()

	created := 0
	r := api.New()
	api.Post(r, "/todos", func(_ context.Context, in *api.Input) (*api.Response, error) {
		created++
		body := in.Body.(map[string]any)
		return api.NewResponse(http.StatusCreated, body["title"]), nil
	},
		api.WithBody(api.Object(api.Fields{"title": api.String()})),
		api.WithOutput(http.StatusCreated, api.String()))

	t.Run("missing required field", func(t *testing.T) {
		resp := r.Dispatch(context.Background(), &api.Request{
			Method: http.MethodPost,
			Path:   "/todos",
			Body:   []byte(`{}`),
		})

		require.Equal(t, http.StatusBadRequest, resp.Status)
		pd := resp.Body.(*api.ProblemDetail)
		require.Len(t, pd.Errors, 1)
		assert.Equal(t, "body.title", pd.Errors[0].Field)
		assert.Equal(t, 0, created, "handler must not run on invalid input")
	})

	t.Run("malformed json", func(t *testing.T) {
		resp := r.Dispatch(context.Background(), &api.Request{
			Method: http.MethodPost,
			Path:   "/todos",
			Body:   []byte(`{broken`),
		})

		require.Equal(t, http.StatusBadRequest, resp.Status)
		assert.Equal(t, 0, created)
	})

	t.Run("valid body reaches handler", func(t *testing.T) {
		resp := r.Dispatch(context.Background(), &api.Request{
			Method: http.MethodPost,
			Path:   "/todos",
			Body:   []byte(`{"title":"buy milk"}`),
		})

		require.Equal(t, http.StatusCreated, resp.Status)
		assert.Equal(t, "buy milk", resp.Body)
		assert.Equal(t, 1, created)
	})
}

func TestDispatch_markerHeader(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/ping", okHandler(http.StatusOK, "pong"),
		api.WithOutput(http.StatusOK, api.String()))

	for _, path := range []string{"/ping", "/missing"} {
		resp := dispatch(r, http.MethodGet, path)
		assert.Equal(t, api.MarkerValue, resp.Header.Get(api.MarkerHeader), "path %s", path)
	}
}

func TestDispatch_handlerErrors(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/teapot", func(_ context.Context, _ *api.Input) (*api.Response, error) {
		return nil, api.Error(http.StatusTeapot, "short and stout")
	}, api.WithOutput(http.StatusOK, api.String()))

	api.Get(r, "/boom", func(_ context.Context, _ *api.Input) (*api.Response, error) {
		return nil, assert.AnError
	}, api.WithOutput(http.StatusOK, api.String()))

	resp := dispatch(r, http.MethodGet, "/teapot")
	assert.Equal(t, http.StatusTeapot, resp.Status)
	pd := resp.Body.(*api.ProblemDetail)
	assert.Equal(t, "short and stout", pd.Detail)

	resp = dispatch(r, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
}

func TestDispatch_customErrorHandler(t *testing.T) {
	t.Parallel()

	r := api.New(api.WithErrorHandler(func(_ context.Context, _ *api.Request, err error) *api.Response {
		return api.NewResponse(http.StatusBadGateway, err.Error())
	}))
	api.Get(r, "/fail", func(_ context.Context, _ *api.Input) (*api.Response, error) {
		return nil, assert.AnError
	}, api.WithOutput(http.StatusOK, api.String()))

	resp := dispatch(r, http.MethodGet, "/fail")
	assert.Equal(t, http.StatusBadGateway, resp.Status)
}

func TestDispatch_strictStatuses(t *testing.T) {
	t.Parallel()

	handler := okHandler(http.StatusAccepted, "late")

	t.Run("declarative by default", func(t *testing.T) {
		t.Parallel()

		r := api.New()
		api.Get(r, "/jobs", handler, api.WithOutput(http.StatusOK, api.String()))

		resp := dispatch(r, http.MethodGet, "/jobs")
		assert.Equal(t, http.StatusAccepted, resp.Status)
	})

	t.Run("strict mode rejects undeclared status", func(t *testing.T) {
		t.Parallel()

		r := api.New(api.WithStrictStatuses())
		api.Get(r, "/jobs", handler, api.WithOutput(http.StatusOK, api.String()))

		resp := dispatch(r, http.MethodGet, "/jobs")
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
	})
}

func TestDispatch_idempotentRouting(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/todos/{id}", echoParams(),
		api.WithParams(api.Object(api.Fields{"id": api.Int()})),
		api.WithOutput(http.StatusOK, api.String()))

	first := dispatch(r, http.MethodGet, "/todos/7")
	second := dispatch(r, http.MethodGet, "/todos/7")
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Body, second.Body)
}
