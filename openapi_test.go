package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routeline/api"
)

func buildSpecRouter(t *testing.T) *api.Router {
	t.Helper()

	r := api.New(api.WithTitle("Todo API"), api.WithVersion("1.2.3"))

	api.Get(r, "/todos", okHandler(http.StatusOK, nil),
		api.WithParams(api.Object(api.Fields{
			"done":  api.Optional(api.Bool()),
			"limit": api.Optional(api.Doc(api.Int(), "page size")),
		})),
		api.WithSummary("List todos"),
		api.WithOperationID("listTodos"),
		api.WithRouteTags("todos"),
		api.WithOutput(http.StatusOK, api.ArrayOf(todoOutput())))

	api.Post(r, "/todos", okHandler(http.StatusCreated, nil),
		api.WithBody(api.Object(api.Fields{
			"title": api.String(),
			"done":  api.Optional(api.Bool()),
		})),
		api.WithOutput(http.StatusCreated, todoOutput()),
		api.WithOutput(http.StatusBadRequest, nil))

	api.Get(r, "/todos/{id}", okHandler(http.StatusOK, nil),
		api.WithParams(api.Object(api.Fields{
			"id":      api.Int(),
			"verbose": api.Optional(api.Bool()),
		})),
		api.WithOutput(http.StatusOK, todoOutput()),
		api.WithOutput(http.StatusNotFound, nil))

	api.Delete(r, "/todos/{id}", okHandler(http.StatusNoContent, nil),
		api.WithParams(api.Object(api.Fields{"id": api.Int()})),
		api.WithDeprecated(),
		api.WithOutput(http.StatusNoContent, nil))

	return r
}

func todoOutput() api.Schema {
	return api.Object(api.Fields{
		"id":    api.Int(),
		"title": api.String(),
		"done":  api.Bool(),
	})
}

func TestGenerate_deterministic(t *testing.T) {
	t.Parallel()

	r := buildSpecRouter(t)

	first, err := r.Spec()
	require.NoError(t, err)
	second, err := r.Spec()
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b), "generation must be byte-identical across calls")
}

func TestGenerate_document(t *testing.T) {
	t.Parallel()

	r := buildSpecRouter(t)
	doc, err := r.Spec()
	require.NoError(t, err)

	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Equal(t, "Todo API", doc.Info.Title)
	assert.Equal(t, "1.2.3", doc.Info.Version)

	require.Contains(t, doc.Paths, "/todos")
	require.Contains(t, doc.Paths, "/todos/{id}")

	list := doc.Paths["/todos"]["get"]
	assert.Equal(t, "List todos", list.Summary)
	assert.Equal(t, "listTodos", list.OperationID)
	assert.Equal(t, []string{"todos"}, list.Tags)
	require.Len(t, list.Parameters, 2)
	for _, p := range list.Parameters {
		assert.Equal(t, "query", p.In)
		assert.False(t, p.Required, "Optional query params are not required")
	}

	create := doc.Paths["/todos"]["post"]
	require.NotNil(t, create.RequestBody)
	assert.True(t, create.RequestBody.Required)
	body := create.RequestBody.Content["application/json"].Schema
	require.NotNil(t, body)
	assert.Equal(t, []string{"title"}, body.Required)
	require.Contains(t, create.Responses, "201")
	require.Contains(t, create.Responses, "400")
	assert.Empty(t, create.Responses["400"].Content, "nil output schema documents status only")

	del := doc.Paths["/todos/{id}"]["delete"]
	assert.True(t, del.Deprecated)
}

func TestGenerate_pathParamsExactlyOnce(t *testing.T) {
	t.Parallel()

	r := buildSpecRouter(t)
	doc, err := r.Spec()
	require.NoError(t, err)

	show := doc.Paths["/todos/{id}"]["get"]
	var idCount int
	for _, p := range show.Parameters {
		if p.Name == "id" {
			idCount++
			assert.Equal(t, "path", p.In)
			assert.True(t, p.Required)
			assert.Equal(t, "integer", p.Schema.Type)
		}
	}
	assert.Equal(t, 1, idCount, "every pattern parameter appears exactly once")

	// Path params come first, query params after.
	require.Len(t, show.Parameters, 2)
	assert.Equal(t, "id", show.Parameters[0].Name)
	assert.Equal(t, "verbose", show.Parameters[1].Name)
}

func TestGenerate_missingOutputSchema(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/bare", okHandler(http.StatusOK, nil))

	// Dispatch still works without declared outputs.
	resp := dispatch(r, http.MethodGet, "/bare")
	assert.Equal(t, http.StatusOK, resp.Status)

	_, err := r.Spec()
	assert.ErrorIs(t, err, api.ErrMissingOutputSchema)
}

func TestGenerate_validatesAgainstOpenAPI3(t *testing.T) {
	t.Parallel()

	r := buildSpecRouter(t)
	var buf []byte
	doc, err := r.Spec()
	require.NoError(t, err)
	buf, err = json.Marshal(doc)
	require.NoError(t, err)

	loader := openapi3.NewLoader()
	parsed, err := loader.LoadFromData(buf)
	require.NoError(t, err)
	require.NoError(t, parsed.Validate(loader.Context))
}
