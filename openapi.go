package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Document is the top-level OpenAPI document.
type Document struct {
	OpenAPI string              `json:"openapi"`
	Info    Info                `json:"info"`
	Paths   map[string]PathItem `json:"paths"`
}

// Info holds API metadata.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// PathItem maps lowercase HTTP methods to operations.
type PathItem map[string]Operation

// Operation describes a single API operation on a path.
type Operation struct {
	Summary     string                 `json:"summary,omitempty"`
	Description string                 `json:"description,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	OperationID string                 `json:"operationId,omitempty"`
	Parameters  []Parameter            `json:"parameters,omitempty"`
	RequestBody *RequestBody           `json:"requestBody,omitempty"`
	Responses   map[string]ResponseObj `json:"responses"`
	Deprecated  bool                   `json:"deprecated,omitempty"`
}

// Parameter describes a single operation parameter.
type Parameter struct {
	Name        string     `json:"name"`
	In          string     `json:"in"`
	Description string     `json:"description,omitempty"`
	Required    bool       `json:"required,omitempty"`
	Schema      JSONSchema `json:"schema"`
}

// RequestBody describes the request body.
type RequestBody struct {
	Required bool                `json:"required"`
	Content  map[string]MediaObj `json:"content"`
}

// MediaObj is a media type object with an optional schema.
type MediaObj struct {
	Schema *JSONSchema `json:"schema,omitempty"`
}

// ResponseObj describes a single response.
type ResponseObj struct {
	Description string              `json:"description"`
	Content     map[string]MediaObj `json:"content,omitempty"`
}

// Generate walks the route descriptors — the same table the dispatcher
// resolves against, not a separate declaration — and emits the OpenAPI
// document. It is pure and deterministic: identical routes and metadata
// produce a byte-identical document (all maps marshal with sorted keys).
// A route with no declared output schemas fails the generation call with
// ErrMissingOutputSchema; dispatch is unaffected.
func Generate(routes []*Route, info Info) (Document, error) {
	doc := Document{
		OpenAPI: "3.0.3",
		Info:    info,
		Paths:   make(map[string]PathItem),
	}

	for _, rt := range routes {
		op, err := buildOperation(rt)
		if err != nil {
			return Document{}, err
		}

		path := rt.pattern.OpenAPIPath()
		if doc.Paths[path] == nil {
			doc.Paths[path] = make(PathItem)
		}
		doc.Paths[path][strings.ToLower(rt.method)] = op
	}

	return doc, nil
}

// Spec generates the OpenAPI document for the router's registered routes.
func (r *Router) Spec() (Document, error) {
	return Generate(r.Routes(), Info{Title: r.title, Version: r.version})
}

// buildOperation creates an Operation from a route descriptor.
func buildOperation(rt *Route) (Operation, error) {
	if len(rt.outputs) == 0 {
		return Operation{}, fmt.Errorf("%w: %s %s", ErrMissingOutputSchema, rt.method, rt.path)
	}

	op := Operation{
		Summary:     rt.summary,
		Description: rt.desc,
		Tags:        rt.tags,
		OperationID: rt.operationID,
		Deprecated:  rt.deprecated,
		Parameters:  buildParameters(rt),
		Responses:   make(map[string]ResponseObj, len(rt.outputs)),
	}

	if rt.body != nil {
		schema := rt.body.Describe()
		op.RequestBody = &RequestBody{
			Required: !isOptional(rt.body),
			Content: map[string]MediaObj{
				"application/json": {Schema: &schema},
			},
		}
	}

	for _, status := range rt.OutputStatuses() {
		schema := rt.outputs[status]
		obj := ResponseObj{Description: statusDescription(status)}
		if schema != nil {
			s := schema.Describe()
			obj.Content = map[string]MediaObj{
				"application/json": {Schema: &s},
			}
		}
		op.Responses[strconv.Itoa(status)] = obj
	}

	return op, nil
}

// buildParameters classifies every field of the params schema: a field whose
// name is captured by the path pattern is a path parameter (always
// required); everything else is a query parameter, required unless its
// schema is Optional. Each path parameter appears exactly once because the
// pattern rejects duplicate names and the field set is a map.
func buildParameters(rt *Route) []Parameter {
	if rt.params == nil {
		return nil
	}

	pathParams := make(map[string]bool)
	for _, name := range rt.pattern.ParamNames() {
		pathParams[name] = true
	}

	names := rt.params.FieldNames()

	// Path parameters first, in pattern order, then query parameters sorted.
	ordered := make([]string, 0, len(names))
	ordered = append(ordered, rt.pattern.ParamNames()...)
	for _, name := range names {
		if !pathParams[name] {
			ordered = append(ordered, name)
		}
	}

	params := make([]Parameter, 0, len(ordered))
	for _, name := range ordered {
		schema, ok := rt.params.Field(name)
		if !ok {
			continue // unreachable: NewRoute guarantees path param coverage
		}
		p := Parameter{
			Name:   name,
			Schema: schema.Describe(),
		}
		if pathParams[name] {
			p.In = "path"
			p.Required = true
		} else {
			p.In = "query"
			p.Required = !isOptional(schema)
		}
		params = append(params, p)
	}

	return params
}

// statusDescription returns the standard reason phrase for a status code.
func statusDescription(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Response"
}
