package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Dispatch resolves the canonical request to exactly one route, validates
// its input, and invokes the handler. It never returns nil and never lets
// invalid input reach a handler. Dispatch has no side effect on the trie:
// repeated calls with identical input produce identical routing decisions,
// and concurrent dispatch requires no locking.
func (r *Router) Dispatch(ctx context.Context, req *Request) *Response {
	resp := r.dispatch(ctx, req)
	resp.SetHeader(MarkerHeader, MarkerValue)
	return resp
}

func (r *Router) dispatch(ctx context.Context, req *Request) *Response {
	rt, pathParams, outcome := r.root.resolve(req.Method, req.Path)

	switch outcome {
	case resolveNotFound:
		return problemResponse(&ProblemDetail{
			Type:   "about:blank",
			Title:  http.StatusText(http.StatusNotFound),
			Status: http.StatusNotFound,
			Detail: "no route matches " + req.Path,
		})
	case resolveMethodNotAllowed:
		resp := problemResponse(&ProblemDetail{
			Type:   "about:blank",
			Title:  http.StatusText(http.StatusMethodNotAllowed),
			Status: http.StatusMethodNotAllowed,
			Detail: req.Method + " is not allowed for " + req.Path,
		})
		if allowed := r.root.allowedMethods(req.Path); len(allowed) > 0 {
			resp.SetHeader("Allow", strings.Join(allowed, ", "))
		}
		return resp
	}

	req.PathParams = pathParams

	in := &Input{Request: req}

	if rt.params != nil {
		record := mergeParams(req.Query, pathParams)
		parsed, errs := rt.params.Parse(record)
		if len(errs) > 0 {
			return problemResponse(validationProblem(errs))
		}
		in.Params, _ = parsed.(map[string]any)
	}

	if rt.body != nil {
		raw, err := decodeJSONBody(req.Body)
		if err != nil {
			return problemResponse(validationProblem([]ValidationError{{
				Field:   "body",
				Message: "request body is not valid JSON: " + err.Error(),
			}}))
		}
		parsed, errs := rt.body.Parse(raw)
		if len(errs) > 0 {
			return problemResponse(validationProblem(prefixField("body", errs)))
		}
		in.Body = parsed
	}

	resp, err := rt.invoke()(ctx, in)
	if err != nil {
		return r.errorResponse(ctx, req, err)
	}
	if resp == nil {
		resp = NewResponse(http.StatusNoContent, nil)
	}

	if r.strictStatuses {
		if _, declared := rt.outputs[resp.Status]; !declared {
			return problemResponse(&ProblemDetail{
				Type:   "about:blank",
				Title:  http.StatusText(http.StatusInternalServerError),
				Status: http.StatusInternalServerError,
				Detail: "handler returned undeclared status for " + rt.method + " " + rt.path,
			})
		}
	}

	return resp
}

// mergeParams flattens query values and captured path parameters into one
// record. Path parameters are structural, not optional, so they win over a
// same-named query parameter. Multi-valued query keys keep their first value.
func mergeParams(query map[string][]string, pathParams map[string]string) map[string]any {
	record := make(map[string]any, len(query)+len(pathParams))
	for name, values := range query {
		if len(values) > 0 {
			record[name] = values[0]
		}
	}
	for name, value := range pathParams {
		record[name] = value
	}
	return record
}

// decodeJSONBody parses the raw body into a generic value. An empty body
// decodes to nil so that Optional and Object schemas decide whether absence
// is acceptable.
func decodeJSONBody(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// errorResponse translates a handler error into a canonical response.
// Handler-raised domain errors are expected to arrive as StatusCoder
// implementations; anything else is an unrecovered fault reported as 500.
func (r *Router) errorResponse(ctx context.Context, req *Request, err error) *Response {
	if r.errorHandler != nil {
		if resp := r.errorHandler(ctx, req, err); resp != nil {
			return resp
		}
	}

	var pd *ProblemDetail
	if errors.As(err, &pd) {
		return problemResponse(pd)
	}

	status := ErrorStatus(err)
	return problemResponse(&ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: err.Error(),
	})
}

// problemResponse wraps a ProblemDetail as a canonical response. The adapter
// recognizes the body type and sets the problem+json content type.
func problemResponse(pd *ProblemDetail) *Response {
	return NewResponse(pd.Status, pd)
}
