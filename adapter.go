package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// ServeHTTP is the net/http transport adapter. It applies the middleware
// chain, serves the well-known OpenAPI document path ahead of normal route
// dispatch, converts the host request to the canonical representation
// (streaming the body to completion before validation), dispatches, and
// converts the canonical response back.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(http.HandlerFunc(r.serve))
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	handler.ServeHTTP(w, req)
}

func (r *Router) serve(w http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodGet && req.URL.Path == r.specPath {
		r.serveSpec(w)
		return
	}

	creq, err := toCanonical(req)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeProblem(w, status, "reading request body: "+err.Error())
		return
	}

	resp := r.Dispatch(req.Context(), creq)
	writeResponse(w, resp)
}

// writeProblem answers directly from middleware or the adapter, before the
// dispatch pipeline runs. The response still looks like the engine's: an RFC
// 9457 body and the marker header.
func writeProblem(w http.ResponseWriter, status int, detail string) {
	resp := problemResponse(&ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
	resp.SetHeader(MarkerHeader, MarkerValue)
	writeResponse(w, resp)
}

// toCanonical converts a host request into the canonical form.
func toCanonical(req *http.Request) (*Request, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
	}

	return &Request{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
		Header: req.Header,
		Body:   body,
	}, nil
}

// writeResponse converts a canonical response into the host representation.
// nil bodies write no payload; []byte and string pass through raw;
// *ProblemDetail is serialized as application/problem+json; everything else
// is JSON.
func writeResponse(w http.ResponseWriter, resp *Response) {
	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}

	switch body := resp.Body.(type) {
	case nil:
		w.WriteHeader(resp.Status)

	case []byte:
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		w.WriteHeader(resp.Status)
		//nolint:errcheck,gosec // best-effort after WriteHeader
		w.Write(body)

	case string:
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		w.WriteHeader(resp.Status)
		//nolint:errcheck,gosec // best-effort after WriteHeader
		io.WriteString(w, body)

	case *ProblemDetail:
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(resp.Status)
		//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
		json.NewEncoder(w).Encode(body)

	default:
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(resp.Status)
		//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
		json.NewEncoder(w).Encode(body)
	}
}
