package api

import (
	"encoding/json"
	"io"
	"net/http"

	"gopkg.in/yaml.v3"
)

// serveSpec writes the OpenAPI document as JSON on the well-known path.
// This is a read path with no side effects, handled ahead of route dispatch.
func (r *Router) serveSpec(w http.ResponseWriter) {
	doc, err := r.Spec()
	if err != nil {
		writeResponse(w, problemResponse(&ProblemDetail{
			Type:   "about:blank",
			Title:  http.StatusText(http.StatusInternalServerError),
			Status: http.StatusInternalServerError,
			Detail: err.Error(),
		}))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(MarkerHeader, MarkerValue)
	//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(doc)
}

// WriteSpec writes the OpenAPI document as indented JSON to w.
func (r *Router) WriteSpec(w io.Writer) error {
	doc, err := r.Spec()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteSpecYAML writes the OpenAPI document as YAML to w. The document is
// round-tripped through JSON so the YAML keys follow the json struct tags.
func (r *Router) WriteSpecYAML(w io.Writer) error {
	doc, err := r.Spec()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	return yaml.NewEncoder(w).Encode(generic)
}
