package api

import "net/http"

// BodyLimit returns middleware that caps the request body size before the
// adapter reads it to completion. An oversized body surfaces as a 413
// problem response from the dispatch path.
func BodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
