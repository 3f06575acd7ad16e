package middleware

import (
	"net/http"
	"strings"
)

// CORS describes the headers sent to browser clients of a public endpoint.
type CORS struct {
	Origin  string
	Methods []string
	Headers []string
}

func (c CORS) apply(h http.Header) {
	origin := c.Origin
	if origin == "" {
		origin = "*"
	}
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", strings.Join(c.Methods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(c.Headers, ", "))
}

// Preflight answers OPTIONS requests.
func (c CORS) Preflight(w http.ResponseWriter, r *http.Request) {
	c.apply(w.Header())
	w.WriteHeader(http.StatusOK)
}

// Wrap adds the CORS headers to every response of next.
func (c CORS) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.apply(w.Header())
		next.ServeHTTP(w, r)
	})
}
