package security

import (
	"net/http"
	"strings"
)

const (
	corsMethods = "GET, POST, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Authorization, X-Requested-With, X-Request-ID"
)

// CORS answers preflight requests and sets Access-Control headers for the
// configured origins. A "*" entry allows any origin.
type CORS struct {
	allowAll bool
	origins  map[string]bool
}

func NewCORS(allowedOrigins []string) *CORS {
	c := &CORS{origins: make(map[string]bool, len(allowedOrigins))}
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			c.allowAll = true
			continue
		}
		if o != "" {
			c.origins[o] = true
		}
	}
	return c
}

// Allowed reports whether origin may call the API.
func (c *CORS) Allowed(origin string) bool {
	return c.allowAll || c.origins[origin]
}

func (c *CORS) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		headers := w.Header()
		switch {
		case c.allowAll:
			headers.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && c.origins[origin]:
			headers.Set("Access-Control-Allow-Origin", origin)
			headers.Add("Vary", "Origin")
		}
		headers.Set("Access-Control-Allow-Methods", corsMethods)
		headers.Set("Access-Control-Allow-Headers", corsHeaders)
		headers.Set("Access-Control-Max-Age", "300")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
