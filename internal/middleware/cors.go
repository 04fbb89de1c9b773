package middleware

import (
	"net/http"
	"strings"
)

// OriginPolicy decides which browser origins may reach the API.
type OriginPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

// NewOriginPolicy allows the listed origins. An empty list or "*" allows
// every origin.
func NewOriginPolicy(origins []string) OriginPolicy {
	p := OriginPolicy{allowAll: len(origins) == 0, allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			p.allowAll = true
		}
		p.allowed[o] = struct{}{}
	}
	return p
}

// AllowsAll reports whether every origin is accepted.
func (p OriginPolicy) AllowsAll() bool {
	return p.allowAll
}

// Allows reports whether origin may make cross-origin requests.
func (p OriginPolicy) Allows(origin string) bool {
	if p.allowAll {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// CheckOrigin is a websocket.Upgrader CheckOrigin func. Requests without an
// Origin header come from non-browser clients and are accepted.
func (p OriginPolicy) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || p.Allows(origin)
}

// CORS allows browser clients from any origin to reach the API.
func CORS(next http.Handler) http.Handler {
	return CORSWithOrigins(nil)(next)
}

// CORSWithOrigins restricts cross-origin access to the listed origins. An
// empty list or "*" allows every origin.
func CORSWithOrigins(origins []string) func(http.Handler) http.Handler {
	policy := NewOriginPolicy(origins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && policy.Allows(origin) {
				if policy.AllowsAll() {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				w.Header().Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
