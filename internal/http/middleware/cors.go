package middleware

import (
	"net/http"
	"strings"
)

// demoMethods are the methods the demo endpoints answer cross-origin.
var demoMethods = map[string]struct{}{
	http.MethodGet:  {},
	http.MethodPost: {},
}

const demoHeaders = "Content-Type, X-Request-Id"

// CORS lets the demo endpoints be called from the listed origins, e.g. when
// the marketing pages are hosted apart from this server. If allowedOrigins
// contains "*", any Origin is echoed back. Preflights asking for a method the
// demo does not serve are refused with 403.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAny := false
	allow := map[string]struct{}{}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAny = true
			continue
		}
		allow[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || !(allowAny || isAllowedOrigin(allow, origin)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Origin")

			requested := strings.ToUpper(strings.TrimSpace(r.Header.Get("Access-Control-Request-Method")))
			if r.Method != http.MethodOptions || requested == "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := demoMethods[requested]; !ok {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", requested)
			w.Header().Set("Access-Control-Allow-Headers", demoHeaders)
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func isAllowedOrigin(allow map[string]struct{}, origin string) bool {
	_, ok := allow[origin]
	return ok
}
