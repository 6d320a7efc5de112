package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl marks successful GET responses as publicly cacheable for
// maxAge seconds. Error responses are sent with no-store.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			rec := record(w)
			rec.beforeHeader = func(status int) {
				if status < http.StatusBadRequest {
					w.Header().Set("Cache-Control", value)
				} else {
					w.Header().Set("Cache-Control", "no-store")
				}
			}
			next.ServeHTTP(rec, r)
		})
	}
}
