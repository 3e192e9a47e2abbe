// Package requesttime gives every operation within one HTTP request the same "now", so
// audit events and commit metadata written by a request agree on the time.
package requesttime

import (
	"net/http"
	"time"

	"github.com/WestCoastInformatics/snowstorm-1/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
