// Package request copies request identity into requestcontext for the service layer.
package request

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/WestCoastInformatics/snowstorm-1/pkg/requestcontext"
)

// ActorHeader names the operator on admin requests.
const ActorHeader = "X-Actor"

// Context must run after chi's middleware.RequestID.
func Context(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		if actor := r.Header.Get(ActorHeader); actor != "" {
			ctx = requestcontext.WithActor(ctx, actor)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
