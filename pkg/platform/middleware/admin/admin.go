package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/httputil"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/requestcontext"
)

// TokenHeader carries the shared admin token.
const TokenHeader = "X-Admin-Token"

// RequireAdminToken rejects requests whose admin token does not match. An empty expected
// token disables the check.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expectedToken == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
					Error:            "unauthorized",
					ErrorDescription: "admin token required",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
