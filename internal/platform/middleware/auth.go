package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "locregistry/pkg/domain"
	"locregistry/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the claims it
// carries.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims is what the auth middleware needs from a token: either the
// root flag or the calling account.
type TokenClaims struct {
	Account string
	Root    bool
}

// writeJSONError writes a JSON error response with the given status code
// and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth validates the bearer token and stores the resolved caller
// origin in the request context. Root tokens carry no account; signed
// tokens must carry a well-formed account id.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			after, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(after)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := r.Context()
			var origin id.Origin
			if claims.Root {
				origin = id.RootOrigin()
			} else {
				account, err := id.ParseAccountID(claims.Account)
				if err != nil {
					logger.WarnContext(ctx, "unauthorized access - malformed account claim",
						"request_id", requestcontext.RequestID(ctx),
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
					return
				}
				origin = id.SignedOrigin(account)
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithOrigin(ctx, origin)))
		})
	}
}
