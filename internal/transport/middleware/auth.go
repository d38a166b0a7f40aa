package middleware

import (
	"net/http"
	"strings"

	"github.com/openagora/agora/internal/auth"
	"github.com/openagora/agora/internal/domain"
	"github.com/openagora/agora/pkg/ctxutil"
)

type tokenParser interface {
	Parse(token string) (auth.SessionClaims, error)
}

// Account returns middleware that resolves a bearer account token into the
// request context. Requests without a token pass through anonymously;
// participation tokens are left for the handlers to resolve.
func Account(parser tokenParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := parser.Parse(token)
			if err != nil || claims.Kind != domain.SubjectAccount {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxutil.WithSubjectID(r.Context(), claims.SubjectID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccount returns middleware that rejects requests without a resolved
// account subject. Apply after Account.
func RequireAccount() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ctxutil.SubjectIDFromCtx(r.Context()); !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ExtractBearerToken returns the bearer token from the Authorization header,
// or an empty string when none is present.
func ExtractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
