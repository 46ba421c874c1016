package user

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"go_todo/internal/metrics"
	"go_todo/internal/respond"
)

type contextKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(contextKey{}).(User)
	return u, ok
}

// OwnerFromRequest scopes todo store calls to the authenticated user.
func OwnerFromRequest(r *http.Request) string {
	u, ok := UserFromContext(r.Context())
	if !ok {
		return ""
	}
	return u.ID
}

// RequireUser rejects requests without a valid bearer token with 401 and a
// WWW-Authenticate challenge; otherwise the resolved user is put on the
// request context.
func RequireUser(service *Service, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respond.Unauthorized(w, logger, "not authenticated")
				return
			}

			u, err := service.ResolveIdentity(r.Context(), token)
			if err != nil {
				if errors.Is(err, ErrUnauthorized) {
					metrics.AuthEvent(metrics.EventTokenRejected)
					respond.Unauthorized(w, logger, ErrUnauthorized.Error())
					return
				}
				respond.Internal(w, logger, "resolve identity", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
