package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/ganot/appforge/internal/identity"
)

type identityKey struct{}

// IdentityFromContext returns the caller stored by AuthMiddleware.
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	ident, ok := ctx.Value(identityKey{}).(identity.Identity)
	return ident, ok
}

// AuthMiddleware enforces bearer token authentication and stores the
// resolved identity and owner on the request context.
func AuthMiddleware(resolver identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				writeError(w, identity.ErrUnauthorized)
				return
			}

			ident, err := resolver.Resolve(r.Context(), token)
			if err != nil || ident.Owner().IsZero() {
				writeError(w, identity.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
		})
	}
}

// StaticIdentityMiddleware attaches a fixed identity to every request.
// Used when authentication is disabled.
func StaticIdentityMiddleware(ident identity.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
		})
	}
}

func withIdentity(ctx context.Context, ident identity.Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey{}, ident)
	return identity.WithOwner(ctx, ident.Owner())
}
