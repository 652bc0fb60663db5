package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Katebsaber/IFSGuideTask/internal/auth"
	"github.com/Katebsaber/IFSGuideTask/internal/metrics"
	"github.com/Katebsaber/IFSGuideTask/internal/models"
	"github.com/Katebsaber/IFSGuideTask/internal/store"
)

type contextKey string

const PrincipalContextKey contextKey = "principal"

// PrincipalResolver verifies a credential against the auth service.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, credential string) (*models.Principal, error)
}

// AuthMiddleware resolves the Authorization header into a verified
// principal before any handler or store access runs. Resolved
// principals are cached in Redis for a short TTL.
type AuthMiddleware struct {
	resolver PrincipalResolver
	redis    *store.RedisStore
}

// NewAuthMiddleware creates a new auth middleware. redis may be nil,
// in which case every request hits the auth service.
func NewAuthMiddleware(resolver PrincipalResolver, redis *store.RedisStore) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, redis: redis}
}

// RequireAuth rejects requests whose credential the auth service does
// not vouch for.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := r.Header.Get("Authorization")
		if credential == "" {
			jsonError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		if m.redis != nil {
			if p := m.redis.GetCachedPrincipal(r.Context(), credential); p != nil {
				next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
				return
			}
		}

		principal, err := m.resolver.ResolvePrincipal(r.Context(), credential)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				jsonError(w, http.StatusUnauthorized, "credential rejected")
				return
			}
			metrics.UpstreamErrors.WithLabelValues("auth").Inc()
			jsonError(w, http.StatusInternalServerError, "auth service unavailable")
			return
		}

		if m.redis != nil {
			m.redis.CachePrincipal(r.Context(), credential, principal)
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
	})
}

func withPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// GetPrincipalFromContext retrieves the authenticated principal from
// the request context.
func GetPrincipalFromContext(ctx context.Context) *models.Principal {
	p, ok := ctx.Value(PrincipalContextKey).(*models.Principal)
	if !ok {
		return nil
	}
	return p
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
