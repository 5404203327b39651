package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/actor"
)

// Authentication is handled upstream; the gateway forwards the verified
// identity in X-Actor-Id and X-Actor-Role.
const (
	headerActorID   = "X-Actor-Id"
	headerActorRole = "X-Actor-Role"
)

type actorKey struct{}

func actorFromContext(ctx context.Context) actor.Actor {
	a, _ := ctx.Value(actorKey{}).(actor.Actor)
	return a
}

// requireActor resolves the calling actor from the identity headers. Requests
// without a valid actor id are rejected.
func (s *Server) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(headerActorID))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid X-Actor-Id header")
			return
		}
		role, err := actor.ParseRole(r.Header.Get(headerActorRole))
		if err != nil {
			role = actor.RoleUser
		}
		a := actor.Actor{ID: id, Role: role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, a)))
	})
}

// requireAdmin guards moderation endpoints.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !actorFromContext(r.Context()).IsAdmin() {
			respondError(w, http.StatusForbidden, "FORBIDDEN", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
