package auth

import (
	"context"

	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/google/uuid"
)

// Actor identifies the user performing an operation. Services receive it as
// an explicit argument; the request context only carries it between the
// authentication middleware and the handlers.
type Actor struct {
	UserID      uuid.UUID
	Username    string
	Role        domain.Role
	IsSuperuser bool
}

// ActorFromUser builds an Actor from a persisted user
func ActorFromUser(u *domain.User) Actor {
	return Actor{
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		IsSuperuser: u.IsSuperuser,
	}
}

// CanAdminister reports whether the actor holds administrative capability
func (a Actor) CanAdminister() bool {
	return CanAdminister(a.Role, a.IsSuperuser)
}

// CanManageClients reports whether the actor may create, edit and view clients
func (a Actor) CanManageClients() bool {
	return CanManageClients(a.Role, a.IsSuperuser)
}

// Scope returns the record visibility of the actor
func (a Actor) Scope() Scope {
	return VisibilityScope(a.Role, a.IsSuperuser, a.UserID)
}

// Is reports whether the actor is the given user
func (a Actor) Is(userID uuid.UUID) bool {
	return a.UserID == userID
}

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor adds the authenticated actor to the context
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// FromContext extracts the authenticated actor from the context
func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(Actor)
	return actor, ok
}
