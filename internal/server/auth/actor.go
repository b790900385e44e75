package auth

import (
	"context"

	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   string      `json:"id"`
	Role models.Role `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

type actorKey struct{}

// WithActor stores actor in ctx. Only the HTTP layer does this; services
// receive the actor as an explicit argument.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
