// Package users declares the lookups the auth and archive services need on
// top of the generic user repository.
package users

import (
	"context"

	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
	// DisplayNames resolves ids to display names. Unknown ids are omitted.
	DisplayNames(ctx context.Context, ids ...string) (map[string]string, error)
}
