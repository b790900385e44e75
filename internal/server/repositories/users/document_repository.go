package users

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/entities"
)

type DocumentRepository struct {
	repo *entities.DocumentRepository[models.User]
}

func NewDocumentRepository(col docstore.Collection) *DocumentRepository {
	return &DocumentRepository{repo: entities.NewDocumentRepository[models.User](col)}
}

// Create stores user with a lower-cased username. A taken username yields
// common.ErrorAlreadyExists.
func (r *DocumentRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if _, err := r.GetUserByLogin(ctx, user.Username); err == nil {
		return nil, common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	created, err := r.repo.Create(ctx, *user)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *DocumentRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	items, _, err := r.repo.List(ctx, docstore.Query{
		Equals: map[string]any{"username": strings.ToLower(strings.TrimSpace(login))},
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, common.ErrorNotFound
	}
	return &items[0], nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *DocumentRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	_, err := r.repo.Update(ctx, id, map[string]any{"passwordHash": hash})
	return err
}

func (r *DocumentRepository) DisplayNames(ctx context.Context, ids ...string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, seen := out[id]; seen {
			continue
		}
		u, err := r.repo.Get(ctx, id)
		if errors.Is(err, common.ErrorNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = u.DisplayName()
	}
	return out, nil
}
