package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
)

// DocumentRepository keeps refresh tokens in the refresh_tokens collection,
// one document per token with the token as its id.
type DocumentRepository struct {
	col docstore.Collection
	now func() time.Time
}

func NewDocumentRepository(col docstore.Collection) *DocumentRepository {
	return &DocumentRepository{col: col, now: time.Now}
}

func (r *DocumentRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	_, err := r.col.Insert(ctx, docstore.Document{
		ID: token,
		Fields: map[string]any{
			"userId":  userID,
			"expires": r.now().Add(validity).UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return fmt.Errorf("error storing refresh token: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	doc, err := r.col.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	var rt models.RefreshToken
	if err := doc.Decode(&rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, token string) error {
	err := r.col.Delete(ctx, token)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	return err
}
