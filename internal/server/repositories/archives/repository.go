// Package archives stores archive records in the archives collection.
package archives

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, rec *models.ArchiveRecord) (*models.ArchiveRecord, error)
	Get(ctx context.Context, id string) (*models.ArchiveRecord, error)
	List(ctx context.Context, q docstore.Query) ([]*models.ArchiveRecord, int64, error)
	Count(ctx context.Context, q docstore.Query) (int64, error)
	// MarkRestored flips isRestored only if it is still false. A record that
	// is already restored yields common.ErrAlreadyRestored.
	MarkRestored(ctx context.Context, id, by string, at time.Time) (*models.ArchiveRecord, error)
	Delete(ctx context.Context, id string) error
}

type DocumentRepository struct {
	col docstore.Collection
}

func NewDocumentRepository(col docstore.Collection) *DocumentRepository {
	return &DocumentRepository{col: col}
}

func (r *DocumentRepository) Create(ctx context.Context, rec *models.ArchiveRecord) (*models.ArchiveRecord, error) {
	if !rec.EntityType.Archivable() {
		return nil, common.NewValidationError(fmt.Sprintf("unknown entity type %q", rec.EntityType), "entityType")
	}
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}
	fields, err := docstore.ToFields(rec)
	if err != nil {
		return nil, err
	}
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	doc, err := r.col.Insert(ctx, docstore.Document{ID: id, Fields: fields})
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

func (r *DocumentRepository) Get(ctx context.Context, id string) (*models.ArchiveRecord, error) {
	doc, err := r.col.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

func (r *DocumentRepository) List(ctx context.Context, q docstore.Query) ([]*models.ArchiveRecord, int64, error) {
	docs, err := r.col.Find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.col.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*models.ArchiveRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := decode(d)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, nil
}

func (r *DocumentRepository) Count(ctx context.Context, q docstore.Query) (int64, error) {
	return r.col.Count(ctx, q)
}

func (r *DocumentRepository) MarkRestored(ctx context.Context, id, by string, at time.Time) (*models.ArchiveRecord, error) {
	doc, err := r.col.UpdateWhere(ctx, id,
		map[string]any{"isRestored": false},
		map[string]any{"isRestored": true, "restoredBy": by, "restoredAt": at.UTC()},
	)
	if errors.Is(err, docstore.ErrPreconditionFailed) {
		return nil, common.ErrAlreadyRestored
	}
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func decode(doc docstore.Document) (*models.ArchiveRecord, error) {
	var rec models.ArchiveRecord
	if err := doc.Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
