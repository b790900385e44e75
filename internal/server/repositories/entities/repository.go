// Package entities provides the generic typed repository used for every
// entity kind. Records are stored as documents in the kind's collection.
package entities

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/google/uuid"
)

// Repository is the storage contract for records of one kind.
type Repository[T models.Entity] interface {
	Create(ctx context.Context, item T) (T, error)
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context, q docstore.Query) ([]T, int64, error)
	Count(ctx context.Context, q docstore.Query) (int64, error)
	Update(ctx context.Context, id string, set map[string]any) (T, error)
	Delete(ctx context.Context, id string) error
}

// DocumentRepository implements Repository over a docstore.Collection.
type DocumentRepository[T models.Entity] struct {
	col docstore.Collection
}

func NewDocumentRepository[T models.Entity](col docstore.Collection) *DocumentRepository[T] {
	return &DocumentRepository[T]{col: col}
}

// Create assigns a UUID when item has no id and returns the stored record.
func (r *DocumentRepository[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	fields, err := docstore.ToFields(item)
	if err != nil {
		return zero, err
	}
	id := item.GetID()
	if id == "" {
		id = uuid.NewString()
	}
	doc, err := r.col.Insert(ctx, docstore.Document{ID: id, Fields: fields})
	if err != nil {
		return zero, err
	}
	return decode[T](doc)
}

func (r *DocumentRepository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := r.col.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	return decode[T](doc)
}

// List returns one page of matching records and the total match count.
func (r *DocumentRepository[T]) List(ctx context.Context, q docstore.Query) ([]T, int64, error) {
	docs, err := r.col.Find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.col.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]T, 0, len(docs))
	for _, d := range docs {
		item, err := decode[T](d)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, nil
}

func (r *DocumentRepository[T]) Count(ctx context.Context, q docstore.Query) (int64, error) {
	return r.col.Count(ctx, q)
}

func (r *DocumentRepository[T]) Update(ctx context.Context, id string, set map[string]any) (T, error) {
	var zero T
	doc, err := r.col.Update(ctx, id, set)
	if err != nil {
		return zero, err
	}
	return decode[T](doc)
}

func (r *DocumentRepository[T]) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func decode[T models.Entity](doc docstore.Document) (T, error) {
	var item T
	if err := doc.Decode(&item); err != nil {
		return item, fmt.Errorf("decode %T: %w", item, err)
	}
	return item, nil
}
