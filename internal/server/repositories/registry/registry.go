// Package registry resolves an archive entity type to the collection that
// holds its live records and to the normalizer applied on restore.
package registry

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
)

// SnapshotRepository reads and writes live records as untyped snapshots.
type SnapshotRepository interface {
	// Get returns the record flattened with its id and timestamps.
	Get(ctx context.Context, id string) (map[string]any, error)
	// Insert stores snapshot under id; an existing id yields
	// common.ErrorAlreadyExists.
	Insert(ctx context.Context, id string, snapshot map[string]any) (map[string]any, error)
	Delete(ctx context.Context, id string) error
	// Count returns the number of live records whose fields equal equals.
	Count(ctx context.Context, equals map[string]any) (int64, error)
}

// Entry is what the registry knows about one kind.
type Entry struct {
	Kind       models.Kind
	Repo       SnapshotRepository
	Normalizer models.Normalizer
	// Unique names the snapshot fields no two live records may share.
	Unique []string
}

// CheckUnique returns common.ErrorConflict naming the first unique field of
// snapshot already taken by a live record. Empty values are not checked.
func (e Entry) CheckUnique(ctx context.Context, snapshot map[string]any) error {
	for _, field := range e.Unique {
		v, ok := snapshot[field]
		if !ok || v == nil || v == "" {
			continue
		}
		n, err := e.Repo.Count(ctx, map[string]any{field: v})
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("a live %s with %s %q already exists: %w", e.Kind, field, fmt.Sprint(v), common.ErrorConflict)
		}
	}
	return nil
}

type Registry struct {
	store docstore.Store
}

func New(store docstore.Store) *Registry {
	return &Registry{store: store}
}

// For returns the entry for an archive-participating kind.
func (r *Registry) For(kind models.Kind) (Entry, error) {
	switch kind {
	case models.KindPrison, models.KindInmate, models.KindWoredaInmate, models.KindNotice,
		models.KindClearance, models.KindVisitor, models.KindReport, models.KindTransfer,
		models.KindIncident, models.KindUser:
		return Entry{
			Kind:       kind,
			Repo:       &snapshotRepo{col: r.store.Collection(kind.Collection())},
			Normalizer: models.NormalizerFor(kind),
			Unique:     models.UniqueFieldsFor(kind),
		}, nil
	default:
		return Entry{}, common.NewValidationError(fmt.Sprintf("unknown entity type %q", kind), "entityType")
	}
}

type snapshotRepo struct {
	col docstore.Collection
}

func (s *snapshotRepo) Get(ctx context.Context, id string) (map[string]any, error) {
	doc, err := s.col.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.Flatten(), nil
}

func (s *snapshotRepo) Insert(ctx context.Context, id string, snapshot map[string]any) (map[string]any, error) {
	doc, err := s.col.Insert(ctx, docstore.Document{ID: id, Fields: snapshot})
	if err != nil {
		return nil, err
	}
	return doc.Flatten(), nil
}

func (s *snapshotRepo) Count(ctx context.Context, equals map[string]any) (int64, error) {
	return s.col.Count(ctx, docstore.Query{Equals: equals})
}

func (s *snapshotRepo) Delete(ctx context.Context, id string) error {
	return s.col.Delete(ctx, id)
}
