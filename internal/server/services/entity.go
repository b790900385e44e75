package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/auth"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/policy"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/entities"
)

// Archiver snapshots a live record into the archive.
type Archiver interface {
	Archive(ctx context.Context, actor auth.Actor, kind models.Kind, entityID, reason string, metadata map[string]any) (*models.ArchiveRecord, error)
}

// Rules customise an EntityService for one kind.
type Rules[T models.Entity] struct {
	// Prepare runs before every write. existing is nil on create. It may
	// fill derived fields, normalise enums, or reject the write.
	Prepare func(ctx context.Context, item *T, existing *T) error
	// Present is applied to every record returned to callers.
	Present func(T) T
	// SearchFields are matched by ListParams.Search.
	SearchFields []string
}

// ListParams filter an entity listing.
type ListParams struct {
	PageRequest
	Search string
	// Equals holds exact-match conditions on top-level fields.
	Equals map[string]any
	From   *time.Time
	To     *time.Time
}

// EntityService provides CRUD for records of one kind.
type EntityService[T models.Entity] struct {
	kind     models.Kind
	repo     entities.Repository[T]
	archiver Archiver
	rules    Rules[T]
	logger   logging.Logger
}

// NewEntityService builds the service for kind. archiver may be nil for
// kinds that are not archived on delete.
func NewEntityService[T models.Entity](kind models.Kind, repo entities.Repository[T], archiver Archiver, rules Rules[T], logger logging.Logger) *EntityService[T] {
	return &EntityService[T]{
		kind:     kind,
		repo:     repo,
		archiver: archiver,
		rules:    rules,
		logger:   logger.With("module", "entities", "kind", string(kind)),
	}
}

func (s *EntityService[T]) Kind() models.Kind { return s.kind }

func (s *EntityService[T]) canRead(actor auth.Actor) error {
	if !policy.CanRead(actor.Role, s.kind) {
		return forbidden("role %q may not read %s records", actor.Role, s.kind)
	}
	return nil
}

func (s *EntityService[T]) canWrite(actor auth.Actor) error {
	if !policy.CanWrite(actor.Role, s.kind) {
		return forbidden("role %q may not modify %s records", actor.Role, s.kind)
	}
	return nil
}

func (s *EntityService[T]) present(item T) T {
	if s.rules.Present != nil {
		return s.rules.Present(item)
	}
	return item
}

// Create validates item, applies the kind's rules and stores it.
func (s *EntityService[T]) Create(ctx context.Context, actor auth.Actor, item T) (T, error) {
	var zero T
	if err := s.canWrite(actor); err != nil {
		return zero, err
	}
	if s.rules.Prepare != nil {
		if err := s.rules.Prepare(ctx, &item, nil); err != nil {
			return zero, err
		}
	}
	fields, err := docstore.ToFields(item)
	if err != nil {
		return zero, err
	}
	if err := validateRequired(s.kind, fields, nil); err != nil {
		return zero, err
	}

	created, err := s.repo.Create(ctx, item)
	if errors.Is(err, common.ErrorAlreadyExists) {
		return zero, fmt.Errorf("%s %s: %w", s.kind, item.GetID(), common.ErrorConflict)
	}
	if err != nil {
		return zero, err
	}
	s.logger.Info(ctx, "record created", "id", created.GetID(), "actor", actor.ID)
	return s.present(created), nil
}

func (s *EntityService[T]) Get(ctx context.Context, actor auth.Actor, id string) (T, error) {
	var zero T
	if err := s.canRead(actor); err != nil {
		return zero, err
	}
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	return s.present(item), nil
}

// List returns one page of records, newest first.
func (s *EntityService[T]) List(ctx context.Context, actor auth.Actor, p ListParams) (*Page[T], error) {
	if err := s.canRead(actor); err != nil {
		return nil, err
	}
	req := p.PageRequest.normalize()
	q := docstore.Query{
		Equals:      p.Equals,
		CreatedFrom: p.From,
		CreatedTo:   p.To,
		Skip:        req.skip(),
		Limit:       req.Limit,
	}
	if p.Search != "" && len(s.rules.SearchFields) > 0 {
		q.Search = &docstore.Search{Term: p.Search, Fields: s.rules.SearchFields}
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = s.present(items[i])
	}
	return newPage(items, total, req), nil
}

// Update merges partial into the record. Unknown fields and wrongly typed
// values are rejected; required fields that partial touches must stay
// non-empty.
func (s *EntityService[T]) Update(ctx context.Context, actor auth.Actor, id string, partial map[string]any) (T, error) {
	var zero T
	if err := s.canWrite(actor); err != nil {
		return zero, err
	}
	partial = docstore.StripReserved(partial)

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	merged, err := mergePartial(existing, partial)
	if err != nil {
		return zero, err
	}
	if s.rules.Prepare != nil {
		if err := s.rules.Prepare(ctx, &merged, &existing); err != nil {
			return zero, err
		}
	}

	fields, err := docstore.ToFields(merged)
	if err != nil {
		return zero, err
	}
	if err := validateRequired(s.kind, fields, partial); err != nil {
		return zero, err
	}
	// fields dropped by omitempty were cleared by the caller
	for k := range partial {
		if _, ok := fields[k]; !ok {
			fields[k] = nil
		}
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return zero, err
	}
	s.logger.Info(ctx, "record updated", "id", id, "actor", actor.ID)
	return s.present(updated), nil
}

func mergePartial[T any](existing T, partial map[string]any) (T, error) {
	var zero T
	raw, err := json.Marshal(partial)
	if err != nil {
		return zero, common.NewValidationError(err.Error(), "body")
	}

	// type-check against a fresh value so unknown fields are reported
	var decoded T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&decoded); err != nil {
		return zero, common.NewValidationError(err.Error(), "body")
	}

	merged := existing
	if err := json.Unmarshal(raw, &merged); err != nil {
		return zero, common.NewValidationError(err.Error(), "body")
	}
	return merged, nil
}

// Delete removes the record. For archived kinds a snapshot is taken first
// on a best-effort basis.
func (s *EntityService[T]) Delete(ctx context.Context, actor auth.Actor, id, reason string) error {
	if err := s.canWrite(actor); err != nil {
		return err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}

	del := func(ctx context.Context) error { return s.repo.Delete(ctx, id) }
	if s.kind.Archivable() && s.archiver != nil {
		if err := ArchiveBeforeDelete(ctx, s.archiver, s.logger, actor, s.kind, id, reason, del); err != nil {
			return err
		}
	} else if err := del(ctx); err != nil {
		return err
	}
	s.logger.Info(ctx, "record deleted", "id", id, "actor", actor.ID)
	return nil
}

// ArchiveBeforeDelete snapshots the record into the archive and then runs
// del. The two steps are not atomic: a failed snapshot is logged and the
// delete still proceeds.
func ArchiveBeforeDelete(ctx context.Context, a Archiver, logger logging.Logger, actor auth.Actor, kind models.Kind, id, reason string, del func(context.Context) error) error {
	if _, err := a.Archive(ctx, actor, kind, id, reason, map[string]any{"source": "delete"}); err != nil {
		logger.Error(ctx, "archive before delete failed", "kind", string(kind), "id", id, "error", err)
	}
	return del(ctx)
}
