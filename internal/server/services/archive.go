package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/auth"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/policy"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/archives"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/registry"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/users"
)

// ManualArchiveInput is a caller-supplied snapshot.
type ManualArchiveInput struct {
	EntityType     string         `json:"entityType"`
	OriginalID     string         `json:"originalId"`
	Data           map[string]any `json:"data"`
	DeletedBy      string         `json:"deletedBy"`
	DeletionReason string         `json:"deletionReason"`
	Metadata       map[string]any `json:"metadata"`
}

// ArchiveFilter narrows an archive listing. Empty fields do not filter.
type ArchiveFilter struct {
	PageRequest
	EntityType string
	IsRestored *bool
	From       *time.Time
	To         *time.Time
	Search     string
	DeletedBy  string
}

// RestoredEntity is the result of a successful restore.
type RestoredEntity struct {
	Archive    *models.ArchiveRecord `json:"archive"`
	EntityType models.Kind           `json:"entityType"`
	Entity     map[string]any        `json:"entity"`
}

type ArchiveService struct {
	archives archives.Repository
	registry *registry.Registry
	users    users.Repository
	logger   logging.Logger
	now      func() time.Time
}

func NewArchiveService(a archives.Repository, r *registry.Registry, u users.Repository, logger logging.Logger) *ArchiveService {
	return &ArchiveService{
		archives: a,
		registry: r,
		users:    u,
		logger:   logger.With("module", "archive"),
		now:      time.Now,
	}
}

// Archive snapshots the live record kind/entityID. The record itself is
// left in place.
func (s *ArchiveService) Archive(ctx context.Context, actor auth.Actor, kind models.Kind, entityID, reason string, metadata map[string]any) (rec *models.ArchiveRecord, err error) {
	defer func() { observe("archive", err) }()

	entry, err := s.registry.For(kind)
	if err != nil {
		return nil, err
	}
	snapshot, err := entry.Repo.Get(ctx, entityID)
	if err != nil {
		return nil, err
	}
	rec, err = s.archives.Create(ctx, &models.ArchiveRecord{
		EntityType:     kind,
		OriginalID:     entityID,
		Data:           snapshot,
		DeletedBy:      actor.ID,
		DeletionReason: reason,
		Metadata:       metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("archive %s/%s: %w", kind, entityID, err)
	}
	s.logger.Info(ctx, "entity archived", "archive_id", rec.ID, "kind", string(kind), "original_id", entityID, "actor", actor.ID)
	return redact(rec), nil
}

// redact drops credentials from user snapshots before they leave the
// service. The stored record keeps them so a restored account can log in.
func redact(rec *models.ArchiveRecord) *models.ArchiveRecord {
	if rec != nil && rec.EntityType == models.KindUser {
		delete(rec.Data, "passwordHash")
	}
	return rec
}

// ManualArchive stores a caller-supplied snapshot without reading the live
// record. actor is nil for the unauthenticated variant, in which case the
// asserted deletedBy is stored as given.
func (s *ArchiveService) ManualArchive(ctx context.Context, actor *auth.Actor, in ManualArchiveInput) (rec *models.ArchiveRecord, err error) {
	defer func() { observe("manual_archive", err) }()

	verr := &common.ValidationError{}
	kind, kerr := models.ParseArchiveKind(in.EntityType)
	if kerr != nil {
		verr.Add("entityType", kerr.Error())
	}
	if strings.TrimSpace(in.OriginalID) == "" {
		verr.Add("originalId", "is required")
	}
	if in.Data == nil {
		verr.Add("data", "is required")
	}
	if actor != nil && in.DeletedBy == "" {
		in.DeletedBy = actor.ID
	}
	if strings.TrimSpace(in.DeletedBy) == "" {
		verr.Add("deletedBy", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if actor != nil {
		if policy.Decide(actor.Role, policy.ActionArchive, kind, in.DeletedBy == actor.ID) != policy.Allow {
			return nil, forbidden("role %q may not archive %s records", actor.Role, kind)
		}
	} else {
		s.logger.Warn(ctx, "unauthenticated manual archive trusts caller deletedBy",
			"kind", string(kind), "original_id", in.OriginalID, "deleted_by", in.DeletedBy)
	}

	rec, err = s.archives.Create(ctx, &models.ArchiveRecord{
		EntityType:     kind,
		OriginalID:     in.OriginalID,
		Data:           in.Data,
		DeletedBy:      in.DeletedBy,
		DeletionReason: in.DeletionReason,
		Metadata:       in.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return redact(rec), nil
}

// Restore writes the archived snapshot back under its original id and marks
// the archive restored. The insert and the mark are separate writes.
func (s *ArchiveService) Restore(ctx context.Context, actor auth.Actor, archiveID string) (out *RestoredEntity, err error) {
	defer func() { observe("restore", err) }()

	rec, err := s.archives.Get(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if policy.Decide(actor.Role, policy.ActionRestore, rec.EntityType, rec.DeletedBy == actor.ID) != policy.Allow {
		return nil, forbidden("role %q may not restore %s archives", actor.Role, rec.EntityType)
	}
	if rec.IsRestored {
		return nil, common.ErrAlreadyRestored
	}

	entry, err := s.registry.For(rec.EntityType)
	if err != nil {
		return nil, err
	}
	snapshot := entry.Normalizer(rec.Data, rec.OriginalID)
	if err := entry.CheckUnique(ctx, snapshot); err != nil {
		return nil, err
	}

	entity, err := entry.Repo.Insert(ctx, rec.OriginalID, snapshot)
	if errors.Is(err, common.ErrorAlreadyExists) {
		return nil, fmt.Errorf("a %s with id %s already exists: %w", rec.EntityType, rec.OriginalID, common.ErrorConflict)
	}
	if err != nil {
		return nil, err
	}

	marked, err := s.archives.MarkRestored(ctx, rec.ID, actor.ID, s.now())
	if err != nil {
		s.logger.Error(ctx, "entity restored but archive not marked", "archive_id", rec.ID, "error", err)
		return nil, err
	}
	s.logger.Info(ctx, "archive restored", "archive_id", rec.ID, "kind", string(rec.EntityType), "original_id", rec.OriginalID, "actor", actor.ID)

	if rec.EntityType == models.KindUser {
		delete(entity, "passwordHash")
	}
	return &RestoredEntity{Archive: redact(marked), EntityType: rec.EntityType, Entity: entity}, nil
}

// List returns the archives the actor's role may see that match f.
func (s *ArchiveService) List(ctx context.Context, actor auth.Actor, f ArchiveFilter) (*Page[*models.ArchiveRecord], error) {
	req := f.PageRequest.normalize()
	scope := policy.ListScope(actor.Role)

	q := docstore.Query{
		Equals:      map[string]any{},
		CreatedFrom: f.From,
		CreatedTo:   f.To,
		Skip:        req.skip(),
		Limit:       req.Limit,
	}

	if f.EntityType != "" {
		kind, err := models.ParseArchiveKind(f.EntityType)
		if err != nil {
			return nil, common.NewValidationError(err.Error(), "entityType")
		}
		if !scope.Permits(kind) {
			return nil, forbidden("role %q may not list %s archives", actor.Role, kind)
		}
		q.Equals["entityType"] = string(kind)
	} else if !scope.AnyKind {
		kinds := make([]string, len(scope.Kinds))
		for i, k := range scope.Kinds {
			kinds[i] = string(k)
		}
		q.In = map[string][]string{"entityType": kinds}
	}

	if scope.OwnerOnly {
		if f.DeletedBy != "" && f.DeletedBy != actor.ID {
			return newPage[*models.ArchiveRecord](nil, 0, req), nil
		}
		q.Equals["deletedBy"] = actor.ID
	} else if f.DeletedBy != "" {
		q.Equals["deletedBy"] = f.DeletedBy
	}

	if f.IsRestored != nil {
		q.Equals["isRestored"] = *f.IsRestored
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		q.Search = &docstore.Search{Term: term, Fields: models.ArchiveSearchFields}
	}

	items, total, err := s.archives.List(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, rec := range items {
		redact(rec)
	}
	return newPage(items, total, req), nil
}

// Get returns one archive with the display names of its deleter and
// restorer. Unknown users leave the name empty.
func (s *ArchiveService) Get(ctx context.Context, actor auth.Actor, id string) (*models.ArchiveView, error) {
	rec, err := s.archives.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if policy.Decide(actor.Role, policy.ActionView, rec.EntityType, rec.DeletedBy == actor.ID) != policy.Allow {
		return nil, forbidden("role %q may not view %s archives", actor.Role, rec.EntityType)
	}

	view := &models.ArchiveView{ArchiveRecord: *redact(rec)}
	ids := []string{rec.DeletedBy}
	if rec.RestoredBy != nil {
		ids = append(ids, *rec.RestoredBy)
	}
	names, err := s.users.DisplayNames(ctx, ids...)
	if err != nil {
		s.logger.Warn(ctx, "resolving archive user names failed", "archive_id", id, "error", err)
		return view, nil
	}
	view.DeletedByName = names[rec.DeletedBy]
	if rec.RestoredBy != nil {
		view.RestoredByName = names[*rec.RestoredBy]
	}
	return view, nil
}

// PermanentlyDelete removes an archive record for good. Restored records
// can never be deleted, whatever the role.
func (s *ArchiveService) PermanentlyDelete(ctx context.Context, actor auth.Actor, id string) (err error) {
	defer func() { observe("permanent_delete", err) }()

	rec, err := s.archives.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.IsRestored {
		return common.ErrRestoredDelete
	}
	if policy.Decide(actor.Role, policy.ActionDelete, rec.EntityType, rec.DeletedBy == actor.ID) != policy.Allow {
		return forbidden("role %q may not delete %s archives", actor.Role, rec.EntityType)
	}
	if err := s.archives.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "archive permanently deleted", "archive_id", id, "kind", string(rec.EntityType), "actor", actor.ID)
	return nil
}
