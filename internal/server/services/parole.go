package services

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/auth"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/entities"
)

// ParoleService is the entity service for parole records plus behaviour
// log bookkeeping.
type ParoleService struct {
	*EntityService[models.ParoleRecord]
	repo entities.Repository[models.ParoleRecord]
	now  func() time.Time
}

func NewParoleService(repo entities.Repository[models.ParoleRecord], logger logging.Logger) *ParoleService {
	return &ParoleService{
		EntityService: NewEntityService(models.KindParoleRecord, repo, nil, ParoleRules(), logger),
		repo:          repo,
		now:           time.Now,
	}
}

// AddBehaviorLog appends entry to the record and recomputes its point total
// and parole eligibility.
func (s *ParoleService) AddBehaviorLog(ctx context.Context, actor auth.Actor, id string, entry models.BehaviorLog) (models.ParoleRecord, error) {
	if err := s.canWrite(actor); err != nil {
		return models.ParoleRecord{}, err
	}

	verr := &common.ValidationError{}
	if entry.Type != models.BehaviorPositive && entry.Type != models.BehaviorNegative {
		verr.Add("type", "must be positive or negative")
	}
	if entry.Points < 0 {
		verr.Add("points", "must not be negative")
	}
	if strings.TrimSpace(entry.Description) == "" {
		verr.Add("description", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return models.ParoleRecord{}, err
	}

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.ParoleRecord{}, err
	}
	if entry.Date.IsZero() {
		entry.Date = s.now().UTC()
	}
	if entry.RecordedBy == "" {
		entry.RecordedBy = actor.ID
	}
	rec.BehaviorLogs = append(rec.BehaviorLogs, entry)
	rec.Recompute()

	logs, err := docstore.ToValue(rec.BehaviorLogs)
	if err != nil {
		return models.ParoleRecord{}, err
	}
	updated, err := s.repo.Update(ctx, id, map[string]any{
		"behaviorLogs":   logs,
		"totalPoints":    rec.TotalPoints,
		"paroleEligible": rec.ParoleEligible,
	})
	if err != nil {
		return models.ParoleRecord{}, err
	}
	s.logger.Info(ctx, "behavior log added", "id", id, "total_points", updated.TotalPoints, "eligible", updated.ParoleEligible)
	return updated, nil
}
