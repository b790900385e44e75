package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/cryptox"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/entities"
)

var personSearch = []string{"firstName", "middleName", "lastName"}

func PrisonRules() Rules[models.Prison] {
	return Rules[models.Prison]{SearchFields: []string{"name", "location"}}
}

func InmateRules() Rules[models.Inmate] {
	return Rules[models.Inmate]{
		SearchFields: append(slices.Clone(personSearch), "caseType", "prisonName"),
		Prepare: func(_ context.Context, item *models.Inmate, _ *models.Inmate) error {
			if item.ContactRelationship != "" {
				item.ContactRelationship = models.NormalizeRelationship(string(item.ContactRelationship))
			}
			return nil
		},
	}
}

func WoredaInmateRules() Rules[models.WoredaInmate] {
	return Rules[models.WoredaInmate]{SearchFields: append(slices.Clone(personSearch), "crimeType", "woreda")}
}

func NoticeRules() Rules[models.Notice] {
	return Rules[models.Notice]{
		SearchFields: []string{"title", "description"},
		Prepare: func(_ context.Context, item *models.Notice, _ *models.Notice) error {
			item.Priority = models.NormalizePriority(string(item.Priority))
			return nil
		},
	}
}

func ReportRules() Rules[models.Report] {
	return Rules[models.Report]{SearchFields: []string{"title", "description", "category"}}
}

func TransferRules() Rules[models.Transfer] {
	return Rules[models.Transfer]{SearchFields: []string{"inmateName", "fromPrison", "toPrison"}}
}

func VisitorRules() Rules[models.Visitor] {
	return Rules[models.Visitor]{
		SearchFields: append(slices.Clone(personSearch), "inmateName", "phone"),
		Prepare: func(_ context.Context, item *models.Visitor, _ *models.Visitor) error {
			item.Status = models.NormalizeVisitorStatus(string(item.Status))
			if item.Relationship != "" {
				item.Relationship = models.NormalizeRelationship(string(item.Relationship))
			}
			return nil
		},
	}
}

// ClearanceRules keeps clearanceId unique across live clearances.
func ClearanceRules(repo entities.Repository[models.Clearance]) Rules[models.Clearance] {
	return Rules[models.Clearance]{
		SearchFields: []string{"clearanceId", "inmateName", "reason"},
		Prepare: func(ctx context.Context, item *models.Clearance, existing *models.Clearance) error {
			item.ClearanceID = strings.TrimSpace(item.ClearanceID)
			if item.ClearanceID == "" {
				return nil
			}
			if existing != nil && existing.ClearanceID == item.ClearanceID {
				return nil
			}
			n, err := repo.Count(ctx, docstore.Query{Equals: map[string]any{"clearanceId": item.ClearanceID}})
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("clearance id %q already exists: %w", item.ClearanceID, common.ErrorConflict)
			}
			return nil
		},
	}
}

// IncidentRules derive severity from the inmate's incident history at
// creation time. The derived fields are immutable afterwards.
func IncidentRules(repo entities.Repository[models.Incident]) Rules[models.Incident] {
	return Rules[models.Incident]{
		SearchFields: []string{"inmateName", "incidentType", "description"},
		Prepare: func(ctx context.Context, item *models.Incident, existing *models.Incident) error {
			if existing != nil {
				item.Severity = existing.Severity
				item.RepeatCount = existing.RepeatCount
				item.IsRepeat = existing.IsRepeat
				return nil
			}
			if strings.TrimSpace(item.InmateID) == "" {
				// reported by required-field validation
				return nil
			}
			prior, err := repo.Count(ctx, docstore.Query{Equals: map[string]any{"inmateId": item.InmateID}})
			if err != nil {
				return err
			}
			n := int(prior) + 1
			item.Severity = models.SeverityForCount(n)
			item.RepeatCount = n
			item.IsRepeat = n > 1
			return nil
		},
	}
}

// UserRules enforce unique usernames and valid roles. Password hashes can
// only be set through UserService.
func UserRules(repo entities.Repository[models.User]) Rules[models.User] {
	return Rules[models.User]{
		SearchFields: []string{"username", "firstName", "lastName", "email"},
		Present: func(u models.User) models.User {
			u.PasswordHash = ""
			return u
		},
		Prepare: func(ctx context.Context, item *models.User, existing *models.User) error {
			item.Username = strings.ToLower(strings.TrimSpace(item.Username))
			if !item.Role.Valid() {
				return common.NewValidationError(fmt.Sprintf("unknown role %q", item.Role), "role")
			}
			if existing != nil {
				item.PasswordHash = existing.PasswordHash
				if existing.Username == item.Username {
					return nil
				}
			} else {
				item.PasswordHash = cryptox.PlaceholderHash()
			}
			n, err := repo.Count(ctx, docstore.Query{Equals: map[string]any{"username": item.Username}})
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("username %q is taken: %w", item.Username, common.ErrorConflict)
			}
			return nil
		},
	}
}

func ParoleRules() Rules[models.ParoleRecord] {
	return Rules[models.ParoleRecord]{
		SearchFields: []string{"inmateName", "inmateId"},
		Prepare: func(_ context.Context, item *models.ParoleRecord, _ *models.ParoleRecord) error {
			if item.BehaviorLogs == nil {
				item.BehaviorLogs = []models.BehaviorLog{}
			}
			item.Recompute()
			return nil
		},
	}
}
