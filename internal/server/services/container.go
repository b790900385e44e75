package services

import (
	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/config"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/repomanager"
)

// Services groups every service bound to one repository manager.
type Services struct {
	Archive *ArchiveService
	Users   *UserService
	Uploads *UploadService
	Stats   *StatsService

	Prisons       *EntityService[models.Prison]
	Inmates       *EntityService[models.Inmate]
	WoredaInmates *EntityService[models.WoredaInmate]
	Notices       *EntityService[models.Notice]
	Clearances    *EntityService[models.Clearance]
	Visitors      *EntityService[models.Visitor]
	Reports       *EntityService[models.Report]
	Transfers     *EntityService[models.Transfer]
	Incidents     *EntityService[models.Incident]
	UserRecords   *EntityService[models.User]
	Parole        *ParoleService
}

func New(m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *Services {
	archive := NewArchiveService(m.Archives(), m.Registry(), m.Users(), logger)

	clearances := repomanager.Entities[models.Clearance](m, models.KindClearance)
	incidents := repomanager.Entities[models.Incident](m, models.KindIncident)
	userRecords := repomanager.Entities[models.User](m, models.KindUser)

	return &Services{
		Archive: archive,
		Users:   NewUserService(m.Users(), m.RefreshTokens(), cfg, logger),
		Uploads: NewUploadService(cfg, logger),
		Stats:   NewStatsService(m.Store(), logger),

		Prisons:       NewEntityService(models.KindPrison, repomanager.Entities[models.Prison](m, models.KindPrison), archive, PrisonRules(), logger),
		Inmates:       NewEntityService(models.KindInmate, repomanager.Entities[models.Inmate](m, models.KindInmate), archive, InmateRules(), logger),
		WoredaInmates: NewEntityService(models.KindWoredaInmate, repomanager.Entities[models.WoredaInmate](m, models.KindWoredaInmate), archive, WoredaInmateRules(), logger),
		Notices:       NewEntityService(models.KindNotice, repomanager.Entities[models.Notice](m, models.KindNotice), archive, NoticeRules(), logger),
		Clearances:    NewEntityService(models.KindClearance, clearances, archive, ClearanceRules(clearances), logger),
		Visitors:      NewEntityService(models.KindVisitor, repomanager.Entities[models.Visitor](m, models.KindVisitor), archive, VisitorRules(), logger),
		Reports:       NewEntityService(models.KindReport, repomanager.Entities[models.Report](m, models.KindReport), archive, ReportRules(), logger),
		Transfers:     NewEntityService(models.KindTransfer, repomanager.Entities[models.Transfer](m, models.KindTransfer), archive, TransferRules(), logger),
		Incidents:     NewEntityService(models.KindIncident, incidents, archive, IncidentRules(incidents), logger),
		UserRecords:   NewEntityService(models.KindUser, userRecords, archive, UserRules(userRecords), logger),
		Parole:        NewParoleService(repomanager.Entities[models.ParoleRecord](m, models.KindParoleRecord), logger),
	}
}
