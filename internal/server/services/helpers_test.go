package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/auth"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/config"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

var (
	admin     = auth.Actor{ID: "admin-1", Role: models.RoleAdmin}
	security  = auth.Actor{ID: "sec-1", Role: models.RoleSecurity}
	security2 = auth.Actor{ID: "sec-2", Role: models.RoleSecurity}
	court     = auth.Actor{ID: "court-1", Role: models.RoleCourt}
	police    = auth.Actor{ID: "police-1", Role: models.RolePoliceOfficer}
	inspector = auth.Actor{ID: "insp-1", Role: models.RoleInspector}
	woreda    = auth.Actor{ID: "woreda-1", Role: models.RoleWoreda}
	visitor   = auth.Actor{ID: "visitor-1", Role: models.RoleVisitor}
)

var allActors = []auth.Actor{admin, security, court, police, inspector, woreda, visitor}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		S3Region:                     "us-east-1",
		S3RootUser:                   "minioadmin",
		S3RootPassword:               "minioadmin",
		S3BaseEndpoint:               "http://127.0.0.1:9000",
		S3Bucket:                     "prison-files",
	}
}

func newTestServices(t *testing.T, opts ...docstore.MemoryOption) (*Services, *repomanager.Manager) {
	t.Helper()
	m := repomanager.NewManager(docstore.NewMemoryStore(opts...))
	return New(m, testConfig(), logging.Nop{}), m
}

func newInmate(t *testing.T, s *Services, actor auth.Actor, first string) models.Inmate {
	t.Helper()
	in, err := s.Inmates.Create(context.Background(), actor, models.Inmate{
		FirstName: first,
		LastName:  "Tesfaye",
		Gender:    "male",
		CaseType:  "theft",
	})
	require.NoError(t, err)
	return in
}

// archiveFor stores an archive record directly, bypassing the policy.
func archiveFor(t *testing.T, m *repomanager.Manager, kind models.Kind, deletedBy string, data map[string]any) *models.ArchiveRecord {
	t.Helper()
	if data == nil {
		data = map[string]any{"name": "x"}
	}
	rec, err := m.Archives().Create(context.Background(), &models.ArchiveRecord{
		EntityType: kind,
		OriginalID: "orig-" + string(kind) + "-" + deletedBy,
		Data:       data,
		DeletedBy:  deletedBy,
	})
	require.NoError(t, err)
	return rec
}
