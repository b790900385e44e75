package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/auth"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingArchiver struct{ calls int }

func (f *failingArchiver) Archive(context.Context, auth.Actor, models.Kind, string, string, map[string]any) (*models.ArchiveRecord, error) {
	f.calls++
	return nil, errors.New("store unavailable")
}

func TestDelete_SucceedsWhenArchiveFails(t *testing.T) {
	ctx := context.Background()
	_, m := newTestServices(t)
	arch := &failingArchiver{}
	svc := NewEntityService(models.KindTransfer, repomanager.Entities[models.Transfer](m, models.KindTransfer), arch, TransferRules(), logging.Nop{})

	tr, err := svc.Create(ctx, police, models.Transfer{InmateID: "i1", FromPrison: "Kality", ToPrison: "Kilinto", Reason: "court"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, police, tr.ID, ""))
	assert.Equal(t, 1, arch.calls)

	_, err = svc.Get(ctx, police, tr.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestArchiveBeforeDelete_PropagatesDeleteError(t *testing.T) {
	want := errors.New("delete failed")
	err := ArchiveBeforeDelete(context.Background(), &failingArchiver{}, logging.Nop{}, admin, models.KindReport, "r1", "",
		func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestDelete_MissingRecordIsNotFound(t *testing.T) {
	s, m := newTestServices(t)
	err := s.Reports.Delete(context.Background(), admin, "nope", "")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	n, err := m.Archives().Count(context.Background(), docstore.Query{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDelete_ParoleRecordIsNotArchived(t *testing.T) {
	ctx := context.Background()
	s, m := newTestServices(t)
	rec, err := s.Parole.Create(ctx, court, models.ParoleRecord{InmateID: "i1"})
	require.NoError(t, err)
	require.NoError(t, s.Parole.Delete(ctx, court, rec.ID, ""))

	n, err := m.Archives().Count(ctx, docstore.Query{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreate_Access(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestServices(t)

	_, err := s.Inmates.Create(ctx, court, models.Inmate{FirstName: "a", LastName: "b", Gender: "male", CaseType: "c"})
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = s.Prisons.Create(ctx, inspector, models.Prison{Name: "Kality", Location: "Addis Ababa"})
	assert.NoError(t, err)

	_, err = s.UserRecords.List(ctx, security, ListParams{})
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = s.Prisons.List(ctx, auth.Actor{ID: "x", Role: "janitor"}, ListParams{})
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestCreate_RequiredFields(t *testing.T) {
	s, _ := newTestServices(t)
	_, err := s.Inmates.Create(context.Background(), security, models.Inmate{FirstName: "a"})
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["lastName"])
	assert.True(t, fields["gender"])
	assert.True(t, fields["caseType"])
	assert.False(t, fields["firstName"])
}

func TestUpdate_Partial(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestServices(t)
	in := newInmate(t, s, security, "Abebe")

	up, err := s.Inmates.Update(ctx, security, in.ID, map[string]any{"sentence": "5y", "id": "hijack"})
	require.NoError(t, err)
	assert.Equal(t, in.ID, up.ID)
	assert.Equal(t, "5y", up.Sentence)
	assert.Equal(t, "Abebe", up.FirstName)

	_, err = s.Inmates.Update(ctx, security, in.ID, map[string]any{"firstName": ""})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Inmates.Update(ctx, security, in.ID, map[string]any{"shoeSize": 44})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Inmates.Update(ctx, security, in.ID, map[string]any{"firstName": 7})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Inmates.Update(ctx, security, "missing", map[string]any{"sentence": "1y"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_SearchAndPaging(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestServices(t)
	for _, name := range []string{"Abebe", "Almaz", "Bekele"} {
		newInmate(t, s, security, name)
	}

	page, err := s.Inmates.List(ctx, court, ListParams{Search: "al"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Almaz", page.Items[0].FirstName)

	page, err = s.Inmates.List(ctx, court, ListParams{PageRequest: PageRequest{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(2), page.Pages)
	// newest first
	assert.Equal(t, "Bekele", page.Items[0].FirstName)
}

func TestIncidentSeverityFollowsHistory(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestServices(t)

	want := []models.Severity{
		models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityHigh, models.SeverityCritical, models.SeverityCritical,
	}
	var last models.Incident
	for i, sev := range want {
		inc, err := s.Incidents.Create(ctx, police, models.Incident{
			InmateID: "inmate-7", IncidentType: "fight", Description: "yard", Severity: models.SeverityLow,
		})
		require.NoError(t, err)
		assert.Equal(t, sev, inc.Severity, "incident %d", i+1)
		assert.Equal(t, i+1, inc.RepeatCount)
		assert.Equal(t, i > 0, inc.IsRepeat)
		if i == 4 {
			last = inc
		}
	}
	assert.Equal(t, models.SeverityCritical, last.Severity)
	assert.Equal(t, 5, last.RepeatCount)
	assert.True(t, last.IsRepeat)

	other, err := s.Incidents.Create(ctx, police, models.Incident{InmateID: "inmate-8", IncidentType: "theft", Description: "cell"})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityLow, other.Severity)

	up, err := s.Incidents.Update(ctx, police, other.ID, map[string]any{"severity": "Critical", "status": "closed"})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityLow, up.Severity)
	assert.Equal(t, "closed", up.Status)
}

func TestClearanceIDIsUnique(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestServices(t)

	c1, err := s.Clearances.Create(ctx, court, models.Clearance{ClearanceID: "CL-1", InmateID: "i1", Reason: "served"})
	require.NoError(t, err)

	_, err = s.Clearances.Create(ctx, security, models.Clearance{ClearanceID: "CL-1", InmateID: "i2", Reason: "served"})
	assert.ErrorIs(t, err, common.ErrorConflict)

	_, err = s.Clearances.Update(ctx, court, c1.ID, map[string]any{"reason": "appeal"})
	assert.NoError(t, err)

	c2, err := s.Clearances.Create(ctx, court, models.Clearance{ClearanceID: "CL-2", InmateID: "i2", Reason: "served"})
	require.NoError(t, err)
	_, err = s.Clearances.Update(ctx, court, c2.ID, map[string]any{"clearanceId": "CL-1"})
	assert.ErrorIs(t, err, common.ErrorConflict)
}

func TestUserRecords(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestServices(t)

	u, err := s.UserRecords.Create(ctx, admin, models.User{Username: " Dawit ", Role: models.RoleWoreda, PasswordHash: "chosen-by-client"})
	require.NoError(t, err)
	assert.Equal(t, "dawit", u.Username)
	assert.Empty(t, u.PasswordHash)

	stored, err := s.Users.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "chosen-by-client", stored.PasswordHash)

	_, err = s.UserRecords.Create(ctx, admin, models.User{Username: "DAWIT", Role: models.RoleCourt})
	assert.ErrorIs(t, err, common.ErrorConflict)

	_, err = s.UserRecords.Create(ctx, admin, models.User{Username: "x", Role: "warden"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	up, err := s.UserRecords.Update(ctx, admin, u.ID, map[string]any{"firstName": "Dawit"})
	require.NoError(t, err)
	assert.Empty(t, up.PasswordHash)
	again, err := s.Users.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.PasswordHash, again.PasswordHash)
}

func TestEnumNormalisationOnCreate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestServices(t)

	n, err := s.Notices.Create(ctx, inspector, models.Notice{Title: "t", Description: "d", Priority: "critical"})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, n.Priority)

	v, err := s.Visitors.Create(ctx, security, models.Visitor{FirstName: "a", LastName: "b", Phone: "1", InmateID: "i1", Relationship: "Mother"})
	require.NoError(t, err)
	assert.Equal(t, models.VisitorPending, v.Status)
	assert.Equal(t, models.RelationshipParent, v.Relationship)
}

func TestPersonSearchFieldsAreIndependent(t *testing.T) {
	inmate := InmateRules().SearchFields
	woreda := WoredaInmateRules().SearchFields
	visitor := VisitorRules().SearchFields

	assert.Equal(t, []string{"firstName", "middleName", "lastName", "caseType", "prisonName"}, inmate)
	assert.Equal(t, []string{"firstName", "middleName", "lastName", "crimeType", "woreda"}, woreda)
	assert.Equal(t, []string{"firstName", "middleName", "lastName"}, visitor[:3])

	inmate[0] = "changed"
	assert.Equal(t, "firstName", woreda[0])
	assert.Equal(t, "firstName", visitor[0])
	assert.Equal(t, []string{"firstName", "middleName", "lastName"}, personSearch)
}
