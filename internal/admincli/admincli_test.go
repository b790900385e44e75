package admincli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/auth"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/config"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = auth.Actor{ID: "prisonctl", Role: models.RoleAdmin}

func testConfig() *config.Config {
	return &config.Config{
		DatabaseDSN:                  "memory://",
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		S3Region:                     "us-east-1",
		S3RootUser:                   "minioadmin",
		S3RootPassword:               "minioadmin",
		S3Bucket:                     "prison-files",
		Environment:                  config.EnvDevelopment,
	}
}

// setup points the CLI at a shared in-memory store and returns services
// bound to the same store for assertions.
func setup(t *testing.T, cfg *config.Config) *services.Services {
	t.Helper()
	m := repomanager.NewManager(docstore.NewMemoryStore())

	oldLoad, oldOpen := loadConfig, openRepositories
	t.Cleanup(func() { loadConfig, openRepositories = oldLoad, oldOpen })

	loadConfig = func([]string) (*config.Config, error) { return cfg, nil }
	openRepositories = func(context.Context, *config.Config) (repomanager.RepositoryManager, error) { return m, nil }

	return services.New(m, cfg, logging.Nop{})
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(answers) {
			return nil, io.EOF
		}
		i++
		return []byte(answers[i-1]), nil
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, &out, &errOut)
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	setup(t, testConfig())
	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "store is up to date")
}

func TestOpenErrorPropagates(t *testing.T) {
	setup(t, testConfig())
	openRepositories = func(context.Context, *config.Config) (repomanager.RepositoryManager, error) {
		return nil, errors.New("connection refused")
	}
	_, err := run(t, "archive", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestConfigArgs(t *testing.T) {
	o := &globalOptions{dsn: "memory://", envFile: "prod.env"}
	assert.Equal(t, []string{"-env", "prod.env", "-d", "memory://"}, o.configArgs())
	assert.Empty(t, (&globalOptions{}).configArgs())
}

func TestUserCreate(t *testing.T) {
	svc := setup(t, testConfig())
	stubPasswords(t, "Gate-keeper1", "Gate-keeper1")

	out, err := run(t, "user", "create", "warden", "--role", "security", "--first-name", "Abebe")
	require.NoError(t, err)
	assert.Contains(t, out, "created user warden")
	assert.Contains(t, out, "role security")

	tokens, err := svc.Users.Login(context.Background(), "warden", "Gate-keeper1")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestUserCreate_PasswordMismatch(t *testing.T) {
	setup(t, testConfig())
	stubPasswords(t, "one", "two")

	_, err := run(t, "user", "create", "warden")
	require.ErrorIs(t, err, errPasswordMismatch)
}

func TestUserCreate_InvalidRole(t *testing.T) {
	setup(t, testConfig())
	stubPasswords(t, "Gate-keeper1", "Gate-keeper1")

	_, err := run(t, "user", "create", "warden", "--role", "janitor")
	require.Error(t, err)
}

func TestUserPasswd(t *testing.T) {
	svc := setup(t, testConfig())
	u, err := svc.Users.CreateUser(context.Background(), admin, services.NewUserInput{
		Username: "clerk", Password: "first-pass1", Role: models.RoleCourt,
	})
	require.NoError(t, err)

	stubPasswords(t, "second-pass2", "second-pass2")
	out, err := run(t, "user", "passwd", u.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "password updated")

	_, err = svc.Users.Login(context.Background(), "clerk", "second-pass2")
	require.NoError(t, err)
}

func seedArchive(t *testing.T, svc *services.Services) *models.ArchiveRecord {
	t.Helper()
	rec, err := svc.Archive.ManualArchive(context.Background(), &admin, services.ManualArchiveInput{
		EntityType: "inmate",
		OriginalID: "inmate-42",
		Data: map[string]any{
			"firstName": "Kebede", "lastName": "Alemu", "gender": "male", "caseType": "theft",
		},
		DeletedBy:      admin.ID,
		DeletionReason: "duplicate",
	})
	require.NoError(t, err)
	return rec
}

func TestArchiveList_Table(t *testing.T) {
	svc := setup(t, testConfig())
	rec := seedArchive(t, svc)

	out, err := run(t, "archive", "list")
	require.NoError(t, err)
	assert.Contains(t, out, rec.ID)
	assert.Contains(t, out, "inmate-42")
	assert.Contains(t, out, "duplicate")
	assert.Contains(t, out, "total 1")
}

func TestArchiveList_JSONAndFilters(t *testing.T) {
	svc := setup(t, testConfig())
	seedArchive(t, svc)

	out, err := run(t, "archive", "list", "--format", "json", "--restored", "false", "--type", "inmate")
	require.NoError(t, err)

	var page services.Page[*models.ArchiveRecord]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "inmate-42", page.Items[0].OriginalID)

	out, err = run(t, "archive", "list", "--format", "json", "--restored", "true")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, int64(0), page.Total)
}

func TestArchiveList_BadFlags(t *testing.T) {
	setup(t, testConfig())

	_, err := run(t, "archive", "list", "--format", "xml")
	require.Error(t, err)

	_, err = run(t, "archive", "list", "--restored", "maybe")
	require.Error(t, err)

	_, err = run(t, "archive", "list", "--from", "17/10/2026")
	require.Error(t, err)
}

func TestArchiveRestore(t *testing.T) {
	svc := setup(t, testConfig())
	rec := seedArchive(t, svc)

	out, err := run(t, "archive", "restore", rec.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "restored inmate inmate-42")

	in, err := svc.Inmates.Get(context.Background(), admin, "inmate-42")
	require.NoError(t, err)
	assert.Equal(t, "Kebede", in.FirstName)

	_, err = run(t, "archive", "restore", rec.ID)
	require.Error(t, err)
}

func TestStats_JSON(t *testing.T) {
	svc := setup(t, testConfig())
	_, err := svc.Inmates.Create(context.Background(), admin, models.Inmate{
		FirstName: "Kebede", LastName: "Alemu", Gender: "male", CaseType: "theft",
	})
	require.NoError(t, err)

	out, err := run(t, "stats", "--format", "json", "--period", "week")
	require.NoError(t, err)

	var d services.Dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, int64(1), d.Inmates.Current)
	assert.Equal(t, int64(0), d.Inmates.Previous)
}

func TestStats_Table(t *testing.T) {
	setup(t, testConfig())

	out, err := run(t, "stats")
	require.NoError(t, err)
	for _, want := range []string{"inmates", "incidents Critical", "visitor approval %", "active archives"} {
		assert.Contains(t, out, want)
	}
}

func TestStats_HalfRange(t *testing.T) {
	setup(t, testConfig())
	_, err := run(t, "stats", "--from", "2026-01-01")
	require.Error(t, err)
}

func TestUpload(t *testing.T) {
	var gotPath, gotMethod, gotCT string
	var gotBody []byte
	s3 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod, gotCT = r.URL.Path, r.Method, r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer s3.Close()

	cfg := testConfig()
	cfg.S3BaseEndpoint = s3.URL
	setup(t, cfg)

	path := filepath.Join(t.TempDir(), "notice.txt")
	require.NoError(t, os.WriteFile(path, []byte("visiting hours changed"), 0o600))

	out, err := run(t, "upload", "--purpose", services.PurposeNoticeAttachment, path)
	require.NoError(t, err)

	key := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(key, "uploads/notice-attachment/"), key)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/prison-files/"+key, gotPath)
	assert.Equal(t, "text/plain; charset=utf-8", gotCT)
	assert.Equal(t, "visiting hours changed", string(gotBody))
}

func TestUpload_UnknownPurpose(t *testing.T) {
	setup(t, testConfig())
	path := filepath.Join(t.TempDir(), "x.bin")
	require.NoError(t, os.WriteFile(path, []byte{1}, 0o600))

	_, err := run(t, "upload", "--purpose", "selfie", path)
	require.Error(t, err)
}
