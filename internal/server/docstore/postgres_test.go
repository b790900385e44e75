package docstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docColumns = []string{"id", "body", "created_at", "updated_at"}

func newPGWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s := NewPostgresStore(db)
	s.now = func() time.Time { return time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestPostgres_Insert(t *testing.T) {
	s, mock := newPGWithMock(t)
	col := s.Collection("prisons")
	ts := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO documents .* ON CONFLICT DO NOTHING`).
		WithArgs("prisons", "p1", `{"name":"Kality"}`, ts, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	doc, err := col.Insert(context.Background(), Document{ID: "p1", Fields: map[string]any{"name": "Kality", "id": "p1"}})
	require.NoError(t, err)
	assert.Equal(t, ts, doc.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertDuplicate(t *testing.T) {
	s, mock := newPGWithMock(t)
	mock.ExpectExec(`INSERT INTO documents`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.Collection("prisons").Insert(context.Background(), Document{ID: "p1"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestPostgres_InsertDBError(t *testing.T) {
	s, mock := newPGWithMock(t)
	mock.ExpectExec(`INSERT INTO documents`).WillReturnError(errors.New("conn reset"))

	_, err := s.Collection("prisons").Insert(context.Background(), Document{ID: "p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestPostgres_Get(t *testing.T) {
	s, mock := newPGWithMock(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, body, created_at, updated_at FROM documents WHERE collection = \$1 AND id = \$2$`).
		WithArgs("inmates", "i1").
		WillReturnRows(sqlmock.NewRows(docColumns).AddRow("i1", []byte(`{"firstName":"Abebe","data":{"n":1}}`), ts, ts))

	doc, err := s.Collection("inmates").Get(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "Abebe", doc.Fields["firstName"])
	assert.Equal(t, map[string]any{"n": float64(1)}, doc.Fields["data"])

	mock.ExpectQuery(`SELECT id, body`).WillReturnError(sql.ErrNoRows)
	_, err = s.Collection("inmates").Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgres_FindWithPaging(t *testing.T) {
	s, mock := newPGWithMock(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, body, created_at, updated_at FROM documents WHERE collection = $1 AND body #>> '{isRestored}' = $2 ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`)).
		WithArgs("archives", "false", int64(10), int64(20)).
		WillReturnRows(sqlmock.NewRows(docColumns).
			AddRow("a2", []byte(`{}`), ts, ts).
			AddRow("a1", []byte(`{}`), ts, ts))

	docs, err := s.Collection("archives").Find(context.Background(), Query{
		Equals: map[string]any{"isRestored": false},
		Skip:   20,
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a2", docs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Count(t *testing.T) {
	s, mock := newPGWithMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM documents WHERE collection = \$1`).
		WithArgs("visitors").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := s.Collection("visitors").Count(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestPostgres_Update(t *testing.T) {
	s, mock := newPGWithMock(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE documents SET body = body \|\| \$3::jsonb`).
		WithArgs("notices", "n1", `{"priority":"high"}`, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(docColumns).AddRow("n1", []byte(`{"priority":"high"}`), ts, ts))

	doc, err := s.Collection("notices").Update(context.Background(), "n1", map[string]any{"priority": "high"})
	require.NoError(t, err)
	assert.Equal(t, "high", doc.Fields["priority"])

	mock.ExpectQuery(`UPDATE documents`).WillReturnError(sql.ErrNoRows)
	_, err = s.Collection("notices").Update(context.Background(), "n2", map[string]any{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgres_UpdateWhere(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cond := map[string]any{"isRestored": false}

	t.Run("commits when condition holds", func(t *testing.T) {
		s, mock := newPGWithMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, body, created_at, updated_at FROM documents .* FOR UPDATE`).
			WithArgs("archives", "a1").
			WillReturnRows(sqlmock.NewRows(docColumns).AddRow("a1", []byte(`{"isRestored":false}`), ts, ts))
		mock.ExpectQuery(`UPDATE documents`).
			WillReturnRows(sqlmock.NewRows(docColumns).AddRow("a1", []byte(`{"isRestored":true}`), ts, ts))
		mock.ExpectCommit()

		doc, err := s.Collection("archives").UpdateWhere(context.Background(), "a1", cond, map[string]any{"isRestored": true})
		require.NoError(t, err)
		assert.Equal(t, true, doc.Fields["isRestored"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when condition fails", func(t *testing.T) {
		s, mock := newPGWithMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(docColumns).AddRow("a1", []byte(`{"isRestored":true}`), ts, ts))
		mock.ExpectRollback()

		_, err := s.Collection("archives").UpdateWhere(context.Background(), "a1", cond, map[string]any{"isRestored": true})
		assert.ErrorIs(t, err, ErrPreconditionFailed)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newPGWithMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := s.Collection("archives").UpdateWhere(context.Background(), "a1", cond, nil)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestPostgres_Delete(t *testing.T) {
	s, mock := newPGWithMock(t)
	mock.ExpectExec(`DELETE FROM documents WHERE collection = \$1 AND id = \$2`).
		WithArgs("reports", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Collection("reports").Delete(context.Background(), "r1"))

	mock.ExpectExec(`DELETE FROM documents`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.Collection("reports").Delete(context.Background(), "r1"), common.ErrorNotFound)
}

func TestBuildWhere(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	where, args, err := buildWhere("archives", Query{
		Equals:      map[string]any{"isRestored": true, "deletedBy": "u1"},
		In:          map[string][]string{"entityType": {"inmate", "visitor"}},
		Search:      &Search{Term: "50%_off", Fields: []string{"originalId", "data.firstName"}},
		CreatedFrom: &from,
		CreatedTo:   &to,
	})
	require.NoError(t, err)
	assert.Equal(t, "collection = $1"+
		" AND body #>> '{deletedBy}' = $2"+
		" AND body #>> '{isRestored}' = $3"+
		" AND body #>> '{entityType}' IN ($4, $5)"+
		" AND (body #>> '{originalId}' ILIKE $6 OR body #>> '{data,firstName}' ILIKE $6)"+
		" AND created_at >= $7 AND created_at <= $8", where)
	assert.Equal(t, []any{"archives", "u1", "true", "inmate", "visitor", `%50\%\_off%`, from, to}, args)

	where, _, err = buildWhere("x", Query{In: map[string][]string{"entityType": nil}})
	require.NoError(t, err)
	assert.Equal(t, "collection = $1 AND FALSE", where)

	_, _, err = buildWhere("x", Query{Equals: map[string]any{"a'; DROP TABLE documents; --": 1}})
	assert.Error(t, err)
}
