package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/dbx"
)

// PostgresStore keeps all collections in a single "documents" table keyed
// by (collection, id) with the fields in a JSONB column.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore wraps an open connection. Migrations must already have
// been applied (see repomanager.RunMigrations).
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *PostgresStore) Collection(name string) Collection {
	return &postgresCollection{db: s.db, name: name, now: s.now}
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *PostgresStore) Close(ctx context.Context) error { return s.db.Close() }

// DB exposes the underlying connection for migrations.
func (s *PostgresStore) DB() *sql.DB { return s.db }

type postgresCollection struct {
	db   *sql.DB
	name string
	now  func() time.Time
}

func (c *postgresCollection) Insert(ctx context.Context, doc Document) (Document, error) {
	if doc.ID == "" {
		return Document{}, fmt.Errorf("insert into %s: empty id", c.name)
	}
	doc.Fields = StripReserved(doc.Fields)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = c.now()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	body, err := json.Marshal(doc.Fields)
	if err != nil {
		return Document{}, fmt.Errorf("encode document: %w", err)
	}

	query := `INSERT INTO documents (collection, id, body, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5)
		ON CONFLICT DO NOTHING`
	res, err := c.db.ExecContext(ctx, query, c.name, doc.ID, string(body), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Document{}, fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return Document{}, fmt.Errorf("insert %s/%s: %w", c.name, doc.ID, common.ErrorAlreadyExists)
	}
	return doc, nil
}

func (c *postgresCollection) Get(ctx context.Context, id string) (Document, error) {
	return getForUpdate(ctx, c.db, c.name, id, false)
}

func getForUpdate(ctx context.Context, db dbx.DBTX, collection, id string, lock bool) (Document, error) {
	query := `SELECT id, body, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`
	if lock {
		query += ` FOR UPDATE`
	}
	doc, err := scanDocument(db.QueryRowContext(ctx, query, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, common.ErrorNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to select document: %w", err)
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc  Document
		body []byte
	)
	if err := row.Scan(&doc.ID, &body, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return Document{}, err
	}
	doc.Fields = map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &doc.Fields); err != nil {
			return Document{}, fmt.Errorf("decode body of %s: %w", doc.ID, err)
		}
	}
	return doc, nil
}

func (c *postgresCollection) Find(ctx context.Context, q Query) ([]Document, error) {
	where, args, err := buildWhere(c.name, q)
	if err != nil {
		return nil, err
	}
	query := `SELECT id, body, created_at, updated_at FROM documents WHERE ` + where +
		` ORDER BY created_at DESC, id DESC`
	skip, limit := clampPage(q)
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if skip > 0 {
		args = append(args, skip)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	result := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *postgresCollection) Count(ctx context.Context, q Query) (int64, error) {
	where, args, err := buildWhere(c.name, q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func (c *postgresCollection) Update(ctx context.Context, id string, set map[string]any) (Document, error) {
	return update(ctx, c.db, c.name, id, set, c.now())
}

func update(ctx context.Context, db dbx.DBTX, collection, id string, set map[string]any, now time.Time) (Document, error) {
	patch, err := json.Marshal(StripReserved(set))
	if err != nil {
		return Document{}, fmt.Errorf("encode patch: %w", err)
	}
	query := `UPDATE documents SET body = body || $3::jsonb, updated_at = $4
		WHERE collection = $1 AND id = $2
		RETURNING id, body, created_at, updated_at`
	doc, err := scanDocument(db.QueryRowContext(ctx, query, collection, id, string(patch), now))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, common.ErrorNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to update document: %w", err)
	}
	return doc, nil
}

// UpdateWhere locks the row, checks cond against the stored body and writes
// the patch in one transaction.
func (c *postgresCollection) UpdateWhere(ctx context.Context, id string, cond map[string]any, set map[string]any) (Document, error) {
	return dbx.InTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) (Document, error) {
		cur, err := getForUpdate(ctx, tx, c.name, id, true)
		if err != nil {
			return Document{}, err
		}
		if !matchesEquals(cur.Fields, cond) {
			return Document{}, ErrPreconditionFailed
		}
		return update(ctx, tx, c.name, id, set, c.now())
	})
}

func (c *postgresCollection) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, c.name, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// jsonPath renders a dotted field path as a JSONB text extraction.
func jsonPath(path string) (string, error) {
	segs, err := splitPath(path)
	if err != nil {
		return "", err
	}
	return "body #>> '{" + strings.Join(segs, ",") + "}'", nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildWhere renders the WHERE clause for q. Map keys are sorted so the
// generated SQL is stable.
func buildWhere(collection string, q Query) (string, []any, error) {
	args := []any{collection}
	parts := []string{"collection = $1"}

	for _, path := range sortedKeys(q.Equals) {
		expr, err := jsonPath(path)
		if err != nil {
			return "", nil, err
		}
		args = append(args, textValue(q.Equals[path]))
		parts = append(parts, fmt.Sprintf("%s = $%d", expr, len(args)))
	}

	for _, path := range sortedKeys(q.In) {
		expr, err := jsonPath(path)
		if err != nil {
			return "", nil, err
		}
		values := q.In[path]
		if len(values) == 0 {
			parts = append(parts, "FALSE")
			continue
		}
		ph := make([]string, len(values))
		for i, v := range values {
			args = append(args, v)
			ph[i] = fmt.Sprintf("$%d", len(args))
		}
		parts = append(parts, fmt.Sprintf("%s IN (%s)", expr, strings.Join(ph, ", ")))
	}

	if q.Search != nil && q.Search.Term != "" && len(q.Search.Fields) > 0 {
		args = append(args, "%"+likeEscaper.Replace(q.Search.Term)+"%")
		n := len(args)
		ors := make([]string, 0, len(q.Search.Fields))
		for _, path := range q.Search.Fields {
			expr, err := jsonPath(path)
			if err != nil {
				return "", nil, err
			}
			ors = append(ors, fmt.Sprintf("%s ILIKE $%d", expr, n))
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
	}

	if q.CreatedFrom != nil {
		args = append(args, *q.CreatedFrom)
		parts = append(parts, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if q.CreatedTo != nil {
		args = append(args, *q.CreatedTo)
		parts = append(parts, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	return strings.Join(parts, " AND "), args, nil
}
