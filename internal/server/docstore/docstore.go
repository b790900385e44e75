// Package docstore is the document persistence layer behind every entity
// collection and the archive collection. A Store hands out named
// Collections of schemaless documents; three backends implement it:
// PostgreSQL (JSONB rows), MongoDB, and an in-memory store used by tests
// and local development.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrPreconditionFailed is returned by UpdateWhere when the document exists
// but does not satisfy the supplied condition.
var ErrPreconditionFailed = errors.New("precondition failed")

// Document is one stored record. Fields never contain the reserved keys
// "id", "createdAt" or "updatedAt"; those live in the typed fields.
type Document struct {
	ID        string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Search is a case-insensitive substring match across several fields; a
// document matches when any field contains Term.
type Search struct {
	Term   string
	Fields []string
}

// Query selects documents. Field paths use dots to reach into nested
// objects ("data.firstName"). All conditions are ANDed. Results are always
// ordered newest first.
type Query struct {
	Equals      map[string]any
	In          map[string][]string
	Search      *Search
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Skip        int64
	Limit       int64
}

// Collection is a set of documents of one kind.
type Collection interface {
	// Insert stores doc. An empty ID is an error; an existing ID yields
	// common.ErrorAlreadyExists. Zero timestamps are set to now.
	Insert(ctx context.Context, doc Document) (Document, error)
	// Get returns common.ErrorNotFound when id is absent.
	Get(ctx context.Context, id string) (Document, error)
	Find(ctx context.Context, q Query) ([]Document, error)
	Count(ctx context.Context, q Query) (int64, error)
	// Update merges set into the top-level fields of the document.
	Update(ctx context.Context, id string, set map[string]any) (Document, error)
	// UpdateWhere is Update guarded by equality conditions evaluated
	// atomically with the write.
	UpdateWhere(ctx context.Context, id string, cond map[string]any, set map[string]any) (Document, error)
	// Delete returns common.ErrorNotFound when id is absent.
	Delete(ctx context.Context, id string) error
}

// Store is a handle to a database of collections.
type Store interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var reservedKeys = []string{"id", "_id", "createdAt", "updatedAt"}

// StripReserved returns a copy of fields without the reserved meta keys.
func StripReserved(fields map[string]any) map[string]any {
	out := CloneFields(fields)
	for _, k := range reservedKeys {
		delete(out, k)
	}
	return out
}

var pathSegment = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// splitPath validates a dotted field path and returns its segments.
func splitPath(path string) ([]string, error) {
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if !pathSegment.MatchString(s) {
			return nil, fmt.Errorf("invalid field path %q", path)
		}
	}
	return segs, nil
}

// Lookup resolves a dotted path inside fields.
func Lookup(fields map[string]any, path string) (any, bool) {
	var cur any = fields
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// CloneFields deep-copies nested maps and slices so callers never share
// mutable state with a store.
func CloneFields(fields map[string]any) map[string]any {
	if fields == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneFields(t)
	case []any:
		cp := make([]any, len(t))
		for i, item := range t {
			cp[i] = cloneValue(item)
		}
		return cp
	default:
		return v
	}
}

// textValue renders a scalar the way equality conditions compare it.
func textValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func clampPage(q Query) (skip, limit int64) {
	skip, limit = q.Skip, q.Limit
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	return skip, limit
}
