package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
)

type memoryDoc struct {
	doc Document
	seq uint64
}

// MemoryStore keeps every collection in process memory. Values handed in
// and out are deep copies.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]map[string]memoryDoc
	seq   uint64
	clock func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for store-assigned timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.clock = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		data:  make(map[string]map[string]memoryDoc),
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *MemoryStore) Collection(name string) Collection {
	return &memoryCollection{store: s, name: name}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

type memoryCollection struct {
	store *MemoryStore
	name  string
}

func (c *memoryCollection) docs() map[string]memoryDoc {
	m, ok := c.store.data[c.name]
	if !ok {
		m = make(map[string]memoryDoc)
		c.store.data[c.name] = m
	}
	return m
}

func copyDoc(d Document) Document {
	d.Fields = CloneFields(d.Fields)
	return d
}

func (c *memoryCollection) Insert(ctx context.Context, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if doc.ID == "" {
		return Document{}, fmt.Errorf("insert into %s: empty id", c.name)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.docs()
	if _, ok := docs[doc.ID]; ok {
		return Document{}, fmt.Errorf("insert %s/%s: %w", c.name, doc.ID, common.ErrorAlreadyExists)
	}

	now := c.store.clock()
	doc = copyDoc(doc)
	doc.Fields = StripReserved(doc.Fields)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	c.store.seq++
	docs[doc.ID] = memoryDoc{doc: doc, seq: c.store.seq}
	return copyDoc(doc), nil
}

func (c *memoryCollection) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	md, ok := c.store.data[c.name][id]
	if !ok {
		return Document{}, common.ErrorNotFound
	}
	return copyDoc(md.doc), nil
}

func (c *memoryCollection) Find(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matched, err := c.match(q)
	if err != nil {
		return nil, err
	}

	skip, limit := clampPage(q)
	if skip >= int64(len(matched)) {
		return []Document{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < int64(len(matched)) {
		matched = matched[:limit]
	}

	out := make([]Document, len(matched))
	for i, md := range matched {
		out[i] = copyDoc(md.doc)
	}
	return out, nil
}

func (c *memoryCollection) Count(ctx context.Context, q Query) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	matched, err := c.match(q)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (c *memoryCollection) match(q Query) ([]memoryDoc, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	var out []memoryDoc
	for _, md := range c.store.data[c.name] {
		if matches(md.doc, q) {
			out = append(out, md)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].doc.CreatedAt.Equal(out[j].doc.CreatedAt) {
			return out[i].doc.CreatedAt.After(out[j].doc.CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	return out, nil
}

func matches(d Document, q Query) bool {
	if q.CreatedFrom != nil && d.CreatedAt.Before(*q.CreatedFrom) {
		return false
	}
	if q.CreatedTo != nil && d.CreatedAt.After(*q.CreatedTo) {
		return false
	}
	if !matchesEquals(d.Fields, q.Equals) {
		return false
	}
	for path, allowed := range q.In {
		v, ok := Lookup(d.Fields, path)
		if !ok {
			return false
		}
		found := false
		for _, a := range allowed {
			if textValue(v) == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Search != nil && q.Search.Term != "" {
		term := strings.ToLower(q.Search.Term)
		hit := false
		for _, path := range q.Search.Fields {
			v, ok := Lookup(d.Fields, path)
			if !ok {
				continue
			}
			if s, isStr := v.(string); isStr && strings.Contains(strings.ToLower(s), term) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func matchesEquals(fields map[string]any, cond map[string]any) bool {
	for path, want := range cond {
		v, ok := Lookup(fields, path)
		if !ok {
			return false
		}
		if textValue(v) != textValue(want) {
			return false
		}
	}
	return true
}

func (c *memoryCollection) Update(ctx context.Context, id string, set map[string]any) (Document, error) {
	return c.UpdateWhere(ctx, id, nil, set)
}

func (c *memoryCollection) UpdateWhere(ctx context.Context, id string, cond map[string]any, set map[string]any) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.docs()
	md, ok := docs[id]
	if !ok {
		return Document{}, common.ErrorNotFound
	}
	if !matchesEquals(md.doc.Fields, cond) {
		return Document{}, ErrPreconditionFailed
	}
	for k, v := range StripReserved(set) {
		md.doc.Fields[k] = v
	}
	md.doc.UpdatedAt = c.store.clock()
	docs[id] = md
	return copyDoc(md.doc), nil
}

func (c *memoryCollection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.docs()
	if _, ok := docs[id]; !ok {
		return common.ErrorNotFound
	}
	delete(docs, id)
	return nil
}

func validateQuery(q Query) error {
	for path := range q.Equals {
		if _, err := splitPath(path); err != nil {
			return err
		}
	}
	for path := range q.In {
		if _, err := splitPath(path); err != nil {
			return err
		}
	}
	if q.Search != nil {
		for _, path := range q.Search.Fields {
			if _, err := splitPath(path); err != nil {
				return err
			}
		}
	}
	return nil
}
