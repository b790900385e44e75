package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig locates the database used by MongoStore.
type MongoConfig struct {
	URI string
	DB  string
}

// MongoStore maps each collection onto a MongoDB collection of the same
// name. The document id is stored as _id.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	cl, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return &MongoStore{
		client: cl,
		db:     cl.Database(cfg.DB),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *MongoStore) Collection(name string) Collection {
	return &mongoCollection{col: s.db.Collection(name), name: name, now: s.now}
}

func (s *MongoStore) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

func (s *MongoStore) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

// EnsureIndexes creates the newest-first index on every collection and the
// lookup indexes on the archive collection.
func (s *MongoStore) EnsureIndexes(ctx context.Context, collections []string, archives string) error {
	for _, name := range collections {
		_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
		})
		if err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
	}
	_, err := s.db.Collection(archives).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "entityType", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "originalId", Value: 1}}},
		{Keys: bson.D{{Key: "deletedBy", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("index %s: %w", archives, err)
	}
	return nil
}

type mongoCollection struct {
	col  *mongo.Collection
	name string
	now  func() time.Time
}

func (c *mongoCollection) Insert(ctx context.Context, doc Document) (Document, error) {
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

	raw := bson.M{}
	for k, v := range doc.Fields {
		raw[k] = v
	}
	raw["_id"] = doc.ID
	raw["createdAt"] = doc.CreatedAt
	raw["updatedAt"] = doc.UpdatedAt

	if _, err := c.col.InsertOne(ctx, raw); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Document{}, fmt.Errorf("insert %s/%s: %w", c.name, doc.ID, common.ErrorAlreadyExists)
		}
		return Document{}, fmt.Errorf("mongo insert: %w", err)
	}
	return doc, nil
}

func (c *mongoCollection) Get(ctx context.Context, id string) (Document, error) {
	var raw bson.M
	err := c.col.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, common.ErrorNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("mongo find: %w", err)
	}
	return fromBSON(raw), nil
}

func (c *mongoCollection) Find(ctx context.Context, q Query) ([]Document, error) {
	filter, err := buildFilter(q)
	if err != nil {
		return nil, err
	}
	skip, limit := clampPage(q)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := c.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	list := []Document{}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		list = append(list, fromBSON(raw))
	}
	return list, cur.Err()
}

func (c *mongoCollection) Count(ctx context.Context, q Query) (int64, error) {
	filter, err := buildFilter(q)
	if err != nil {
		return 0, err
	}
	n, err := c.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("mongo count: %w", err)
	}
	return n, nil
}

func (c *mongoCollection) Update(ctx context.Context, id string, set map[string]any) (Document, error) {
	return c.UpdateWhere(ctx, id, nil, set)
}

func (c *mongoCollection) UpdateWhere(ctx context.Context, id string, cond map[string]any, set map[string]any) (Document, error) {
	filter := bson.M{"_id": id}
	for k, v := range cond {
		if _, err := splitPath(k); err != nil {
			return Document{}, err
		}
		filter[k] = equalsFilter(v)
	}
	patch := bson.M{}
	for k, v := range StripReserved(set) {
		patch[k] = v
	}
	patch["updatedAt"] = c.now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var raw bson.M
	err := c.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": patch}, opts).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := c.col.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return Document{}, fmt.Errorf("mongo count: %w", cerr)
		}
		if n == 0 {
			return Document{}, common.ErrorNotFound
		}
		return Document{}, ErrPreconditionFailed
	}
	if err != nil {
		return Document{}, fmt.Errorf("mongo update: %w", err)
	}
	return fromBSON(raw), nil
}

func (c *mongoCollection) Delete(ctx context.Context, id string) error {
	res, err := c.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// buildFilter translates q into a MongoDB filter document.
func buildFilter(q Query) (bson.M, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	f := bson.M{}
	for k, v := range q.Equals {
		f[k] = equalsFilter(v)
	}
	for k, values := range q.In {
		forms := bson.A{}
		for _, v := range values {
			forms = append(forms, textForms(v)...)
		}
		f[k] = bson.M{"$in": forms}
	}
	if q.Search != nil && q.Search.Term != "" && len(q.Search.Fields) > 0 {
		pattern := regexp.QuoteMeta(q.Search.Term)
		ors := make(bson.A, 0, len(q.Search.Fields))
		for _, field := range q.Search.Fields {
			ors = append(ors, bson.M{field: bson.M{"$regex": pattern, "$options": "i"}})
		}
		f["$or"] = ors
	}
	if q.CreatedFrom != nil || q.CreatedTo != nil {
		rng := bson.M{}
		if q.CreatedFrom != nil {
			rng["$gte"] = q.CreatedFrom.UTC()
		}
		if q.CreatedTo != nil {
			rng["$lte"] = q.CreatedTo.UTC()
		}
		f["createdAt"] = rng
	}
	return f, nil
}

// textForms lists the typed values whose text form equals that of v. The
// memory and PostgreSQL backends compare text, so "3" must also match a
// stored 3 and "false" a stored false.
func textForms(v any) bson.A {
	s := textValue(v)
	forms := bson.A{s}
	if s == "true" || s == "false" {
		forms = append(forms, s == "true")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		forms = append(forms, n)
	} else if f, err := strconv.ParseFloat(s, 64); err == nil && fmt.Sprint(f) == s {
		forms = append(forms, f)
	}
	return forms
}

func equalsFilter(v any) any {
	forms := textForms(v)
	if len(forms) == 1 {
		return forms[0]
	}
	return bson.M{"$in": forms}
}

func fromBSON(raw bson.M) Document {
	var doc Document
	if id, ok := raw["_id"]; ok {
		doc.ID = fmt.Sprint(id)
	}
	doc.CreatedAt = asTime(raw["createdAt"])
	doc.UpdatedAt = asTime(raw["updatedAt"])

	doc.Fields = map[string]any{}
	for k, v := range raw {
		switch k {
		case "_id", "createdAt", "updatedAt":
			continue
		}
		doc.Fields[k] = plainValue(v)
	}
	return doc
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	default:
		return time.Time{}
	}
}

// plainValue converts driver types into the map/slice/scalar shapes the
// other backends produce.
func plainValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = plainValue(item)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = plainValue(item)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plainValue(item)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}
