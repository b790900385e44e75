package docstore

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildFilter(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := buildFilter(Query{
		Equals:      map[string]any{"isRestored": false},
		In:          map[string][]string{"entityType": {"inmate"}},
		Search:      &Search{Term: "a.b", Fields: []string{"originalId", "data.name"}},
		CreatedFrom: &from,
	})
	require.NoError(t, err)

	want := bson.M{
		"isRestored": bson.M{"$in": bson.A{"false", false}},
		"entityType": bson.M{"$in": bson.A{"inmate"}},
		"$or": bson.A{
			bson.M{"originalId": bson.M{"$regex": `a\.b`, "$options": "i"}},
			bson.M{"data.name": bson.M{"$regex": `a\.b`, "$options": "i"}},
		},
		"createdAt": bson.M{"$gte": from},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}

	_, err = buildFilter(Query{In: map[string][]string{"$where": {"1"}}})
	assert.Error(t, err)
}

func TestBuildFilter_MatchesTextForms(t *testing.T) {
	got, err := buildFilter(Query{
		Equals: map[string]any{"repeatCount": "3", "totalPoints": 7.5, "inmateId": "i-1", "paroleEligible": "true"},
		In:     map[string][]string{"severity": {"High", "007"}},
	})
	require.NoError(t, err)

	want := bson.M{
		"repeatCount":    bson.M{"$in": bson.A{"3", int64(3)}},
		"totalPoints":    bson.M{"$in": bson.A{"7.5", 7.5}},
		"inmateId":       "i-1",
		"paroleEligible": bson.M{"$in": bson.A{"true", true}},
		"severity":       bson.M{"$in": bson.A{"High", "007"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestTextForms_AgreeWithTextComparison(t *testing.T) {
	for _, v := range []any{"3", 3, int64(3), 3.0, "1.25", false, "false", "1", "abc"} {
		for _, form := range textForms(v) {
			assert.Equal(t, textValue(v), textValue(form), "form %#v of %#v", form, v)
		}
	}
}

func TestBuildFilter_Empty(t *testing.T) {
	got, err := buildFilter(Query{Search: &Search{Term: ""}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFromBSON(t *testing.T) {
	ts := time.Date(2024, 4, 4, 12, 0, 0, 0, time.UTC)
	raw := bson.M{
		"_id":       "a1",
		"createdAt": primitive.NewDateTimeFromTime(ts),
		"updatedAt": primitive.NewDateTimeFromTime(ts),
		"data":      bson.D{{Key: "firstName", Value: "Abebe"}, {Key: "age", Value: int32(30)}},
		"logs":      bson.A{bson.M{"points": int64(5)}},
		"flag":      true,
	}

	doc := fromBSON(raw)
	assert.Equal(t, "a1", doc.ID)
	assert.True(t, ts.Equal(doc.CreatedAt))
	want := map[string]any{
		"data": map[string]any{"firstName": "Abebe", "age": float64(30)},
		"logs": []any{map[string]any{"points": float64(5)}},
		"flag": true,
	}
	if diff := cmp.Diff(want, doc.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}
