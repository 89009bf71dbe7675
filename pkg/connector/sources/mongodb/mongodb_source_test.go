package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
)

func TestParseFilter(t *testing.T) {
	doc, err := ParseFilter(map[string]interface{}{"status": "active"})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "status", Value: "active"}}, doc)

	doc, err = ParseFilter(`{"_id": {"$oid": "5f1d7f3e9d1c2b3a4f5e6d7c"}}`)
	require.NoError(t, err)
	require.Len(t, doc, 1)
	oid, ok := doc[0].Value.(primitive.ObjectID)
	require.True(t, ok)
	assert.Equal(t, "5f1d7f3e9d1c2b3a4f5e6d7c", oid.Hex())

	doc, err = ParseFilter(nil)
	require.NoError(t, err)
	assert.Empty(t, doc)

	_, err = ParseFilter(42)
	assert.Error(t, err)
	_, err = ParseFilter("{not json")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	_, err := New(config.ConnectorSpec{"name": "m", "type": Type, "uri": "mongodb://localhost", "database": "app"})
	assert.Error(t, err)

	src, err := New(config.ConnectorSpec{
		"name": "m", "type": Type, "uri": "mongodb://localhost", "database": "app", "collection": "users",
		"filter": map[string]interface{}{"age": map[string]interface{}{"$gt": 30}}, "limit": 10,
		"exclude": []interface{}{"_id"},
	})
	require.NoError(t, err)
	s := src.(*Source)
	assert.Equal(t, int64(10), s.cfg.Limit)
	assert.Equal(t, "_", s.cfg.Separator)
	assert.Equal(t, []string{"_id"}, s.cfg.Exclude)
}

func TestPlain(t *testing.T) {
	oid := primitive.NewObjectID()
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := bson.M{
		"_id":     oid,
		"created": primitive.NewDateTimeFromTime(when),
		"profile": bson.D{{Key: "city", Value: "Berlin"}, {Key: "zip", Value: int32(10115)}},
		"tags":    bson.A{"a", "b"},
	}
	out := Plain(doc).(map[string]interface{})
	assert.Equal(t, oid.Hex(), out["_id"])
	assert.Equal(t, when, out["created"])
	assert.Equal(t, map[string]interface{}{"city": "Berlin", "zip": int64(10115)}, out["profile"])
	assert.Equal(t, []interface{}{"a", "b"}, out["tags"])
}

// TestIntegration runs against a live server when SLUICE_TEST_MONGODB_URI is set.
func TestIntegration(t *testing.T) {
	uri := os.Getenv("SLUICE_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("SLUICE_TEST_MONGODB_URI not set")
	}
	src, err := New(config.ConnectorSpec{"name": "m", "type": Type, "uri": uri, "database": "admin", "collection": "system.version"})
	require.NoError(t, err)
	status, err := core.Probe(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, core.CheckConnectable, status)
}
