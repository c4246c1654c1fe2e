package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func stageNames(t *testing.T, pipeline []bson.D) []string {
	t.Helper()
	names := make([]string, 0, len(pipeline))
	for _, stage := range pipeline {
		require.Len(t, stage, 1)
		names = append(names, stage[0].Key)
	}
	return names
}

func TestOrderStatsPipelineShape(t *testing.T) {
	pipeline := OrderStatsPipeline()
	assert.Equal(t, []string{"$lookup", "$unwind", "$group", "$project", "$sort"}, stageNames(t, pipeline))

	lookup := pipeline[0][0].Value.(bson.D).Map()
	assert.Equal(t, MenuCollection, lookup["from"])
	assert.Equal(t, "menuItems", lookup["localField"])
	assert.Equal(t, "_id", lookup["foreignField"])
	assert.Equal(t, "menuItemsData", lookup["as"])

	group := pipeline[2][0].Value.(bson.D).Map()
	assert.Equal(t, "$menuItemsData.category", group["_id"])

	project := pipeline[3][0].Value.(bson.D).Map()
	assert.Equal(t, 0, project["_id"])
	assert.Equal(t, bson.D{{Key: "$round", Value: bson.A{"$totalPrice", 2}}}, project["total"])
}

func TestRevenuePipelineShape(t *testing.T) {
	pipeline := RevenuePipeline()
	assert.Equal(t, []string{"$group"}, stageNames(t, pipeline))
}

func TestParseID(t *testing.T) {
	_, err := ParseID("64b7f0c2a1b2c3d4e5f60718")
	assert.NoError(t, err)

	for _, bad := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		_, err := ParseID(bad)
		assert.ErrorIs(t, err, ErrInvalidID, bad)
	}
}
