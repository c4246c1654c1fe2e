package repository

import (
	"fmt"

	"github.com/imam0321/bistro-boss-server/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func toInsertResult(res *mongo.InsertOneResult) *models.InsertResult {
	out := &models.InsertResult{Acknowledged: true}
	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		out.InsertedID = id.Hex()
	case nil:
	default:
		out.InsertedID = fmt.Sprint(id)
	}
	return out
}

func toDeleteResult(res *mongo.DeleteResult) *models.DeleteResult {
	return &models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}
}

func toUpdateResult(res *mongo.UpdateResult) *models.UpdateResult {
	return &models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}
}
