package repository

import (
	"context"

	"github.com/imam0321/bistro-boss-server/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoCartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{collection: db.Collection(CartsCollection)}
}

func (r *MongoCartRepository) FindByEmail(ctx context.Context, email string) ([]models.CartItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.CartItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoCartRepository) Create(ctx context.Context, item *models.CartItem) (*models.InsertResult, error) {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	res, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return nil, err
	}
	return toInsertResult(res), nil
}

func (r *MongoCartRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.DeleteResult, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	return toDeleteResult(res), nil
}

func (r *MongoCartRepository) DeleteOwned(ctx context.Context, email string, ids []primitive.ObjectID) (*models.DeleteResult, error) {
	if len(ids) == 0 {
		return &models.DeleteResult{Acknowledged: true}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}, "email": email}
	res, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return nil, err
	}
	return toDeleteResult(res), nil
}
