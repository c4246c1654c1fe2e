package repository

import (
	"context"

	"github.com/imam0321/bistro-boss-server/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoMenuRepository struct {
	collection *mongo.Collection
}

func NewMenuRepository(db *mongo.Database) *MongoMenuRepository {
	return &MongoMenuRepository{collection: db.Collection(MenuCollection)}
}

func (r *MongoMenuRepository) FindAll(ctx context.Context) ([]models.MenuItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.MenuItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoMenuRepository) Create(ctx context.Context, item *models.MenuItem) (*models.InsertResult, error) {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	res, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return nil, err
	}
	return toInsertResult(res), nil
}

func (r *MongoMenuRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.DeleteResult, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	return toDeleteResult(res), nil
}

func (r *MongoMenuRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.EstimatedDocumentCount(ctx)
}

type MongoReviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{collection: db.Collection(ReviewsCollection)}
}

func (r *MongoReviewRepository) FindAll(ctx context.Context) ([]models.Review, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := make([]models.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
