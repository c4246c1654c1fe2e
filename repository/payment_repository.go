package repository

import (
	"context"

	"github.com/imam0321/bistro-boss-server/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoPaymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *MongoPaymentRepository {
	return &MongoPaymentRepository{collection: db.Collection(PaymentsCollection)}
}

func (r *MongoPaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.InsertResult, error) {
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	res, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		return nil, err
	}
	return toInsertResult(res), nil
}

func (r *MongoPaymentRepository) FindByEmail(ctx context.Context, email string) ([]models.Payment, error) {
	return r.find(ctx, bson.M{"email": email})
}

func (r *MongoPaymentRepository) FindPendingCleanup(ctx context.Context) ([]models.Payment, error) {
	return r.find(ctx, bson.M{"cartCleanup": models.CartCleanupPending})
}

func (r *MongoPaymentRepository) find(ctx context.Context, filter bson.M) ([]models.Payment, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	payments := make([]models.Payment, 0)
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *MongoPaymentRepository) SetCartCleanup(ctx context.Context, id primitive.ObjectID, state string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"cartCleanup": state}})
	return err
}

func (r *MongoPaymentRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.EstimatedDocumentCount(ctx)
}

// TotalRevenue sums the price of every payment. Cost is linear in the
// number of payments.
func (r *MongoPaymentRepository) TotalRevenue(ctx context.Context) (float64, error) {
	cursor, err := r.collection.Aggregate(ctx, RevenuePipeline())
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Revenue float64 `bson:"revenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Revenue, nil
}

// OrderStats groups the menu items referenced by payments per category.
func (r *MongoPaymentRepository) OrderStats(ctx context.Context) ([]models.CategoryStat, error) {
	cursor, err := r.collection.Aggregate(ctx, OrderStatsPipeline())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stats := make([]models.CategoryStat, 0)
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// RevenuePipeline sums payment prices into a single {revenue} document.
func RevenuePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$price"}}},
		}}},
	}
}

// OrderStatsPipeline joins each payment's menuItems against the menu
// collection, emits one row per matched item and groups them by category.
// Categories without matches never appear in the output.
func OrderStatsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: MenuCollection},
			{Key: "localField", Value: "menuItems"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "menuItemsData"},
		}}},
		{{Key: "$unwind", Value: "$menuItemsData"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$menuItemsData.category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "totalPrice", Value: bson.D{{Key: "$sum", Value: "$menuItemsData.price"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "category", Value: "$_id"},
			{Key: "count", Value: 1},
			{Key: "total", Value: bson.D{{Key: "$round", Value: bson.A{"$totalPrice", 2}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "category", Value: 1}}}},
	}
}
