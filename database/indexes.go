package database

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureIndexes is called at startup. Index creation is idempotent.
The email indexes are lookup indexes only: user de-duplication is an
existence check in the handler, not a uniqueness constraint.
*/
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("idx_users_email")},
		},
		"carts": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("idx_carts_email")},
		},
		"payments": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("idx_payments_email")},
			{Keys: bson.D{{Key: "cartCleanup", Value: 1}}, Options: options.Index().SetName("idx_payments_cart_cleanup")},
		},
	}

	var problems []string
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			problems = append(problems, coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("index setup failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
