package repository

import (
	"context"
	"errors"

	"github.com/imam0321/bistro-boss-server/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names in the bistroDb database.
const (
	UsersCollection    = "users"
	MenuCollection     = "menu"
	ReviewsCollection  = "reviews"
	CartsCollection    = "carts"
	PaymentsCollection = "payments"
)

// ErrInvalidID is returned when a path id is not a 24-char hex ObjectID.
var ErrInvalidID = errors.New("invalid id")

// ParseID converts a hex string into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// UserRepository stores users keyed by email.
type UserRepository interface {
	FindAll(ctx context.Context) ([]models.User, error)
	// FindByEmail returns nil, nil when no user has the email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.InsertResult, error)
	PromoteToAdmin(ctx context.Context, id primitive.ObjectID) (*models.UpdateResult, error)
	Count(ctx context.Context) (int64, error)
}

type MenuRepository interface {
	FindAll(ctx context.Context) ([]models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) (*models.InsertResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.DeleteResult, error)
	Count(ctx context.Context) (int64, error)
}

type ReviewRepository interface {
	FindAll(ctx context.Context) ([]models.Review, error)
}

type CartRepository interface {
	FindByEmail(ctx context.Context, email string) ([]models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) (*models.InsertResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.DeleteResult, error)
	// DeleteOwned removes the listed entries that belong to email.
	DeleteOwned(ctx context.Context, email string, ids []primitive.ObjectID) (*models.DeleteResult, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.InsertResult, error)
	FindByEmail(ctx context.Context, email string) ([]models.Payment, error)
	FindPendingCleanup(ctx context.Context) ([]models.Payment, error)
	SetCartCleanup(ctx context.Context, id primitive.ObjectID, state string) error
	Count(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context) (float64, error)
	OrderStats(ctx context.Context) ([]models.CategoryStat, error)
}

var (
	_ UserRepository    = (*MongoUserRepository)(nil)
	_ MenuRepository    = (*MongoMenuRepository)(nil)
	_ ReviewRepository  = (*MongoReviewRepository)(nil)
	_ CartRepository    = (*MongoCartRepository)(nil)
	_ PaymentRepository = (*MongoPaymentRepository)(nil)
)
