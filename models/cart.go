package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CartItem is a single menu item placed in a user's cart. Each entry is owned
// by exactly one email.
type CartItem struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	MenuItemID primitive.ObjectID `bson:"menuItemId" json:"menuItemId"`
	Name       string             `bson:"name" json:"name"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	Price      float64            `bson:"price" json:"price"`
	Email      string             `bson:"email" json:"email"`
}
