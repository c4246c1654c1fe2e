package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart cleanup states of a payment record. A payment is inserted as pending
// and flips to done once its cart entries have been purged.
const (
	CartCleanupPending = "pending"
	CartCleanupDone    = "done"
)

// Payment is recorded after a successful charge on the client.
type Payment struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Email         string               `bson:"email" json:"email"`
	TransactionID string               `bson:"transactionId" json:"transactionId"`
	Price         float64              `bson:"price" json:"price"`
	Date          time.Time            `bson:"date" json:"date"`
	Quantity      int                  `bson:"quantity" json:"quantity"`
	CartItems     []primitive.ObjectID `bson:"cartItems" json:"cartItems"`
	MenuItems     []primitive.ObjectID `bson:"menuItems" json:"menuItems"`
	ItemNames     []string             `bson:"itemNames,omitempty" json:"itemNames,omitempty"`
	Status        string               `bson:"status,omitempty" json:"status,omitempty"`
	CartCleanup   string               `bson:"cartCleanup" json:"cartCleanup"`
}

// PaymentReceipt is returned after recording a payment. DeleteResult is nil
// when the cart purge did not complete.
type PaymentReceipt struct {
	InsertResult *InsertResult `json:"insertResult"`
	DeleteResult *DeleteResult `json:"deleteResult"`
	CartCleanup  string        `json:"cartCleanup"`
}

type PaymentIntentRequest struct {
	Price float64 `json:"price"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// PaymentEvent is published after a payment has been recorded.
type PaymentEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	PaymentID     string    `json:"payment_id"`
	Email         string    `json:"email"`
	TransactionID string    `json:"transaction_id"`
	Price         float64   `json:"price"`
	Items         int       `json:"items"`
	Timestamp     time.Time `json:"timestamp"`
}
