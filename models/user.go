package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Role is the authorization tier attached to a user. The zero value is an
// ordinary customer.
type Role string

const RoleAdmin Role = "admin"

// User is created on first sign-in and keyed by email.
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name  string             `bson:"name,omitempty" json:"name,omitempty"`
	Email string             `bson:"email" json:"email"`
	Photo string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Role  Role               `bson:"role,omitempty" json:"role,omitempty"`
}

// IsAdmin is nil-safe so callers can pass a lookup result straight through.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AdminStatus is the response of the admin check endpoint.
type AdminStatus struct {
	Admin bool `json:"admin"`
}
