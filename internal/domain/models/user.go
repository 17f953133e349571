// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account roles.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
	RoleGuest    = "guest"
)

// Pricing tiers. The tier decides project and member quotas.
const (
	PricingFree       = "free"
	PricingPremium    = "premium"
	PricingEnterprise = "enterprise"
)

// Avatar points at an uploaded profile picture.
type Avatar struct {
	URL     string `bson:"url" json:"url"`
	AssetID string `bson:"asset_id" json:"assetId"`
}

// User is a registered account. Email is unique (stored lowercased).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"fullName"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"`                  // admin | customer | guest
	PricingModel string             `bson:"pricing_model" json:"pricingModel"` // free | premium | enterprise
	Avatar       *Avatar            `bson:"avatar,omitempty" json:"avatar,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// UserSummary is the author/display projection joined into list rows.
type UserSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	FullName string             `bson:"full_name" json:"fullName"`
	Email    string             `bson:"email" json:"email"`
	Avatar   *Avatar            `bson:"avatar,omitempty" json:"avatar,omitempty"`
}
