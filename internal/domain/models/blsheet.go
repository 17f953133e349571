// internal/domain/models/blsheet.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BLSheet is a single billing ledger entry owned by one user.
type BLSheet struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientName  string             `bson:"client_name" json:"clientName"`
	ClientCI    string             `bson:"client_name_ci" json:"-"`
	Description string             `bson:"description" json:"description"`
	Money       float64            `bson:"money" json:"money"`
	IsPaid      bool               `bson:"is_paid" json:"isPaid"`
	Tax         float64            `bson:"tax" json:"tax"`
	Date        time.Time          `bson:"date" json:"date"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// MoneyTotals is one bucket of the sheet analytics.
type MoneyTotals struct {
	Money float64 `bson:"money" json:"money"`
	Tax   float64 `bson:"tax" json:"tax"`
	Count int     `bson:"count" json:"count"`
}

// DailyTotals is one day of the sheet analytics.
type DailyTotals struct {
	Day        string  `bson:"_id" json:"day"` // YYYY-MM-DD (UTC)
	Paid       float64 `bson:"paid" json:"paid"`
	Unpaid     float64 `bson:"unpaid" json:"unpaid"`
	Tax        float64 `bson:"tax" json:"tax"`
	EntryCount int     `bson:"entry_count" json:"entryCount"`
}

// SheetTotals splits the money analytics by payment state.
type SheetTotals struct {
	Paid   MoneyTotals `json:"paid"`
	Unpaid MoneyTotals `json:"unpaid"`
	All    MoneyTotals `json:"all"`
}
