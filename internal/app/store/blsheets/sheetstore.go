// internal/app/store/blsheets/sheetstore.go
package sheetstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/normalize"
	"github.com/dalemusser/projecthub/internal/app/system/paging"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a sheet does not exist or belongs to
// another user.
var ErrNotFound = errors.New("bl sheet not found")

// Payment filters for List.
const (
	TypePaid   = "paid"
	TypeUnpaid = "unpaid"
)

// DailyWindow is how far back the daily analytics reach.
const DailyWindow = 30 * 24 * time.Hour

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("bl_sheets"), now: time.Now}
}

func (s *Store) Create(ctx context.Context, sh models.BLSheet) (models.BLSheet, error) {
	sh.ID = primitive.NewObjectID()
	sh.ClientName = normalize.Name(sh.ClientName)
	sh.ClientCI = text.Fold(sh.ClientName)
	now := s.now().UTC()
	sh.CreatedAt = now
	sh.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sh); err != nil {
		return models.BLSheet{}, err
	}
	return sh, nil
}

// GetOwned returns the sheet only when userID owns it.
func (s *Store) GetOwned(ctx context.Context, id, userID primitive.ObjectID) (*models.BLSheet, error) {
	var sh models.BLSheet
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&sh); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sh, nil
}

// Update replaces the editable fields of a sheet owned by userID.
func (s *Store) Update(ctx context.Context, id, userID primitive.ObjectID, sh models.BLSheet) (*models.BLSheet, error) {
	name := normalize.Name(sh.ClientName)
	var out models.BLSheet
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{
			"client_name":    name,
			"client_name_ci": text.Fold(name),
			"description":    sh.Description,
			"money":          sh.Money,
			"is_paid":        sh.IsPaid,
			"tax":            sh.Tax,
			"date":           sh.Date,
			"updated_at":     s.now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFilter narrows a user's sheet listing. Zero values mean no filter.
type ListFilter struct {
	Search string
	Type   string // paid | unpaid | ""
	From   *time.Time
	To     *time.Time
}

func (f ListFilter) match(userID primitive.ObjectID) bson.M {
	m := bson.M{"user_id": userID}
	if q := text.Fold(f.Search); q != "" {
		m["client_name_ci"] = bson.M{"$regex": regexp.QuoteMeta(q)}
	}
	switch f.Type {
	case TypePaid:
		m["is_paid"] = true
	case TypeUnpaid:
		m["is_paid"] = false
	}
	if f.From != nil || f.To != nil {
		rng := bson.M{}
		if f.From != nil {
			rng["$gte"] = *f.From
		}
		if f.To != nil {
			rng["$lte"] = *f.To
		}
		m["date"] = rng
	}
	return m
}

// List returns one page of the user's sheets, newest date first, plus the
// total match count.
func (s *Store) List(ctx context.Context, userID primitive.ObjectID, f ListFilter, page paging.Page) ([]models.BLSheet, int64, error) {
	match := f.match(userID)
	total, err := s.c.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, match, options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit()))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	out := []models.BLSheet{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Totals sums money and tax over all of a user's sheets, split by payment
// state.
func (s *Store) Totals(ctx context.Context, userID primitive.ObjectID) (models.SheetTotals, error) {
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"user_id": userID}},
		{"$group": bson.M{
			"_id":   "$is_paid",
			"money": bson.M{"$sum": "$money"},
			"tax":   bson.M{"$sum": "$tax"},
			"count": bson.M{"$sum": 1},
		}},
	})
	if err != nil {
		return models.SheetTotals{}, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		Paid               bool `bson:"_id"`
		models.MoneyTotals `bson:",inline"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return models.SheetTotals{}, err
	}
	var out models.SheetTotals
	for _, r := range rows {
		if r.Paid {
			out.Paid = r.MoneyTotals
		} else {
			out.Unpaid = r.MoneyTotals
		}
	}
	out.All = models.MoneyTotals{
		Money: out.Paid.Money + out.Unpaid.Money,
		Tax:   out.Paid.Tax + out.Unpaid.Tax,
		Count: out.Paid.Count + out.Unpaid.Count,
	}
	return out, nil
}

// Daily returns per-day totals for the trailing DailyWindow, oldest day
// first. Days without entries are omitted.
func (s *Store) Daily(ctx context.Context, userID primitive.ObjectID) ([]models.DailyTotals, error) {
	since := s.now().UTC().Add(-DailyWindow)
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"user_id": userID, "date": bson.M{"$gte": since}}},
		{"$group": bson.M{
			"_id":         bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}},
			"paid":        bson.M{"$sum": bson.M{"$cond": bson.A{"$is_paid", "$money", 0}}},
			"unpaid":      bson.M{"$sum": bson.M{"$cond": bson.A{"$is_paid", 0, "$money"}}},
			"tax":         bson.M{"$sum": "$tax"},
			"entry_count": bson.M{"$sum": 1},
		}},
		{"$sort": bson.D{{Key: "_id", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.DailyTotals{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
