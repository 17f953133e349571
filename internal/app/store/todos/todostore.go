// internal/app/store/todos/todostore.go
package todostore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/normalize"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("todo not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("todos")}
}

func (s *Store) Create(ctx context.Context, t models.Todo) (models.Todo, error) {
	t.ID = primitive.NewObjectID()
	t.Title = normalize.Name(t.Title)
	if t.Status == "" {
		t.Status = models.TodoPending
	}
	if t.Level == "" {
		t.Level = models.TodoEasy
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Todo{}, err
	}
	return t, nil
}

// GetOwned returns the todo only when userID owns it.
func (s *Store) GetOwned(ctx context.Context, id, userID primitive.ObjectID) (*models.Todo, error) {
	var t models.Todo
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) Update(ctx context.Context, id, userID primitive.ObjectID, t models.Todo) (*models.Todo, error) {
	var out models.Todo
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{
			"title":       normalize.Name(t.Title),
			"description": t.Description,
			"status":      t.Status,
			"level":       t.Level,
			"updated_at":  time.Now().UTC(),
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

// ListForDay returns the user's todos created on the UTC calendar day
// containing day, newest first.
func (s *Store) ListForDay(ctx context.Context, userID primitive.ObjectID, day time.Time) ([]models.Todo, error) {
	y, m, d := day.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	cur, err := s.c.Find(ctx,
		bson.M{"user_id": userID, "created_at": bson.M{"$gte": start, "$lt": end}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Todo{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
