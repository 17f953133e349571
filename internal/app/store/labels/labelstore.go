// internal/app/store/labels/labelstore.go
package labelstore

import (
	"context"
	"time"

	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("labels")}
}

// SeedDefaults copies the default catalog into projectID and returns the
// new label ids in catalog order.
func (s *Store) SeedDefaults(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	specs := models.DefaultLabels()
	now := time.Now().UTC()
	docs := make([]any, 0, len(specs))
	ids := make([]primitive.ObjectID, 0, len(specs))
	for _, spec := range specs {
		l := models.Label{
			ID:          primitive.NewObjectID(),
			Name:        spec.Name,
			Description: spec.Description,
			Color:       spec.Color,
			ProjectID:   projectID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		docs = append(docs, l)
		ids = append(ids, l.ID)
	}
	if _, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListByProject returns the project's labels that are not soft-deleted.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Label, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"project_id": projectID, "is_deleted": false},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Label{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Names returns the set of live label names for a project.
func (s *Store) Names(ctx context.Context, projectID primitive.ObjectID) (map[string]bool, error) {
	labels, err := s.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(labels))
	for _, l := range labels {
		out[l.Name] = true
	}
	return out, nil
}

func (s *Store) DeleteAllForProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
