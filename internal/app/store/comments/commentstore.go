// internal/app/store/comments/commentstore.go
package commentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("comment not found")
	// ErrNestedReply is returned when replying to a comment that is itself
	// a reply.
	ErrNestedReply = errors.New("replies cannot be nested")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("comments")}
}

// Create inserts a top-level comment on target.
func (s *Store) Create(ctx context.Context, target models.Attachment, userID primitive.ObjectID, content string) (models.Comment, error) {
	now := time.Now().UTC()
	c := models.Comment{
		ID:        primitive.NewObjectID(),
		Content:   content,
		UserID:    userID,
		Replies:   []primitive.ObjectID{},
		Target:    target,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// CreateReply inserts a reply under parent and records it in the
// parent's reply list. The reply inherits the parent's target.
func (s *Store) CreateReply(ctx context.Context, parent models.Comment, userID primitive.ObjectID, content string) (models.Comment, error) {
	if parent.ParentID != nil {
		return models.Comment{}, ErrNestedReply
	}
	now := time.Now().UTC()
	pid := parent.ID
	c := models.Comment{
		ID:        primitive.NewObjectID(),
		Content:   content,
		UserID:    userID,
		Replies:   []primitive.ObjectID{},
		ParentID:  &pid,
		Target:    parent.Target,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Comment{}, err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": parent.ID}, bson.M{
		"$push": bson.M{"replies": c.ID},
		"$set":  bson.M{"updated_at": now},
	})
	if err != nil {
		return models.Comment{}, err
	}
	if res.MatchedCount == 0 {
		_, _ = s.c.DeleteOne(ctx, bson.M{"_id": c.ID})
		return models.Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*models.Comment, error) {
	var c models.Comment
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"content": content, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListForTarget returns the top-level comments on target, oldest first.
func (s *Store) ListForTarget(ctx context.Context, target models.Attachment, viewer primitive.ObjectID) ([]models.CommentRow, error) {
	return s.rows(ctx, bson.M{
		"target.kind": target.Kind,
		"target.id":   target.ID,
		"parent_id":   bson.M{"$exists": false},
	}, viewer)
}

// Replies returns the replies under parentID, oldest first.
func (s *Store) Replies(ctx context.Context, parentID, viewer primitive.ObjectID) ([]models.CommentRow, error) {
	return s.rows(ctx, bson.M{"parent_id": parentID}, viewer)
}

func (s *Store) rows(ctx context.Context, match bson.M, viewer primitive.ObjectID) ([]models.CommentRow, error) {
	pipeline := []bson.M{
		{"$match": match},
		{"$sort": bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"pipeline": []bson.M{
				{"$project": bson.M{"full_name": 1, "email": 1, "avatar": 1}},
			},
			"as": "user",
		}},
		{"$unwind": bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}},
		{"$addFields": bson.M{
			"is_creator":  bson.M{"$eq": bson.A{"$user_id", viewer}},
			"reply_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$replies", bson.A{}}}},
		}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.CommentRow{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes c. A reply is also pulled from its parent's reply list;
// a top-level comment takes its replies with it. It returns the number of
// comment rows removed.
func (s *Store) Delete(ctx context.Context, c models.Comment) (int64, error) {
	if c.ParentID != nil {
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": c.ID})
		if err != nil {
			return 0, err
		}
		if res.DeletedCount == 0 {
			return 0, ErrNotFound
		}
		if _, err := s.c.UpdateOne(ctx, bson.M{"_id": *c.ParentID}, bson.M{
			"$pull": bson.M{"replies": c.ID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		}); err != nil {
			return res.DeletedCount, err
		}
		return res.DeletedCount, nil
	}

	res, err := s.c.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": c.ID},
		bson.M{"parent_id": c.ID},
	}})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount == 0 {
		return 0, ErrNotFound
	}
	return res.DeletedCount, nil
}

// DeleteForTargets removes every comment attached to the given work items.
func (s *Store) DeleteForTargets(ctx context.Context, kind models.AttachmentKind, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"target.kind": kind, "target.id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
