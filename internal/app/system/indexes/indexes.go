// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type collectionIndexes struct {
	name   string
	models []mongo.IndexModel
}

/*
EnsureAll is called at startup (EnsureSchema) and by tests. Every set is
idempotent. Errors are aggregated so one bad collection does not hide
problems in the others.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, ci := range all() {
		if err := ensureIndexSet(ctx, db.Collection(ci.name), ci.models); err != nil {
			problems = append(problems, ci.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func idx(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

func uniq(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func all() []collectionIndexes {
	return []collectionIndexes{
		{"users", []mongo.IndexModel{
			uniq("uniq_users_email", bson.D{{Key: "email", Value: 1}}),
		}},
		{"projects", []mongo.IndexModel{
			// quota counts and the orphan sweep
			idx("idx_projects_user", bson.D{{Key: "user_id", Value: 1}}),
			idx("idx_projects_created", bson.D{{Key: "created_at", Value: 1}}),
		}},
		{"project_members", []mongo.IndexModel{
			// at most one membership per (email, project)
			uniq("uniq_members_email_project", bson.D{{Key: "member_email_id", Value: 1}, {Key: "project_id", Value: 1}}),
			idx("idx_members_user_project", bson.D{{Key: "user_id", Value: 1}, {Key: "project_id", Value: 1}}),
			idx("idx_members_project_role", bson.D{{Key: "project_id", Value: 1}, {Key: "role", Value: 1}}),
			idx("idx_members_user_status", bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}),
		}},
		{"labels", []mongo.IndexModel{
			idx("idx_labels_project", bson.D{{Key: "project_id", Value: 1}, {Key: "is_deleted", Value: 1}}),
		}},
		{"project_tasks", []mongo.IndexModel{
			idx("idx_tasks_project_created", bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_tasks_project_status_updated", bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}, {Key: "updated_at", Value: 1}}),
			idx("idx_tasks_project_assigned", bson.D{{Key: "project_id", Value: 1}, {Key: "assigned_to", Value: 1}}),
		}},
		{"issues", []mongo.IndexModel{
			idx("idx_issues_project_created", bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_issues_project_status", bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}}),
			idx("idx_issues_project_assignees", bson.D{{Key: "project_id", Value: 1}, {Key: "assignees", Value: 1}}),
		}},
		{"comments", []mongo.IndexModel{
			idx("idx_comments_target", bson.D{{Key: "target.kind", Value: 1}, {Key: "target.id", Value: 1}, {Key: "created_at", Value: 1}}),
			idx("idx_comments_parent", bson.D{{Key: "parent_id", Value: 1}}),
		}},
		{"bl_sheets", []mongo.IndexModel{
			idx("idx_sheets_user_date", bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}),
			idx("idx_sheets_user_clientci", bson.D{{Key: "user_id", Value: 1}, {Key: "client_name_ci", Value: 1}}),
		}},
		{"todos", []mongo.IndexModel{
			idx("idx_todos_user_created", bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}),
		}},
		{"audit_events", []mongo.IndexModel{
			idx("idx_audit_timestamp", bson.D{{Key: "timestamp", Value: -1}}),
			idx("idx_audit_project_timestamp", bson.D{{Key: "project_id", Value: 1}, {Key: "timestamp", Value: -1}}),
			idx("idx_audit_category_timestamp", bson.D{{Key: "category", Value: 1}, {Key: "timestamp", Value: -1}}),
			idx("idx_audit_user_timestamp", bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}),
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(ix.Key)] = ix
	}
	return out
}

// recreate drops an index with the same key pattern and creates m in its
// place, used when the name or uniqueness differs.
func recreate(ctx context.Context, coll *mongo.Collection, old string, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		return fmt.Errorf("drop %s: %w", old, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if isDuplicateKeyErr(err) {
			return fmt.Errorf("cannot create unique index (duplicates present): %w", err)
		}
		return err
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		name := *m.Options.Name
		unique := m.Options.Unique
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique != nil && *unique))

		if ex, ok := existing[sig]; ok {
			if sameBoolPtr(unique, ex.Unique) && ex.Name == name {
				log.Debug("reusing existing index")
				continue
			}
			if err := recreate(ctx, coll, ex.Name, m); err != nil {
				log.Warn("index recreate failed", zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
				continue
			}
			log.Info("index recreated", zap.Duration("took", time.Since(start)))
			continue
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			log.Warn("index ensure failed", zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
