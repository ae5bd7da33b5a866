// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup from the EnsureSchema hook. Each ensure*
function is idempotent. Errors are aggregated so every problem is visible
and startup can fail fast.

The partial unique index on group_memberships is load-bearing: it is the
authoritative owner of the at-most-one-active-membership invariant. The
pre-insert existence checks in the collab package are a UX fast path only.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureGroups(ctx, db); err != nil {
		problems = append(problems, "groups: "+err.Error())
	}
	if err := ensureGroupMemberships(ctx, db); err != nil {
		problems = append(problems, "group_memberships: "+err.Error())
	}
	if err := ensureTasks(ctx, db); err != nil {
		problems = append(problems, "tasks: "+err.Error())
	}
	if err := ensureGroupFiles(ctx, db); err != nil {
		problems = append(problems, "group_files: "+err.Error())
	}
	if err := ensureProfiles(ctx, db); err != nil {
		problems = append(problems, "profiles: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", name))

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			// Same keys already present under a different name or with
			// different options. Surface it; silently keeping a stale
			// definition would hide a broken invariant.
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}},
			Options: &options.IndexOptions{Name: strPtr("created_by_1")},
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: &options.IndexOptions{Name: strPtr("name_ci_1")},
		},
	})
}

func ensureGroupMemberships(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("group_memberships"), []mongo.IndexModel{
		{
			// At most one active membership per (group, user). Removed
			// memberships are excluded so a re-invite after removal works.
			Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: &options.IndexOptions{
				Name:                    strPtr("uniq_active_member"),
				Unique:                  boolPtr(true),
				PartialFilterExpression: bson.M{"status": "active"},
			},
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "status", Value: 1}},
			Options: &options.IndexOptions{Name: strPtr("group_id_status_1")},
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
			Options: &options.IndexOptions{Name: strPtr("user_id_status_1")},
		},
	})
}

func ensureTasks(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("tasks"), []mongo.IndexModel{
		{
			// Group task lists read newest-first.
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: &options.IndexOptions{Name: strPtr("group_id_created_at_-1")},
		},
	})
}

func ensureGroupFiles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("group_files"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: &options.IndexOptions{Name: strPtr("group_id_created_at_-1")},
		},
	})
}

func ensureProfiles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("profiles"), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email_ci", Value: 1}},
			Options: &options.IndexOptions{
				Name:   strPtr("uniq_email_ci"),
				Unique: boolPtr(true),
			},
		},
	})
}
