package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FoldlyDev/foldly-sub005/models"
)

func collectionFor(db *mongo.Database, entity string) *mongo.Collection {
	switch entity {
	case models.EntityUser:
		return db.Collection("users")
	case models.EntityWorkspace:
		return db.Collection("workspaces")
	case models.EntityLink:
		return db.Collection("links")
	case models.EntityFolder:
		return db.Collection("folders")
	case models.EntityFile:
		return db.Collection("files")
	case models.EntityPermission:
		return db.Collection("permissions")
	}
	return nil
}

// applyDeletionPolicies walks the declared relationship table for one
// deleted parent row. Cascade relations recurse so that, e.g., a
// workspace delete also drops each link's permissions; Detach relations
// null the foreign reference and keep the rows.
func applyDeletionPolicies(ctx context.Context, db *mongo.Database, parent string, parentID primitive.ObjectID) error {
	for _, rel := range models.RelationsOf(parent) {
		coll := collectionFor(db, rel.Child)
		if coll == nil {
			return fmt.Errorf("no collection for entity %q", rel.Child)
		}

		filter := bson.M{rel.Field: parentID}

		switch rel.Policy {
		case models.Detach:
			_, err := coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{rel.Field: nil}})
			if err != nil {
				return fmt.Errorf("failed to detach %s.%s: %w", rel.Child, rel.Field, err)
			}

		case models.Cascade:
			childIDs, err := coll.Distinct(ctx, "_id", filter)
			if err != nil {
				return fmt.Errorf("failed to collect %s children: %w", rel.Child, err)
			}

			for _, raw := range childIDs {
				childID, ok := raw.(primitive.ObjectID)
				if !ok {
					continue
				}
				if err := applyDeletionPolicies(ctx, db, rel.Child, childID); err != nil {
					return err
				}
			}

			if _, err := coll.DeleteMany(ctx, filter); err != nil {
				return fmt.Errorf("failed to cascade delete %s: %w", rel.Child, err)
			}
		}
	}

	return nil
}
