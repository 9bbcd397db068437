package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FoldlyDev/foldly-sub005/models"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

// FolderService owns the self-referential folder tree: creation, moves,
// breadcrumb traversal, and the depth and sibling-uniqueness invariants.
type FolderService struct {
	db               *mongo.Database
	folderCollection *mongo.Collection
}

func NewFolderService(db *mongo.Database) *FolderService {
	s := &FolderService{
		db:               db,
		folderCollection: db.Collection("folders"),
	}
	s.createIndexes()
	return s
}

func (s *FolderService) createIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The compound unique index is the authoritative guard against
	// sibling name collisions; a null parent_id indexes as a value, so
	// root-level siblings are covered as their own equivalence class.
	siblingIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "workspace_id", Value: 1},
			{Key: "parent_id", Value: 1},
			{Key: "name", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("folder_sibling_name_unique"),
	}

	parentIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "parent_id", Value: 1}},
		Options: options.Index().SetName("folder_parent_index"),
	}

	_, err := s.folderCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{siblingIndex, parentIndex})
	if err != nil {
		utils.LogWarning(fmt.Sprintf("failed to create folder indexes: %v", err))
	}
}

type treeNode struct {
	models.Folder `bson:",inline"`
	Hops          int64 `bson:"hops"`
}

// lookupChain runs a single $graphLookup along the parent chain, either
// upward (ancestors) or downward (descendants). One query regardless of
// tree height, which matters with trees at the depth limit.
func (s *FolderService) lookupChain(ctx context.Context, workspaceID, folderID primitive.ObjectID, downward bool) (*models.Folder, []treeNode, error) {
	graph := bson.M{
		"from":             "folders",
		"as":               "chain",
		"depthField":       "hops",
		"restrictSearchWithMatch": bson.M{"workspace_id": workspaceID},
	}
	if downward {
		graph["startWith"] = "$_id"
		graph["connectFromField"] = "_id"
		graph["connectToField"] = "parent_id"
	} else {
		graph["startWith"] = "$parent_id"
		graph["connectFromField"] = "parent_id"
		graph["connectToField"] = "_id"
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": folderID, "workspace_id": workspaceID}}},
		bson.D{{Key: "$graphLookup", Value: graph}},
	}

	cursor, err := s.folderCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to traverse folder tree: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		models.Folder `bson:",inline"`
		Chain         []treeNode `bson:"chain"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, nil, fmt.Errorf("failed to decode folder traversal: %w", err)
	}
	if len(results) == 0 {
		return nil, nil, ErrNotFound
	}

	folder := results[0].Folder
	return &folder, results[0].Chain, nil
}

// ancestors returns the chain above a folder ordered root-first.
func (s *FolderService) ancestors(ctx context.Context, workspaceID, folderID primitive.ObjectID) (*models.Folder, []models.Folder, error) {
	folder, chain, err := s.lookupChain(ctx, workspaceID, folderID, false)
	if err != nil {
		return nil, nil, err
	}

	// Higher hop count = further up; the root has the most hops.
	sort.Slice(chain, func(i, j int) bool { return chain[i].Hops > chain[j].Hops })

	ordered := make([]models.Folder, 0, len(chain))
	for _, n := range chain {
		ordered = append(ordered, n.Folder)
	}
	return folder, ordered, nil
}

// descendants returns the subtree below a folder along with its height
// (0 for a leaf).
func (s *FolderService) descendants(ctx context.Context, workspaceID, folderID primitive.ObjectID) (*models.Folder, []models.Folder, int, error) {
	folder, chain, err := s.lookupChain(ctx, workspaceID, folderID, true)
	if err != nil {
		return nil, nil, 0, err
	}

	height := 0
	nodes := make([]models.Folder, 0, len(chain))
	for _, n := range chain {
		nodes = append(nodes, n.Folder)
		if int(n.Hops)+1 > height {
			height = int(n.Hops) + 1
		}
	}
	return folder, nodes, height, nil
}

// GetDepth counts a folder's ancestors; a root folder has depth 0.
func (s *FolderService) GetDepth(ctx context.Context, workspaceID, folderID primitive.ObjectID) (int, error) {
	_, chain, err := s.ancestors(ctx, workspaceID, folderID)
	if err != nil {
		return 0, err
	}
	return len(chain), nil
}

// GetAncestorPath returns the breadcrumb from the workspace root down to
// and including the folder itself.
func (s *FolderService) GetAncestorPath(ctx context.Context, workspaceID, folderID primitive.ObjectID) ([]models.Folder, error) {
	folder, chain, err := s.ancestors(ctx, workspaceID, folderID)
	if err != nil {
		return nil, err
	}
	return append(chain, *folder), nil
}

func (s *FolderService) siblingExists(ctx context.Context, workspaceID primitive.ObjectID, parentID *primitive.ObjectID, name string, excludeID *primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"workspace_id": workspaceID,
		"name":         name,
	}
	if parentID != nil {
		filter["parent_id"] = *parentID
	} else {
		filter["parent_id"] = nil
	}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	count, err := s.folderCollection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check sibling names: %w", err)
	}
	return count > 0, nil
}

// CreateFolder validates the name, the sibling-uniqueness invariant and
// the would-be depth of the new node, then inserts it. Uploader fields
// are set only for folders created by external contributors.
func (s *FolderService) CreateFolder(ctx context.Context, workspaceID primitive.ObjectID, name string, parentID, linkID *primitive.ObjectID, uploaderEmail, uploaderName string) (*models.Folder, error) {
	if err := utils.ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if parentID != nil {
		parent, chain, err := s.ancestors(ctx, workspaceID, *parentID)
		if err != nil {
			return nil, err
		}
		if len(chain)+1 > models.MaxFolderDepth {
			return nil, ErrDepthExceeded
		}
		// A folder created inside a link's tree belongs to that link.
		if linkID == nil && parent.LinkID != nil {
			linkID = parent.LinkID
		}
	}

	exists, err := s.siblingExists(ctx, workspaceID, parentID, name, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	now := time.Now()
	folder := models.Folder{
		ID:            primitive.NewObjectID(),
		WorkspaceID:   workspaceID,
		LinkID:        linkID,
		ParentID:      parentID,
		Name:          name,
		UploaderEmail: uploaderEmail,
		UploaderName:  uploaderName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := s.folderCollection.InsertOne(ctx, folder); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	return &folder, nil
}

func (s *FolderService) GetFolder(ctx context.Context, workspaceID, folderID primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	err := s.folderCollection.FindOne(ctx, bson.M{
		"_id":          folderID,
		"workspace_id": workspaceID,
	}).Decode(&folder)

	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &folder, nil
}

// ListChildren lists the direct child folders of a parent; a nil parent
// lists the workspace root.
func (s *FolderService) ListChildren(ctx context.Context, workspaceID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Folder, error) {
	filter := bson.M{"workspace_id": workspaceID}
	if parentID != nil {
		filter["parent_id"] = *parentID
	} else {
		filter["parent_id"] = nil
	}

	cursor, err := s.folderCollection.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err = cursor.All(ctx, &folders); err != nil {
		return nil, fmt.Errorf("failed to decode folders: %w", err)
	}

	return folders, nil
}

func (s *FolderService) RenameFolder(ctx context.Context, workspaceID, folderID primitive.ObjectID, newName string) error {
	if err := utils.ValidateName(newName); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	folder, err := s.GetFolder(ctx, workspaceID, folderID)
	if err != nil {
		return err
	}

	exists, err := s.siblingExists(ctx, workspaceID, folder.ParentID, newName, &folderID)
	if err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}

	_, err = s.folderCollection.UpdateOne(ctx, bson.M{"_id": folderID}, bson.M{
		"$set": bson.M{"name": newName, "updated_at": time.Now()},
	})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to rename folder: %w", err)
	}

	return nil
}

// MoveFolder re-parents a subtree. The target must not be the folder
// itself or any of its descendants, the name must stay unique among the
// new siblings, and every node of the subtree must stay within the
// depth limit at its new absolute depth.
func (s *FolderService) MoveFolder(ctx context.Context, workspaceID, folderID primitive.ObjectID, newParentID *primitive.ObjectID) error {
	folder, subtree, height, err := s.descendants(ctx, workspaceID, folderID)
	if err != nil {
		return err
	}

	var newLinkID *primitive.ObjectID
	if newParentID != nil {
		if *newParentID == folderID {
			return ErrCyclicMove
		}
		for _, d := range subtree {
			if d.ID == *newParentID {
				return ErrCyclicMove
			}
		}

		parent, parentChain, err := s.ancestors(ctx, workspaceID, *newParentID)
		if err != nil {
			return err
		}

		// Deepest descendant lands at parentDepth + 1 + height.
		if len(parentChain)+1+height > models.MaxFolderDepth {
			return ErrDepthExceeded
		}
		newLinkID = parent.LinkID
	} else {
		newLinkID = folder.LinkID
	}

	exists, err := s.siblingExists(ctx, workspaceID, newParentID, folder.Name, &folderID)
	if err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}

	update := bson.M{"updated_at": time.Now()}
	if newParentID != nil {
		update["parent_id"] = *newParentID
	} else {
		update["parent_id"] = nil
	}
	update["link_id"] = newLinkID

	// The reparent and the subtree re-scope commit together; a subtree
	// must never disagree with its ancestor about which link owns it.
	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := s.folderCollection.UpdateOne(sessCtx, bson.M{"_id": folderID}, bson.M{"$set": update}); err != nil {
			return nil, fmt.Errorf("failed to move folder: %w", err)
		}

		// Moving across link trees re-scopes the whole subtree, the
		// folder's own files included.
		if !sameLinkRef(folder.LinkID, newLinkID) {
			ids := make([]primitive.ObjectID, 0, len(subtree))
			for _, d := range subtree {
				ids = append(ids, d.ID)
			}
			if len(ids) > 0 {
				if _, err := s.folderCollection.UpdateMany(sessCtx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{
					"$set": bson.M{"link_id": newLinkID, "updated_at": time.Now()},
				}); err != nil {
					return nil, fmt.Errorf("failed to re-scope moved subtree: %w", err)
				}
			}
			if _, err := s.db.Collection("files").UpdateMany(sessCtx, bson.M{"parent_id": bson.M{"$in": append(ids, folderID)}}, bson.M{
				"$set": bson.M{"link_id": newLinkID, "updated_at": time.Now()},
			}); err != nil {
				return nil, fmt.Errorf("failed to re-scope moved files: %w", err)
			}
		}
		return nil, nil
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	if _, err := session.WithTransaction(ctx, callback); err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func sameLinkRef(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DeleteFolder removes one node. Its child folders and files detach to
// root level per the relationship table; only workspace and user
// deletes cascade through folder contents.
func (s *FolderService) DeleteFolder(ctx context.Context, workspaceID, folderID primitive.ObjectID) error {
	if _, err := s.GetFolder(ctx, workspaceID, folderID); err != nil {
		return err
	}

	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := applyDeletionPolicies(sessCtx, s.db, models.EntityFolder, folderID); err != nil {
			return nil, err
		}

		result, err := s.folderCollection.DeleteOne(sessCtx, bson.M{"_id": folderID, "workspace_id": workspaceID})
		if err != nil {
			return nil, fmt.Errorf("failed to delete folder: %w", err)
		}
		if result.DeletedCount == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, callback)
	return err
}
