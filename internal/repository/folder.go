package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
)

type folderRepository struct {
	*BaseRepository
}

// NewFolderRepository creates a folder repository bound to a domain's
// collection namespace.
func NewFolderRepository(mongodb *MongoDB, domain models.Domain) FolderRepository {
	return &folderRepository{
		BaseRepository: NewBaseRepository(mongodb, domain.Collection("folders")),
	}
}

// Create creates a new folder
func (r *folderRepository) Create(ctx context.Context, folder *models.Folder) error {
	folder.ID = primitive.NewObjectID()
	folder.CreatedAt = time.Now()
	folder.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, folder)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return pkg.ErrFolderAlreadyExists
		}
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

// GetByID retrieves folder by ID
func (r *folderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&folder)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, pkg.ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to get folder by ID: %w", err)
	}
	return &folder, nil
}

// Update updates folder data
func (r *folderRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return r.BaseRepository.Update(ctx, bson.M{"_id": id}, updates, pkg.ErrFolderNotFound)
}

// Delete permanently deletes a folder
func (r *folderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.BaseRepository.Delete(ctx, bson.M{"_id": id}, pkg.ErrFolderNotFound)
}

// ListChildren retrieves a folder's children. Deeper levels order by
// (-display_order, +name), unlike roots.
func (r *folderRepository) ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]*models.Folder, error) {
	var folders []*models.Folder
	filter := bson.M{"parent_id": parentID}
	opts := options.Find().SetSort(bson.D{{Key: "display_order", Value: -1}, {Key: "name", Value: 1}})
	if err := r.findAll(ctx, filter, opts, &folders); err != nil {
		return nil, fmt.Errorf("failed to list child folders: %w", err)
	}
	return folders, nil
}

// ListByCategory retrieves every folder of a category in root order,
// (-display_order, -name): years newest-first.
func (r *folderRepository) ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]*models.Folder, error) {
	var folders []*models.Folder
	filter := bson.M{"category_id": categoryID}
	opts := options.Find().SetSort(bson.D{{Key: "display_order", Value: -1}, {Key: "name", Value: -1}})
	if err := r.findAll(ctx, filter, opts, &folders); err != nil {
		return nil, fmt.Errorf("failed to list folders by category: %w", err)
	}
	return folders, nil
}

// CountRoots counts a category's root folders
func (r *folderRepository) CountRoots(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"category_id": categoryID, "parent_id": nil})
	if err != nil {
		return 0, fmt.Errorf("failed to count root folders: %w", err)
	}
	return count, nil
}

// CountByCategory counts every folder of a category
func (r *folderRepository) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"category_id": categoryID})
	if err != nil {
		return 0, fmt.Errorf("failed to count folders: %w", err)
	}
	return count, nil
}

// CountAll counts every folder of the domain
func (r *folderRepository) CountAll(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count folders: %w", err)
	}
	return count, nil
}

// DeleteByCategory removes every folder of a category (category cascade)
func (r *folderRepository) DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"category_id": categoryID}); err != nil {
		return fmt.Errorf("failed to delete folders by category: %w", err)
	}
	return nil
}

// DeleteMany removes the given folders (subtree cascade)
func (r *folderRepository) DeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("failed to delete folders: %w", err)
	}
	return nil
}
