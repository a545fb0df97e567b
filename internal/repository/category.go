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

type categoryRepository struct {
	*BaseRepository
}

// NewCategoryRepository creates a category repository bound to a domain's
// collection namespace.
func NewCategoryRepository(mongodb *MongoDB, domain models.Domain) CategoryRepository {
	return &categoryRepository{
		BaseRepository: NewBaseRepository(mongodb, domain.Collection("categories")),
	}
}

// Create creates a new category
func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	category.ID = primitive.NewObjectID()
	category.CreatedAt = time.Now()
	category.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, category)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return pkg.ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetByID retrieves category by ID
func (r *categoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var category models.Category
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, pkg.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by ID: %w", err)
	}
	return &category, nil
}

// GetBySlug retrieves category by slug
func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&category)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, pkg.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return &category, nil
}

// Update updates category data
func (r *categoryRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return r.BaseRepository.Update(ctx, bson.M{"_id": id}, updates, pkg.ErrCategoryNotFound)
}

// Delete permanently deletes a category
func (r *categoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.BaseRepository.Delete(ctx, bson.M{"_id": id}, pkg.ErrCategoryNotFound)
}

// ListActive retrieves active categories in display order
func (r *categoryRepository) ListActive(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	opts := options.Find().SetSort(bson.D{{Key: "display_order", Value: 1}, {Key: "code", Value: 1}})
	if err := r.findAll(ctx, bson.M{"active": true}, opts, &categories); err != nil {
		return nil, fmt.Errorf("failed to list active categories: %w", err)
	}
	return categories, nil
}

// ListAll retrieves every category, including inactive ones
func (r *categoryRepository) ListAll(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	opts := options.Find().SetSort(bson.D{{Key: "display_order", Value: 1}, {Key: "code", Value: 1}})
	if err := r.findAll(ctx, bson.M{}, opts, &categories); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// FindMatchingTitle returns the IDs of categories whose short title contains
// the query, case-insensitively.
func (r *categoryRepository) FindMatchingTitle(ctx context.Context, query string) ([]primitive.ObjectID, error) {
	if query == "" {
		return nil, nil
	}

	filter := r.BuildSearchFilter(query, []string{"short_title"})
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	var categories []*models.Category
	if err := r.findAll(ctx, filter, opts, &categories); err != nil {
		return nil, fmt.Errorf("failed to match category titles: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
