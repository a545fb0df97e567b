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

// MongoDB client wrapper
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect establishes connection to MongoDB and bootstraps the indexes for
// every disclosure domain plus the portal-wide requests collection.
func Connect(uri, dbName string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoDB := &MongoDB{
		client:   client,
		database: client.Database(dbName),
	}

	if err := mongoDB.createIndexes(); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return mongoDB, nil
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Collection returns a collection instance
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// createIndexes creates all necessary indexes. Each domain owns an isolated
// set of collections, so the same index models are applied per domain.
func (m *MongoDB) createIndexes() error {
	ctx := context.Background()

	for _, domain := range models.AllDomains {
		categoryIndexes := []mongo.IndexModel{
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "display_order", Value: 1}}},
		}
		if _, err := m.Collection(domain.Collection("categories")).Indexes().CreateMany(ctx, categoryIndexes); err != nil {
			return fmt.Errorf("failed to create category indexes for %s: %w", domain.Name, err)
		}

		// Sibling names are unique within (category, parent).
		folderIndexes := []mongo.IndexModel{
			{Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "parent_id", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "parent_id", Value: 1}}},
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
			{Keys: bson.D{{Key: "display_order", Value: -1}}},
		}
		if _, err := m.Collection(domain.Collection("folders")).Indexes().CreateMany(ctx, folderIndexes); err != nil {
			return fmt.Errorf("failed to create folder indexes for %s: %w", domain.Name, err)
		}

		documentIndexes := []mongo.IndexModel{
			{Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "published", Value: 1}}},
			{Keys: bson.D{{Key: "folder_id", Value: 1}, {Key: "published", Value: 1}}},
			{Keys: bson.D{{Key: "published_at", Value: -1}}},
			{Keys: bson.D{{Key: "published", Value: 1}, {Key: "featured", Value: -1}}},
			{Keys: bson.D{{Key: "download_count", Value: -1}}},
		}
		if _, err := m.Collection(domain.Collection("documents")).Indexes().CreateMany(ctx, documentIndexes); err != nil {
			return fmt.Errorf("failed to create document indexes for %s: %w", domain.Name, err)
		}
	}

	requestIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tracking_code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "submitted_at", Value: -1}}},
	}
	if _, err := m.Collection("requests").Indexes().CreateMany(ctx, requestIndexes); err != nil {
		return fmt.Errorf("failed to create request indexes: %w", err)
	}

	return nil
}

// BaseRepository provides common repository functionality
type BaseRepository struct {
	collection *mongo.Collection
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(mongodb *MongoDB, collectionName string) *BaseRepository {
	return &BaseRepository{
		collection: mongodb.Collection(collectionName),
	}
}

// Update applies a $set update and stamps updated_at.
func (r *BaseRepository) Update(ctx context.Context, filter bson.M, updates map[string]interface{}, notFound *pkg.AppError) error {
	updates["updated_at"] = time.Now()
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if result.MatchedCount == 0 {
		return notFound
	}
	return nil
}

// Delete removes a single record.
func (r *BaseRepository) Delete(ctx context.Context, filter bson.M, notFound *pkg.AppError) error {
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if result.DeletedCount == 0 {
		return notFound
	}
	return nil
}

// List retrieves documents with pagination, decoding into results.
func (r *BaseRepository) List(ctx context.Context, filter bson.M, params *pkg.PaginationParams, results interface{}) (int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}

	opts := options.Find().
		SetSkip(int64(params.GetOffset())).
		SetLimit(int64(params.Limit)).
		SetSort(bson.D{{Key: params.Sort, Value: params.GetSortDirection()}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to find documents: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, results); err != nil {
		return 0, fmt.Errorf("failed to decode documents: %w", err)
	}

	return total, nil
}

// BuildSearchFilter builds a case-insensitive substring filter over fields.
func (r *BaseRepository) BuildSearchFilter(query string, fields []string) bson.M {
	if query == "" {
		return bson.M{}
	}

	var orConditions []bson.M
	for _, field := range fields {
		orConditions = append(orConditions, bson.M{
			field: bson.M{"$regex": query, "$options": "i"},
		})
	}

	return bson.M{"$or": orConditions}
}

// findAll runs a find with options and decodes all results.
func (r *BaseRepository) findAll(ctx context.Context, filter bson.M, opts *options.FindOptions, results interface{}) error {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("failed to find documents: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, results); err != nil {
		return fmt.Errorf("failed to decode documents: %w", err)
	}
	return nil
}

// DomainRepositories bundles the per-domain repository instances.
type DomainRepositories struct {
	Category CategoryRepository
	Folder   FolderRepository
	Document DocumentRepository
}

// NewDomainRepositories creates the repository set for one disclosure domain.
func NewDomainRepositories(mongodb *MongoDB, domain models.Domain) *DomainRepositories {
	return &DomainRepositories{
		Category: NewCategoryRepository(mongodb, domain),
		Folder:   NewFolderRepository(mongodb, domain),
		Document: NewDocumentRepository(mongodb, domain),
	}
}

// objectIDOrNil builds the parent filter value for nullable references.
func objectIDOrNil(id *primitive.ObjectID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
