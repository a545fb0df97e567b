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

type documentRepository struct {
	*BaseRepository
}

// NewDocumentRepository creates a document repository bound to a domain's
// collection namespace.
func NewDocumentRepository(mongodb *MongoDB, domain models.Domain) DocumentRepository {
	return &documentRepository{
		BaseRepository: NewBaseRepository(mongodb, domain.Collection("documents")),
	}
}

// publishedDocSort is the fixed listing order: featured first, then newest.
var publishedDocSort = bson.D{{Key: "featured", Value: -1}, {Key: "published_at", Value: -1}}

// Create creates a new document
func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	doc.ID = primitive.NewObjectID()
	doc.PublishedAt = time.Now()
	doc.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetByID retrieves document by ID
func (r *documentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	var doc models.Document
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, pkg.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document by ID: %w", err)
	}
	return &doc, nil
}

// Update updates document data
func (r *documentRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return r.BaseRepository.Update(ctx, bson.M{"_id": id}, updates, pkg.ErrDocumentNotFound)
}

// Delete permanently deletes a document
func (r *documentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.BaseRepository.Delete(ctx, bson.M{"_id": id}, pkg.ErrDocumentNotFound)
}

// ListPublishedByFolder retrieves a folder's published documents,
// featured-first then newest-first. A nil folderID selects the documents at
// the category root.
func (r *documentRepository) ListPublishedByFolder(ctx context.Context, categoryID primitive.ObjectID, folderID *primitive.ObjectID) ([]*models.Document, error) {
	filter := bson.M{"published": true, "folder_id": objectIDOrNil(folderID)}
	if folderID == nil {
		filter["category_id"] = categoryID
	}

	var docs []*models.Document
	opts := options.Find().SetSort(publishedDocSort)
	if err := r.findAll(ctx, filter, opts, &docs); err != nil {
		return nil, fmt.Errorf("failed to list published documents: %w", err)
	}
	return docs, nil
}

// CountPublishedByCategory counts a category's published documents
func (r *documentRepository) CountPublishedByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"category_id": categoryID, "published": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count category documents: %w", err)
	}
	return count, nil
}

// CountPublishedGroupedByFolder buckets a category's published documents by
// folder. The nil bucket (documents at the category root) is returned
// separately.
func (r *documentRepository) CountPublishedGroupedByFolder(ctx context.Context, categoryID primitive.ObjectID) (map[primitive.ObjectID]int64, int64, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"category_id": categoryID, "published": true}},
		{"$group": bson.M{"_id": "$folder_id", "total": bson.M{"$sum": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to aggregate folder counts: %w", err)
	}
	defer cursor.Close(ctx)

	var buckets []struct {
		FolderID *primitive.ObjectID `bson:"_id"`
		Total    int64               `bson:"total"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, 0, fmt.Errorf("failed to decode folder counts: %w", err)
	}

	counts := make(map[primitive.ObjectID]int64, len(buckets))
	var rootCount int64
	for _, b := range buckets {
		if b.FolderID == nil {
			rootCount = b.Total
			continue
		}
		counts[*b.FolderID] = b.Total
	}
	return counts, rootCount, nil
}

// CountPublished counts every published document of the domain
func (r *documentRepository) CountPublished(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"published": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count published documents: %w", err)
	}
	return count, nil
}

// IncrementDownloadCount atomically bumps the download counter. The $inc is
// what keeps concurrent downloads from losing updates; never read-modify-write
// this field in application code.
func (r *documentRepository) IncrementDownloadCount(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{"download_count": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "published": true}, update)
	if err != nil {
		return fmt.Errorf("failed to increment download count: %w", err)
	}
	return nil
}

// Search retrieves published documents matching the filters, newest-first,
// paginated.
func (r *documentRepository) Search(ctx context.Context, search *DocumentSearch, params *pkg.PaginationParams) ([]*models.Document, int64, error) {
	filter := bson.M{"published": true}

	if search.Query != "" {
		text := r.BuildSearchFilter(search.Query, []string{"title", "description"})
		if len(search.TitleCategoryIDs) > 0 {
			// A query also matches documents whose category title matches.
			text["$or"] = append(text["$or"].([]bson.M), bson.M{
				"category_id": bson.M{"$in": search.TitleCategoryIDs},
			})
		}
		filter = bson.M{"$and": []bson.M{filter, text}}
	}

	and := []bson.M{filter}
	if len(search.CategoryIDs) > 0 {
		and = append(and, bson.M{"category_id": bson.M{"$in": search.CategoryIDs}})
	}
	if search.Extension != "" {
		and = append(and, bson.M{"extension": models.NormalizeExtension(search.Extension)})
	}
	if len(and) > 1 {
		filter = bson.M{"$and": and}
	}

	var docs []*models.Document
	total, err := r.BaseRepository.List(ctx, filter, params, &docs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search documents: %w", err)
	}
	return docs, total, nil
}

// ListFeatured retrieves featured published documents, newest-first
func (r *documentRepository) ListFeatured(ctx context.Context, categoryID *primitive.ObjectID, limit int64) ([]*models.Document, error) {
	filter := bson.M{"published": true, "featured": true}
	if categoryID != nil {
		filter["category_id"] = *categoryID
	}

	var docs []*models.Document
	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}}).SetLimit(limit)
	if err := r.findAll(ctx, filter, opts, &docs); err != nil {
		return nil, fmt.Errorf("failed to list featured documents: %w", err)
	}
	return docs, nil
}

// ListRecent retrieves the newest published documents
func (r *documentRepository) ListRecent(ctx context.Context, categoryID *primitive.ObjectID, limit int64) ([]*models.Document, error) {
	filter := bson.M{"published": true}
	if categoryID != nil {
		filter["category_id"] = *categoryID
	}

	var docs []*models.Document
	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}}).SetLimit(limit)
	if err := r.findAll(ctx, filter, opts, &docs); err != nil {
		return nil, fmt.Errorf("failed to list recent documents: %w", err)
	}
	return docs, nil
}

// ListMostDownloaded retrieves the most downloaded published documents
func (r *documentRepository) ListMostDownloaded(ctx context.Context, limit int64) ([]*models.Document, error) {
	var docs []*models.Document
	opts := options.Find().SetSort(bson.D{{Key: "download_count", Value: -1}}).SetLimit(limit)
	if err := r.findAll(ctx, bson.M{"published": true}, opts, &docs); err != nil {
		return nil, fmt.Errorf("failed to list most downloaded documents: %w", err)
	}
	return docs, nil
}

// TotalDownloads sums the download counters of published documents
func (r *documentRepository) TotalDownloads(ctx context.Context, categoryID *primitive.ObjectID) (int64, error) {
	match := bson.M{"published": true}
	if categoryID != nil {
		match["category_id"] = *categoryID
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$download_count"}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate downloads: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode download totals: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

// CountByExtension groups published documents by extension, optionally scoped
// to one category
func (r *documentRepository) CountByExtension(ctx context.Context, categoryID *primitive.ObjectID) ([]ExtensionCount, error) {
	match := bson.M{"published": true}
	if categoryID != nil {
		match["category_id"] = *categoryID
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$extension", "total": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"total": -1}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate extensions: %w", err)
	}
	defer cursor.Close(ctx)

	var results []ExtensionCount
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode extension counts: %w", err)
	}
	return results, nil
}

// CountByCategory groups published documents and their downloads by category
func (r *documentRepository) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"published": true}},
		{"$group": bson.M{
			"_id":       "$category_id",
			"total":     bson.M{"$sum": 1},
			"downloads": bson.M{"$sum": "$download_count"},
		}},
		{"$sort": bson.M{"total": -1}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	defer cursor.Close(ctx)

	var results []CategoryCount
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode category counts: %w", err)
	}
	return results, nil
}

// DeleteByCategory removes a category's documents and returns their storage
// keys for blob cleanup
func (r *documentRepository) DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]string, error) {
	return r.deleteCollecting(ctx, bson.M{"category_id": categoryID})
}

// DeleteByFolders removes the documents of the given folders and returns
// their storage keys for blob cleanup
func (r *documentRepository) DeleteByFolders(ctx context.Context, folderIDs []primitive.ObjectID) ([]string, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	return r.deleteCollecting(ctx, bson.M{"folder_id": bson.M{"$in": folderIDs}})
}

func (r *documentRepository) deleteCollecting(ctx context.Context, filter bson.M) ([]string, error) {
	var docs []*models.Document
	opts := options.Find().SetProjection(bson.M{"storage_key": 1})
	if err := r.findAll(ctx, filter, opts, &docs); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(docs))
	for _, d := range docs {
		keys = append(keys, d.StorageKey)
	}

	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to delete documents: %w", err)
	}
	return keys, nil
}
