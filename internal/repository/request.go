package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
)

type requestRepository struct {
	*BaseRepository
}

// NewRequestRepository creates the portal-wide information-request repository.
// Requests are not domain-scoped; all five disclosure domains share one
// request channel.
func NewRequestRepository(mongodb *MongoDB) RequestRepository {
	return &requestRepository{
		BaseRepository: NewBaseRepository(mongodb, "requests"),
	}
}

// Create inserts a new request. The unique tracking_code index turns a code
// collision into ErrDuplicateTrackingCode so the caller can regenerate and
// retry.
func (r *requestRepository) Create(ctx context.Context, req *models.InfoRequest) error {
	req.ID = primitive.NewObjectID()
	req.SubmittedAt = time.Now()
	req.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return pkg.ErrDuplicateTrackingCode
		}
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// GetByID retrieves request by ID
func (r *requestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.InfoRequest, error) {
	var req models.InfoRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, pkg.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request by ID: %w", err)
	}
	return &req, nil
}

// GetByTrackingCode retrieves a request by its tracking code,
// case-insensitively. Codes are stored uppercase, so uppercasing the input is
// enough for an exact indexed match.
func (r *requestRepository) GetByTrackingCode(ctx context.Context, code string) (*models.InfoRequest, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var req models.InfoRequest
	err := r.collection.FindOne(ctx, bson.M{"tracking_code": code}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, pkg.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request by tracking code: %w", err)
	}
	return &req, nil
}

// UpdateStatus moves a request to a new status, stamping the answer fields
// when the transition carries them.
func (r *requestRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RequestStatus, answeredAt *time.Time, answerText string) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if answeredAt != nil {
		updates["answered_at"] = *answeredAt
	}
	if answerText != "" {
		updates["answer_text"] = answerText
	}
	return r.BaseRepository.Update(ctx, bson.M{"_id": id}, updates, pkg.ErrRequestNotFound)
}

// List retrieves requests with pagination, optionally filtered by status
func (r *requestRepository) List(ctx context.Context, status models.RequestStatus, params *pkg.PaginationParams) ([]*models.InfoRequest, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if params.Search != "" {
		filter = bson.M{"$and": []bson.M{
			filter,
			r.BuildSearchFilter(params.Search, []string{"full_name", "email", "tracking_code"}),
		}}
	}

	var requests []*models.InfoRequest
	total, err := r.BaseRepository.List(ctx, filter, params, &requests)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, total, nil
}

// CountByStatus groups requests by status
func (r *requestRepository) CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$status", "total": bson.M{"$sum": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate request statuses: %w", err)
	}
	defer cursor.Close(ctx)

	var buckets []struct {
		Status models.RequestStatus `bson:"_id"`
		Total  int64                `bson:"total"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("failed to decode status counts: %w", err)
	}

	counts := make(map[models.RequestStatus]int64, len(buckets))
	for _, b := range buckets {
		counts[b.Status] = b.Total
	}
	return counts, nil
}

// CountOverduePending counts pending requests submitted before the cutoff
func (r *requestRepository) CountOverduePending(ctx context.Context, submittedBefore time.Time) (int64, error) {
	filter := bson.M{
		"status":       models.StatusPending,
		"submitted_at": bson.M{"$lt": submittedBefore},
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count overdue requests: %w", err)
	}
	return count, nil
}
