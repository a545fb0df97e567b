package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/repository"
)

// trackingCodeRetries bounds the regenerate-and-retry loop on a tracking code
// collision. With 36^6 codes per day, two retries is already astronomical;
// five means a persistent failure is a database problem, not bad luck.
const trackingCodeRetries = 5

// NotificationQueue decouples request handling from notification delivery.
// Enqueues never block and never fail the request.
type NotificationQueue interface {
	EnqueueRequestReceived(req *models.InfoRequest)
	EnqueueStatusChanged(req *models.InfoRequest)
	EnqueueStaffNewRequest(req *models.InfoRequest)
}

// SubmitRequestInput is the citizen-facing submission payload.
type SubmitRequestInput struct {
	FullName  string        `json:"fullName" validate:"required,min=3,max=200"`
	Residence string        `json:"residence" validate:"required,max=300"`
	Phone     string        `json:"phone" validate:"required,phone"`
	Email     string        `json:"email" validate:"required,email"`
	Gender    models.Gender `json:"gender" validate:"omitempty,oneof=male female other prefer-not-to-say"`
	Body      string        `json:"body" validate:"required,min=10,max=5000"`
	// An omitted delivery medium falls back to email.
	DeliveryMethod models.DeliveryMethod `json:"deliveryMethod" validate:"omitempty,oneof=email printed storage-device"`
}

// RequestView is the public lookup payload: the request plus its derived SLA
// state.
type RequestView struct {
	Request  *models.InfoRequest `json:"request"`
	DaysOpen int                 `json:"daysOpen"`
	Overdue  bool                `json:"overdue"`
}

// TransitionResult reports one request of a bulk transition.
type TransitionResult struct {
	ID    primitive.ObjectID `json:"id"`
	Error string             `json:"error,omitempty"`
}

// RequestService manages the portal-wide information request lifecycle.
type RequestService struct {
	requestRepo repository.RequestRepository
	queue       NotificationQueue
	logger      *pkg.Logger
}

// NewRequestService creates a new request service
func NewRequestService(requestRepo repository.RequestRepository, queue NotificationQueue, logger *pkg.Logger) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		queue:       queue,
		logger:      logger,
	}
}

// Submit validates and stores a new request, assigning it a unique tracking
// code. A code collision regenerates and retries; the requester and the
// information-access unit are notified asynchronously.
func (s *RequestService) Submit(ctx context.Context, input *SubmitRequestInput, clientIP, userAgent string) (*models.InfoRequest, error) {
	if input.DeliveryMethod == "" {
		input.DeliveryMethod = models.DeliveryEmail
	}
	if err := pkg.DefaultValidator.Validate(input); err != nil {
		return nil, err
	}

	req := &models.InfoRequest{
		FullName:       input.FullName,
		Residence:      input.Residence,
		Phone:          input.Phone,
		Email:          input.Email,
		Gender:         input.Gender,
		Body:           input.Body,
		DeliveryMethod: input.DeliveryMethod,
		Status:         models.StatusPending,
		ClientIP:       clientIP,
		UserAgent:      userAgent,
	}

	var err error
	for attempt := 0; attempt < trackingCodeRetries; attempt++ {
		req.TrackingCode = models.NewTrackingCode(time.Now())
		err = s.requestRepo.Create(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, pkg.ErrDuplicateTrackingCode) {
			return nil, err
		}
		s.logger.Warn("tracking code collision, regenerating", map[string]interface{}{
			"attempt": attempt + 1,
		})
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("information request submitted", map[string]interface{}{
		"tracking_code": req.TrackingCode,
		"delivery":      string(req.DeliveryMethod),
	})

	if s.queue != nil {
		s.queue.EnqueueRequestReceived(req)
		s.queue.EnqueueStaffNewRequest(req)
	}
	return req, nil
}

// Lookup resolves a tracking code, case-insensitively, into the request and
// its derived SLA state.
func (s *RequestService) Lookup(ctx context.Context, trackingCode string) (*RequestView, error) {
	req, err := s.requestRepo.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &RequestView{
		Request:  req,
		DaysOpen: req.DaysSinceSubmission(now),
		Overdue:  req.IsOverdue(now),
	}, nil
}

// List returns requests for the staff surface, optionally filtered by status.
func (s *RequestService) List(ctx context.Context, status models.RequestStatus, params *pkg.PaginationParams) ([]*models.InfoRequest, int64, error) {
	if status != "" && !models.ValidStatus(status) {
		return nil, 0, pkg.ErrInvalidInput
	}
	return s.requestRepo.List(ctx, status, params)
}

// Transition moves a request to a new status. Terminal states are final;
// moving into one stamps the answer timestamp. The requester is notified
// asynchronously.
func (s *RequestService) Transition(ctx context.Context, id primitive.ObjectID, target models.RequestStatus, answerText string) (*models.InfoRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !req.CanTransition(target) {
		return nil, pkg.ErrInvalidTransition.WithDetails(map[string]interface{}{
			"from": string(req.Status),
			"to":   string(target),
		})
	}

	var answeredAt *time.Time
	if target.IsTerminal() {
		now := time.Now()
		answeredAt = &now
	}

	if err := s.requestRepo.UpdateStatus(ctx, id, target, answeredAt, answerText); err != nil {
		return nil, err
	}

	req.Status = target
	req.AnsweredAt = answeredAt
	if answerText != "" {
		req.AnswerText = answerText
	}

	s.logger.Info("request status changed", map[string]interface{}{
		"tracking_code": req.TrackingCode,
		"status":        string(target),
	})

	if s.queue != nil {
		s.queue.EnqueueStatusChanged(req)
	}
	return req, nil
}

// BulkTransition applies the same transition to many requests, reporting the
// outcome of each. One illegal transition does not stop the rest.
func (s *RequestService) BulkTransition(ctx context.Context, ids []primitive.ObjectID, target models.RequestStatus, answerText string) []TransitionResult {
	results := make([]TransitionResult, 0, len(ids))
	for _, id := range ids {
		result := TransitionResult{ID: id}
		if _, err := s.Transition(ctx, id, target, answerText); err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// Statistics returns the current request counts, the overdue bucket included.
func (s *RequestService) Statistics(ctx context.Context) (*models.RequestStatistics, error) {
	counts, err := s.requestRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -models.ResponseDeadlineDays)
	overdue, err := s.requestRepo.CountOverduePending(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	stats := &models.RequestStatistics{
		Pending:    counts[models.StatusPending],
		InProgress: counts[models.StatusInProgress],
		Answered:   counts[models.StatusAnswered],
		Rejected:   counts[models.StatusRejected],
		Overdue:    overdue,
	}
	stats.Total = stats.Pending + stats.InProgress + stats.Answered + stats.Rejected
	return stats, nil
}
