package worker

import (
	"context"
	"sync"
	"time"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/services"
)

// NotificationKind selects which message a job produces.
type NotificationKind string

const (
	KindRequestReceived NotificationKind = "request_received"
	KindStatusChanged   NotificationKind = "status_changed"
	KindStaffNewRequest NotificationKind = "staff_new_request"
)

// NotificationJob is one queued outbound notification.
type NotificationJob struct {
	Kind    NotificationKind
	Request *models.InfoRequest
}

// NotificationWorker drains a buffered queue of notification jobs. Senders
// never block on SMTP: Enqueue drops the job with a log line when the queue is
// saturated, because a slow mail server must not slow down request intake.
type NotificationWorker struct {
	notifier services.Notifier
	jobs     chan NotificationJob
	logger   *pkg.Logger
	wg       sync.WaitGroup
}

// NewNotificationWorker creates a notification worker with the given queue
// capacity.
func NewNotificationWorker(notifier services.Notifier, queueSize int, logger *pkg.Logger) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &NotificationWorker{
		notifier: notifier,
		jobs:     make(chan NotificationJob, queueSize),
		logger:   logger,
	}
}

// Start launches the drain goroutine. Stop the worker by cancelling ctx.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-w.jobs:
				w.process(job)
			}
		}
	}()
}

// Wait blocks until the drain goroutine has exited.
func (w *NotificationWorker) Wait() {
	w.wg.Wait()
}

// Enqueue queues a notification without blocking the caller.
func (w *NotificationWorker) Enqueue(job NotificationJob) {
	select {
	case w.jobs <- job:
	default:
		w.logger.Warn("notification queue saturated, dropping job", map[string]interface{}{
			"kind":          string(job.Kind),
			"tracking_code": job.Request.TrackingCode,
		})
	}
}

// EnqueueRequestReceived implements services.NotificationQueue.
func (w *NotificationWorker) EnqueueRequestReceived(req *models.InfoRequest) {
	w.Enqueue(NotificationJob{Kind: KindRequestReceived, Request: req})
}

// EnqueueStatusChanged implements services.NotificationQueue.
func (w *NotificationWorker) EnqueueStatusChanged(req *models.InfoRequest) {
	w.Enqueue(NotificationJob{Kind: KindStatusChanged, Request: req})
}

// EnqueueStaffNewRequest implements services.NotificationQueue.
func (w *NotificationWorker) EnqueueStaffNewRequest(req *models.InfoRequest) {
	w.Enqueue(NotificationJob{Kind: KindStaffNewRequest, Request: req})
}

func (w *NotificationWorker) process(job NotificationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch job.Kind {
	case KindRequestReceived:
		err = w.notifier.SendRequestReceived(ctx, job.Request)
	case KindStatusChanged:
		err = w.notifier.SendRequestStatusChanged(ctx, job.Request)
	case KindStaffNewRequest:
		err = w.notifier.NotifyStaffNewRequest(ctx, job.Request)
	}
	if err != nil {
		// Delivery failures are terminal; the request itself already succeeded.
		w.logger.Error("notification delivery failed", map[string]interface{}{
			"kind":          string(job.Kind),
			"tracking_code": job.Request.TrackingCode,
			"error":         err.Error(),
		})
	}
}
