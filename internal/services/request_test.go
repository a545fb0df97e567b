package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
)

func validSubmitInput() *SubmitRequestInput {
	return &SubmitRequestInput{
		FullName:       "Juana Pérez",
		Residence:      "Zona 1, Cabecera Municipal",
		Phone:          "+502 5555 1234",
		Email:          "juana.perez@example.com",
		Gender:         models.GenderFemale,
		Body:           "Solicito copia del presupuesto municipal aprobado para 2024.",
		DeliveryMethod: models.DeliveryEmail,
	}
}

func TestSubmitAssignsTrackingCodeAndNotifies(t *testing.T) {
	repo := newFakeRequestRepo()
	queue := &fakeQueue{}
	svc := NewRequestService(repo, queue, pkg.NewLogger(pkg.LevelError))

	req, err := svc.Submit(context.Background(), validSubmitInput(), "203.0.113.7", "test-agent")
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	if !strings.HasPrefix(req.TrackingCode, "SI-") {
		t.Errorf("TrackingCode = %q, want SI- prefix", req.TrackingCode)
	}
	if req.Status != models.StatusPending {
		t.Errorf("Status = %s, want pending", req.Status)
	}
	if req.ClientIP != "203.0.113.7" {
		t.Errorf("ClientIP = %q", req.ClientIP)
	}
	if len(queue.received) != 1 || len(queue.staff) != 1 {
		t.Errorf("notifications = %d requester / %d staff, want 1 / 1", len(queue.received), len(queue.staff))
	}
}

func TestSubmitValidation(t *testing.T) {
	svc := NewRequestService(newFakeRequestRepo(), &fakeQueue{}, pkg.NewLogger(pkg.LevelError))

	input := validSubmitInput()
	input.Email = "not-an-email"
	if _, err := svc.Submit(context.Background(), input, "", ""); err == nil {
		t.Error("Submit(bad email) returned no error")
	}

	input = validSubmitInput()
	input.Body = "corto"
	if _, err := svc.Submit(context.Background(), input, "", ""); err == nil {
		t.Error("Submit(short body) returned no error")
	}

	input = validSubmitInput()
	input.Phone = ""
	if _, err := svc.Submit(context.Background(), input, "", ""); err == nil {
		t.Error("Submit(missing phone) returned no error")
	}

	input = validSubmitInput()
	input.DeliveryMethod = "pigeon"
	if _, err := svc.Submit(context.Background(), input, "", ""); err == nil {
		t.Error("Submit(bad delivery method) returned no error")
	}
}

func TestSubmitDefaultsDeliveryToEmail(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := NewRequestService(repo, &fakeQueue{}, pkg.NewLogger(pkg.LevelError))

	input := validSubmitInput()
	input.DeliveryMethod = ""
	req, err := svc.Submit(context.Background(), input, "", "")
	if err != nil {
		t.Fatalf("Submit(no delivery method) error: %v", err)
	}
	if req.DeliveryMethod != models.DeliveryEmail {
		t.Errorf("DeliveryMethod = %q, want %q", req.DeliveryMethod, models.DeliveryEmail)
	}
}

func TestSubmitRetriesOnTrackingCodeCollision(t *testing.T) {
	repo := newFakeRequestRepo()
	repo.failCreates = 2
	svc := NewRequestService(repo, &fakeQueue{}, pkg.NewLogger(pkg.LevelError))

	req, err := svc.Submit(context.Background(), validSubmitInput(), "", "")
	if err != nil {
		t.Fatalf("Submit() after collisions error: %v", err)
	}
	if req.TrackingCode == "" {
		t.Error("TrackingCode empty after retries")
	}
}

func TestSubmitGivesUpAfterPersistentCollisions(t *testing.T) {
	repo := newFakeRequestRepo()
	repo.failCreates = 100
	svc := NewRequestService(repo, &fakeQueue{}, pkg.NewLogger(pkg.LevelError))

	_, err := svc.Submit(context.Background(), validSubmitInput(), "", "")
	if !errors.Is(err, pkg.ErrDuplicateTrackingCode) {
		t.Errorf("Submit(persistent collisions) error = %v, want ErrDuplicateTrackingCode", err)
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := NewRequestService(repo, &fakeQueue{}, pkg.NewLogger(pkg.LevelError))

	req, err := svc.Submit(context.Background(), validSubmitInput(), "", "")
	if err != nil {
		t.Fatal(err)
	}

	view, err := svc.Lookup(context.Background(), strings.ToLower(req.TrackingCode))
	if err != nil {
		t.Fatalf("Lookup(lowercase) error: %v", err)
	}
	if view.Request.TrackingCode != req.TrackingCode {
		t.Errorf("Lookup returned %q, want %q", view.Request.TrackingCode, req.TrackingCode)
	}
}

func TestLookupUnknownCode(t *testing.T) {
	svc := NewRequestService(newFakeRequestRepo(), &fakeQueue{}, pkg.NewLogger(pkg.LevelError))

	_, err := svc.Lookup(context.Background(), "SI-20240101-ZZZZZZ")
	if !errors.Is(err, pkg.ErrRequestNotFound) {
		t.Errorf("Lookup(unknown) error = %v, want ErrRequestNotFound", err)
	}
}

func TestTransitionStampsAnswer(t *testing.T) {
	repo := newFakeRequestRepo()
	queue := &fakeQueue{}
	svc := NewRequestService(repo, queue, pkg.NewLogger(pkg.LevelError))

	req, err := svc.Submit(context.Background(), validSubmitInput(), "", "")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Transition(context.Background(), req.ID, models.StatusAnswered, "Se adjunta la información solicitada.")
	if err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if updated.Status != models.StatusAnswered {
		t.Errorf("Status = %s, want answered", updated.Status)
	}
	if updated.AnsweredAt == nil {
		t.Error("AnsweredAt not stamped on terminal transition")
	}
	if len(queue.status) != 1 {
		t.Errorf("status notifications = %d, want 1", len(queue.status))
	}
}

func TestTransitionFromTerminalIsRejected(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := NewRequestService(repo, &fakeQueue{}, pkg.NewLogger(pkg.LevelError))

	req, err := svc.Submit(context.Background(), validSubmitInput(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Transition(context.Background(), req.ID, models.StatusRejected, "No procede."); err != nil {
		t.Fatal(err)
	}

	_, err = svc.Transition(context.Background(), req.ID, models.StatusPending, "")
	if !errors.Is(err, pkg.ErrInvalidTransition) {
		t.Errorf("Transition(from terminal) error = %v, want ErrInvalidTransition", err)
	}
}

func TestBulkTransitionReportsPerRequest(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := NewRequestService(repo, &fakeQueue{}, pkg.NewLogger(pkg.LevelError))
	ctx := context.Background()

	first, err := svc.Submit(ctx, validSubmitInput(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Submit(ctx, validSubmitInput(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	// Second one is already terminal; the bulk action must skip it and say so.
	if _, err := svc.Transition(ctx, second.ID, models.StatusAnswered, "Listo."); err != nil {
		t.Fatal(err)
	}

	results := svc.BulkTransition(ctx, []primitive.ObjectID{first.ID, second.ID}, models.StatusAnswered, "Respuesta masiva.")
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Error != "" {
		t.Errorf("first transition failed: %s", results[0].Error)
	}
	if results[1].Error == "" {
		t.Error("terminal request transitioned in bulk, want error")
	}
}

func TestStatisticsCountsOverdue(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := NewRequestService(repo, &fakeQueue{}, pkg.NewLogger(pkg.LevelError))
	ctx := context.Background()

	fresh, err := svc.Submit(ctx, validSubmitInput(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	stale, err := svc.Submit(ctx, validSubmitInput(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	answered, err := svc.Submit(ctx, validSubmitInput(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Transition(ctx, answered.ID, models.StatusAnswered, "Listo."); err != nil {
		t.Fatal(err)
	}

	// Backdate one pending request past the legal window.
	repo.mu.Lock()
	repo.requests[stale.ID].SubmittedAt = time.Now().AddDate(0, 0, -15)
	repo.mu.Unlock()
	_ = fresh

	stats, err := svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics() error: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.Pending != 2 {
		t.Errorf("Pending = %d, want 2", stats.Pending)
	}
	if stats.Answered != 1 {
		t.Errorf("Answered = %d, want 1", stats.Answered)
	}
	if stats.Overdue != 1 {
		t.Errorf("Overdue = %d, want 1", stats.Overdue)
	}
}
