package models

import (
	"crypto/rand"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus is the lifecycle state of an information request.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in_progress"
	StatusAnswered   RequestStatus = "answered"
	StatusRejected   RequestStatus = "rejected"
)

// DeliveryMethod is how the requester wants the information delivered.
type DeliveryMethod string

const (
	DeliveryEmail   DeliveryMethod = "email"
	DeliveryPrinted DeliveryMethod = "printed"
	DeliveryStorage DeliveryMethod = "storage-device"
)

// Gender options for the optional demographic field.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderUndisclosed Gender = "prefer-not-to-say"
)

// ResponseDeadlineDays is the legally mandated response window for public
// information requests (Decreto 57-2008).
const ResponseDeadlineDays = 10

// InfoRequest is a citizen's public information request with its tracking
// lifecycle. It is a standalone aggregate: requests are portal-wide, not
// scoped to a disclosure domain.
type InfoRequest struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName       string             `bson:"full_name" json:"fullName"`
	Residence      string             `bson:"residence" json:"residence"`
	Phone          string             `bson:"phone" json:"phone"`
	Email          string             `bson:"email" json:"email"`
	Gender         Gender             `bson:"gender,omitempty" json:"gender,omitempty"`
	Body           string             `bson:"body" json:"body"`
	DeliveryMethod DeliveryMethod     `bson:"delivery_method" json:"deliveryMethod"`
	Status         RequestStatus      `bson:"status" json:"status"`
	TrackingCode   string             `bson:"tracking_code" json:"trackingCode"`
	SubmittedAt    time.Time          `bson:"submitted_at" json:"submittedAt"`
	AnsweredAt     *time.Time         `bson:"answered_at,omitempty" json:"answeredAt,omitempty"`
	AnswerText     string             `bson:"answer_text,omitempty" json:"answerText,omitempty"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"-"`
	ClientIP       string             `bson:"client_ip,omitempty" json:"-"`
	UserAgent      string             `bson:"user_agent,omitempty" json:"-"`
}

// trackingAlphabet matches the source system's code charset.
const trackingAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewTrackingCode generates a tracking code of the form SI-YYYYMMDD-XXXXXX.
// Codes are random, not sequential; uniqueness is enforced by the storage
// layer and the caller retries on collision.
func NewTrackingCode(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform source is broken; fall
		// back to a time-derived suffix rather than panicking mid-request.
		nanos := now.UnixNano()
		for i := range buf {
			buf[i] = trackingAlphabet[nanos%int64(len(trackingAlphabet))]
			nanos /= int64(len(trackingAlphabet))
		}
	} else {
		for i, b := range buf {
			buf[i] = trackingAlphabet[int(b)%len(trackingAlphabet)]
		}
	}
	return fmt.Sprintf("SI-%s-%s", now.Format("20060102"), string(buf))
}

// IsTerminal reports whether the status accepts no further transitions.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusAnswered || s == StatusRejected
}

// ValidStatus reports whether s names a known lifecycle state.
func ValidStatus(s RequestStatus) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusAnswered, StatusRejected:
		return true
	}
	return false
}

// CanTransition reports whether a request may move from its current status to
// target. Pending may jump straight to a terminal state (bulk staff actions);
// answered and rejected are final.
func (r *InfoRequest) CanTransition(target RequestStatus) bool {
	if !ValidStatus(target) || r.Status.IsTerminal() {
		return false
	}
	return target != r.Status
}

// DaysSinceSubmission counts whole days elapsed since the request came in.
func (r *InfoRequest) DaysSinceSubmission(now time.Time) int {
	return int(now.Sub(r.SubmittedAt).Hours() / 24)
}

// IsOverdue reports whether a still-pending request has exceeded the legal
// response window. Derived on read, never persisted.
func (r *InfoRequest) IsOverdue(now time.Time) bool {
	return r.Status == StatusPending && r.DaysSinceSubmission(now) > ResponseDeadlineDays
}

// RequestStatistics is a point-in-time snapshot of request counts.
type RequestStatistics struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Answered   int64 `json:"answered"`
	Rejected   int64 `json:"rejected"`
	Overdue    int64 `json:"overdue"`
}
