package models

import (
	"regexp"
	"testing"
	"time"
)

var trackingCodePattern = regexp.MustCompile(`^SI-\d{8}-[0-9A-Z]{6}$`)

func TestNewTrackingCodeFormat(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	code := NewTrackingCode(now)
	if !trackingCodePattern.MatchString(code) {
		t.Errorf("NewTrackingCode() = %q, does not match SI-YYYYMMDD-XXXXXX", code)
	}
	if code[3:11] != "20240315" {
		t.Errorf("NewTrackingCode() date part = %q, want 20240315", code[3:11])
	}
}

func TestNewTrackingCodeUniqueness(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		code := NewTrackingCode(now)
		if seen[code] {
			t.Fatalf("duplicate tracking code after %d generations: %s", i, code)
		}
		seen[code] = true
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name   string
		from   RequestStatus
		to     RequestStatus
		expect bool
	}{
		{"pending to in_progress", StatusPending, StatusInProgress, true},
		{"pending straight to answered", StatusPending, StatusAnswered, true},
		{"pending straight to rejected", StatusPending, StatusRejected, true},
		{"in_progress to answered", StatusInProgress, StatusAnswered, true},
		{"answered is final", StatusAnswered, StatusPending, false},
		{"rejected is final", StatusRejected, StatusInProgress, false},
		{"no self transition", StatusPending, StatusPending, false},
		{"unknown target", StatusPending, RequestStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &InfoRequest{Status: tt.from}
			if got := req.CanTransition(tt.to); got != tt.expect {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.expect)
			}
		})
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		status    RequestStatus
		submitted time.Time
		expect    bool
	}{
		{"pending within window", StatusPending, now.AddDate(0, 0, -5), false},
		{"pending at the boundary", StatusPending, now.AddDate(0, 0, -10), false},
		{"pending past the window", StatusPending, now.AddDate(0, 0, -11), true},
		{"in_progress never overdue", StatusInProgress, now.AddDate(0, 0, -30), false},
		{"answered never overdue", StatusAnswered, now.AddDate(0, 0, -30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &InfoRequest{Status: tt.status, SubmittedAt: tt.submitted}
			if got := req.IsOverdue(now); got != tt.expect {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestDaysSinceSubmission(t *testing.T) {
	now := time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC)
	req := &InfoRequest{SubmittedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	if got := req.DaysSinceSubmission(now); got != 10 {
		t.Errorf("DaysSinceSubmission() = %d, want 10", got)
	}
}
