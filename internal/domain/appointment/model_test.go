package appointment

import (
	"testing"
	"time"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusScheduled, StatusInProgress, true},
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusScheduled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCancelled, StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if StatusScheduled.Terminal() || StatusInProgress.Terminal() {
		t.Error("active statuses must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusCancelled.Terminal() {
		t.Error("completed and cancelled must be terminal")
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	booked := &Appointment{StartTime: at(10, 0), DurationMinutes: 60} // 10:00-11:00

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical", at(10, 0), at(11, 0), true},
		{"contained", at(10, 15), at(10, 45), true},
		{"straddles start", at(9, 30), at(10, 30), true},
		{"straddles end", at(10, 30), at(11, 30), true},
		{"back to back after", at(11, 0), at(11, 30), false},
		{"back to back before", at(9, 0), at(10, 0), false},
		{"disjoint", at(13, 0), at(14, 0), false},
	}
	for _, tc := range cases {
		if got := booked.Overlaps(tc.start, tc.end); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
