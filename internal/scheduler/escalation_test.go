package scheduler

import (
	"testing"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/model"
)

var testThresholds = Thresholds{
	RemindInterval:  24 * time.Hour,
	SupporterRemind: 24 * time.Hour,
	AutoClose:       96 * time.Hour,
	RatingInterval:  24 * time.Hour,
	RatingMax:       3,
}

func ts(t time.Time) *time.Time { return &t }

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time { return ts(now.Add(-d)) }

	cases := []struct {
		name   string
		ticket model.Ticket
		want   Action
	}{
		{
			name:   "closed ticket does nothing",
			ticket: model.Ticket{IsOpen: false, IsWaiting: true, WaitingSince: ago(200 * time.Hour)},
			want:   ActionNone,
		},
		{
			name:   "waiting under first interval",
			ticket: model.Ticket{IsOpen: true, IsWaiting: true, WaitingSince: ago(23 * time.Hour)},
			want:   ActionNone,
		},
		{
			name:   "waiting past first interval",
			ticket: model.Ticket{IsOpen: true, IsWaiting: true, WaitingSince: ago(25 * time.Hour)},
			want:   ActionRemindOwner,
		},
		{
			name:   "waiting exactly at the interval",
			ticket: model.Ticket{IsOpen: true, IsWaiting: true, WaitingSince: ago(24 * time.Hour)},
			want:   ActionRemindOwner,
		},
		{
			name: "reminder already sent, next one not due",
			ticket: model.Ticket{
				IsOpen: true, IsWaiting: true,
				WaitingSince: ago(25 * time.Hour), RemindersSent: 1,
			},
			want: ActionNone,
		},
		{
			name: "second reminder due",
			ticket: model.Ticket{
				IsOpen: true, IsWaiting: true,
				WaitingSince: ago(49 * time.Hour), RemindersSent: 1,
			},
			want: ActionRemindOwner,
		},
		{
			name:   "auto close beats the reminder",
			ticket: model.Ticket{IsOpen: true, IsWaiting: true, WaitingSince: ago(97 * time.Hour)},
			want:   ActionAutoClose,
		},
		{
			name:   "auto close exactly at the threshold",
			ticket: model.Ticket{IsOpen: true, IsWaiting: true, WaitingSince: ago(96 * time.Hour)},
			want:   ActionAutoClose,
		},
		{
			name: "idle claimed ticket nudges the supporter",
			ticket: model.Ticket{
				IsOpen: true, SupporterID: "sup-1",
				LastMessageAt: ago(25 * time.Hour),
			},
			want: ActionRemindSupporter,
		},
		{
			name: "supporter already nudged, next not due",
			ticket: model.Ticket{
				IsOpen: true, SupporterID: "sup-1",
				LastMessageAt: ago(25 * time.Hour), SupporterRemindersSent: 1,
			},
			want: ActionNone,
		},
		{
			name:   "unclaimed idle ticket does nothing",
			ticket: model.Ticket{IsOpen: true, LastMessageAt: ago(200 * time.Hour)},
			want:   ActionNone,
		},
		{
			name: "pending rating reminder due",
			ticket: model.Ticket{
				IsOpen: true, PendingRatingSince: ago(25 * time.Hour),
			},
			want: ActionRemindRating,
		},
		{
			name: "pending rating not due yet",
			ticket: model.Ticket{
				IsOpen: true, PendingRatingSince: ago(23 * time.Hour),
			},
			want: ActionNone,
		},
		{
			name: "third rating reminder needs three intervals",
			ticket: model.Ticket{
				IsOpen: true, PendingRatingSince: ago(71 * time.Hour), RatingRemindersSent: 2,
			},
			want: ActionNone,
		},
		{
			name: "third rating reminder due",
			ticket: model.Ticket{
				IsOpen: true, PendingRatingSince: ago(72 * time.Hour), RatingRemindersSent: 2,
			},
			want: ActionRemindRating,
		},
		{
			name: "rating reminders exhausted closes regardless of time",
			ticket: model.Ticket{
				IsOpen: true, PendingRatingSince: ago(time.Minute), RatingRemindersSent: 3,
			},
			want: ActionAutoCloseRating,
		},
		{
			name: "pending branch wins over stale waiting fields",
			ticket: model.Ticket{
				IsOpen: true, PendingRatingSince: ago(25 * time.Hour),
				IsWaiting: true, WaitingSince: ago(200 * time.Hour),
			},
			want: ActionRemindRating,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(&tc.ticket, now, testThresholds); got != tc.want {
				t.Fatalf("Evaluate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNextTopOfHour(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 17, 3, 0, time.UTC)
	want := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	if got := NextTopOfHour(now); !got.Equal(want) {
		t.Fatalf("NextTopOfHour = %v, want %v", got, want)
	}
	// Exactly on the boundary still moves forward a full hour.
	if got := NextTopOfHour(want); !got.Equal(want.Add(time.Hour)) {
		t.Fatalf("NextTopOfHour on boundary = %v", got)
	}
}

func TestNextDailyAt(t *testing.T) {
	morning := time.Date(2025, 6, 1, 0, 10, 0, 0, time.UTC)
	if got := NextDailyAt(morning, 0, 30); !got.Equal(time.Date(2025, 6, 1, 0, 30, 0, 0, time.UTC)) {
		t.Fatalf("before boundary: %v", got)
	}
	later := time.Date(2025, 6, 1, 0, 45, 0, 0, time.UTC)
	if got := NextDailyAt(later, 0, 30); !got.Equal(time.Date(2025, 6, 2, 0, 30, 0, 0, time.UTC)) {
		t.Fatalf("after boundary: %v", got)
	}
}

func TestNextWeeklyAt(t *testing.T) {
	// 2025-06-01 is a Sunday.
	sunday := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	want := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if got := NextWeeklyAt(sunday, time.Monday, 9, 0); !got.Equal(want) {
		t.Fatalf("NextWeeklyAt = %v, want %v", got, want)
	}
	// Monday after 09:00 jumps a full week.
	monday := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	if got := NextWeeklyAt(monday, time.Monday, 9, 0); !got.Equal(want.AddDate(0, 0, 7)) {
		t.Fatalf("NextWeeklyAt past boundary = %v", got)
	}
}

func TestNextMonthlyAt(t *testing.T) {
	mid := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	want := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	if got := NextMonthlyAt(mid, 9, 0); !got.Equal(want) {
		t.Fatalf("NextMonthlyAt = %v, want %v", got, want)
	}
	first := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	if got := NextMonthlyAt(first, 9, 0); !got.Equal(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("NextMonthlyAt same day = %v", got)
	}
}
