// Package scheduler runs the periodic maintenance of the ticket system: the
// hourly escalation sweep and the daily bin consolidation. Sweeps are
// sequential and never overlap; each run starts aligned to a wall-clock
// boundary.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/config"
	"github.com/brentspine/discord-ticketbot/internal/model"
)

// Action is the single escalation step a sweep takes on one ticket.
type Action int

const (
	ActionNone Action = iota
	ActionRemindOwner
	ActionRemindSupporter
	ActionAutoClose
	ActionRemindRating
	ActionAutoCloseRating
)

// Thresholds are the escalation knobs, all in hours except the reminder cap.
type Thresholds struct {
	RemindInterval  time.Duration
	SupporterRemind time.Duration
	AutoClose       time.Duration
	RatingInterval  time.Duration
	RatingMax       int
}

func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	return Thresholds{
		RemindInterval:  time.Duration(cfg.RemindIntervalHours) * time.Hour,
		SupporterRemind: time.Duration(cfg.SupporterRemindHours) * time.Hour,
		AutoClose:       time.Duration(cfg.AutoCloseHours) * time.Hour,
		RatingInterval:  time.Duration(cfg.RatingReminderIntervalHours) * time.Hour,
		RatingMax:       cfg.RatingMaxReminders,
	}
}

// Evaluate decides the escalation action for one ticket at the given
// instant. The waiting branch and the rating branch are mutually exclusive
// because a pending ticket is never waiting; inside a branch the close
// action wins over the reminder.
func Evaluate(t *model.Ticket, now time.Time, th Thresholds) Action {
	if !t.IsOpen {
		return ActionNone
	}
	if t.IsPendingRating() {
		if t.RatingRemindersSent >= th.RatingMax {
			return ActionAutoCloseRating
		}
		due := t.PendingRatingSince.Add(th.RatingInterval * time.Duration(t.RatingRemindersSent+1))
		if !due.After(now) {
			return ActionRemindRating
		}
		return ActionNone
	}
	if t.IsWaiting && t.WaitingSince != nil {
		if !t.WaitingSince.Add(th.AutoClose).After(now) {
			return ActionAutoClose
		}
		due := t.WaitingSince.Add(th.RemindInterval * time.Duration(t.RemindersSent+1))
		if !due.After(now) {
			return ActionRemindOwner
		}
		return ActionNone
	}
	if t.SupporterID != "" && t.LastMessageAt != nil {
		due := t.LastMessageAt.Add(th.SupporterRemind * time.Duration(t.SupporterRemindersSent+1))
		if !due.After(now) {
			return ActionRemindSupporter
		}
	}
	return ActionNone
}

// Summary counts what one sweep did. Zero value means nothing happened and
// no summary is posted.
type Summary struct {
	Reminded          int
	SupporterReminded int
	AutoClosed        int
	RatingReminded    int
	RatingClosed      int
	Healed            int
	Errors            int
}

func (s Summary) empty() bool {
	return s == Summary{}
}

func (s Summary) String() string {
	return fmt.Sprintf("reminded %d owner(s), %d supporter(s); auto-closed %d; rating: reminded %d, closed %d; healed %d stale; %d error(s)",
		s.Reminded, s.SupporterReminded, s.AutoClosed, s.RatingReminded, s.RatingClosed, s.Healed, s.Errors)
}

func logSweepError(id uint64, what string, err error) {
	log.Printf("sweep: ticket %d %s: %v", id, what, err)
}
