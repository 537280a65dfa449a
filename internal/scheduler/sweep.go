package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/config"
	"github.com/brentspine/discord-ticketbot/internal/gateway"
	"github.com/brentspine/discord-ticketbot/internal/model"
	"github.com/brentspine/discord-ticketbot/internal/registry"
)

// SweepStore is the store surface of the sweep.
type SweepStore interface {
	OpenTicketIDs(ctx context.Context) ([]uint64, error)
	MarkStaleClosed(ctx context.Context, id uint64) error
}

// Closer closes tickets on the sweep's behalf; the lifecycle controller
// implements it.
type Closer interface {
	Close(ctx context.Context, ticketID uint64, closerID, message string, accident bool) error
}

// Enqueuer schedules async persistence of a mutated ticket.
type Enqueuer interface {
	Enqueue(t *model.Ticket)
}

// Sweeper walks all open tickets once per run, sequentially, with a fixed
// pause between tickets to bound the outbound call rate. A failure on one
// ticket never stops the sweep.
type Sweeper struct {
	cfg   *config.Config
	store SweepStore
	reg   *registry.Registry
	gw    gateway.Notifier
	ctrl  Closer
	saver Enqueuer
	th    Thresholds
	now   func() time.Time
	pause func()
}

func NewSweeper(cfg *config.Config, store SweepStore, reg *registry.Registry,
	gw gateway.Notifier, ctrl Closer, saver Enqueuer) *Sweeper {
	pause := time.Duration(cfg.SweepPauseSeconds) * time.Second
	return &Sweeper{
		cfg:   cfg,
		store: store,
		reg:   reg,
		gw:    gw,
		ctrl:  ctrl,
		saver: saver,
		th:    ThresholdsFromConfig(cfg),
		now:   func() time.Time { return time.Now().UTC() },
		pause: func() { time.Sleep(pause) },
	}
}

// RunOnce performs a full sweep and posts an aggregated summary to the log
// channel, but only when at least one action was taken.
func (s *Sweeper) RunOnce(ctx context.Context) Summary {
	var sum Summary
	ids, err := s.store.OpenTicketIDs(ctx)
	if err != nil {
		log.Printf("sweep: list open tickets: %v", err)
		sum.Errors++
		return sum
	}
	for i, id := range ids {
		if i > 0 {
			s.pause()
		}
		if ctx.Err() != nil {
			break
		}
		s.sweepTicket(ctx, id, &sum)
	}
	if !sum.empty() {
		log.Printf("sweep: %s", sum)
		if s.cfg.LogChannelID != "" {
			if _, err := s.gw.SendToContainer(ctx, s.cfg.LogChannelID, "Hourly sweep: "+sum.String()); err != nil {
				log.Printf("sweep: post summary: %v", err)
			}
		}
	}
	return sum
}

func (s *Sweeper) sweepTicket(ctx context.Context, id uint64, sum *Summary) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sweep: ticket %d panicked: %v", id, r)
			sum.Errors++
		}
	}()

	t, err := s.reg.Get(ctx, id)
	if err != nil {
		logSweepError(id, "load", err)
		sum.Errors++
		return
	}
	if !s.gw.ContainerExists(ctx, t.ChannelID) {
		if err := s.store.MarkStaleClosed(ctx, id); err != nil {
			logSweepError(id, "mark stale", err)
			sum.Errors++
			return
		}
		s.reg.Remove(t)
		sum.Healed++
		log.Printf("sweep: ticket %d healed, channel %s is gone", id, t.ChannelID)
		return
	}

	switch Evaluate(t, s.now(), s.th) {
	case ActionRemindOwner:
		msg := fmt.Sprintf("Your ticket #%d is waiting for your reply.", t.ID)
		if err := s.gw.SendDirectMessage(ctx, t.OwnerID, msg); err != nil {
			if _, err := s.gw.SendToContainer(ctx, t.ChannelID, s.gw.Mention(t.OwnerID)+" "+msg); err != nil {
				logSweepError(id, "remind owner", err)
				sum.Errors++
				return
			}
		}
		t.RemindersSent++
		s.saver.Enqueue(t)
		sum.Reminded++

	case ActionRemindSupporter:
		target := t.ThreadID
		if target == "" {
			target = t.ChannelID
		}
		msg := fmt.Sprintf("%s ticket #%d has been idle since the owner's last message. Please have a look.", s.gw.Mention(t.SupporterID), t.ID)
		if _, err := s.gw.SendToContainer(ctx, target, msg); err != nil {
			logSweepError(id, "remind supporter", err)
			sum.Errors++
			return
		}
		t.SupporterRemindersSent++
		s.saver.Enqueue(t)
		sum.SupporterReminded++

	case ActionAutoClose:
		if err := s.ctrl.Close(ctx, id, "system", "Automatic close due to inactivity", false); err != nil {
			logSweepError(id, "auto close", err)
			sum.Errors++
			return
		}
		sum.AutoClosed++

	case ActionRemindRating:
		msg := fmt.Sprintf("Reminder: your ticket #%d is waiting for a rating. You can also skip it.", t.ID)
		if err := s.gw.SendDirectMessage(ctx, t.OwnerID, msg); err != nil {
			if _, err := s.gw.SendToContainer(ctx, t.ChannelID, s.gw.Mention(t.OwnerID)+" "+msg); err != nil {
				logSweepError(id, "remind rating", err)
				sum.Errors++
				return
			}
		}
		t.RatingRemindersSent++
		s.saver.Enqueue(t)
		sum.RatingReminded++

	case ActionAutoCloseRating:
		closer := t.PendingCloserID
		if closer == "" {
			closer = "system"
		}
		if err := s.ctrl.Close(ctx, id, closer, "Closed without rating (no response)", false); err != nil {
			logSweepError(id, "close unrated", err)
			sum.Errors++
			return
		}
		sum.RatingClosed++
	}
}

// Start runs the sweep every hour, aligned to the top of the hour. Blocks
// until the context ends.
func (s *Sweeper) Start(ctx context.Context) {
	RunAligned(ctx, func(now time.Time) time.Time { return NextTopOfHour(now) }, func() {
		s.RunOnce(ctx)
	})
}
