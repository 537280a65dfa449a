// Package digest posts periodic support statistics to the stats channel:
// a daily report at 09:00, a weekly one on Monday 09:00 and a monthly one
// on the first of the month. Periods with no activity post nothing.
package digest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/config"
	"github.com/brentspine/discord-ticketbot/internal/model"
	"github.com/brentspine/discord-ticketbot/internal/scheduler"
	"github.com/brentspine/discord-ticketbot/internal/store"
)

// StatsStore is the aggregation surface the digest reads.
type StatsStore interface {
	CountOpenTickets(ctx context.Context) (int64, error)
	CountWaitingTickets(ctx context.Context) (int64, error)
	CountClosedSince(ctx context.Context, since time.Time) (int64, error)
	ClosedPerSupporterSince(ctx context.Context, since time.Time) ([]store.SupporterCount, error)
	StarsPerSupporterSince(ctx context.Context, since time.Time) ([]store.SupporterStars, error)
	NextDueForClosing(ctx context.Context, limit int) ([]model.Ticket, error)
	HideStats(ctx context.Context, supporterID string) bool
}

// Sender is the outbound surface: posting to the stats channel and
// rendering mentions.
type Sender interface {
	SendToContainer(ctx context.Context, containerID, content string) (string, error)
	Mention(userID string) string
}

type Publisher struct {
	cfg   *config.Config
	store StatsStore
	gw    Sender
	now   func() time.Time
}

func NewPublisher(cfg *config.Config, st StatsStore, gw Sender) *Publisher {
	return &Publisher{
		cfg:   cfg,
		store: st,
		gw:    gw,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// BuildReport renders the digest for the period starting at since. ok is
// false when the period saw no closed tickets and no ratings.
func (p *Publisher) BuildReport(ctx context.Context, title string, since time.Time) (string, bool, error) {
	closed, err := p.store.CountClosedSince(ctx, since)
	if err != nil {
		return "", false, fmt.Errorf("count closed: %w", err)
	}
	perSupporter, err := p.store.ClosedPerSupporterSince(ctx, since)
	if err != nil {
		return "", false, fmt.Errorf("closed per supporter: %w", err)
	}
	stars, err := p.store.StarsPerSupporterSince(ctx, since)
	if err != nil {
		return "", false, fmt.Errorf("stars per supporter: %w", err)
	}
	if closed == 0 && len(stars) == 0 {
		return "", false, nil
	}

	open, err := p.store.CountOpenTickets(ctx)
	if err != nil {
		return "", false, fmt.Errorf("count open: %w", err)
	}
	waiting, err := p.store.CountWaitingTickets(ctx)
	if err != nil {
		return "", false, fmt.Errorf("count waiting: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", title)
	if p.cfg.ServerName != "" {
		fmt.Fprintf(&b, "Server: %s\n", p.cfg.ServerName)
	}
	fmt.Fprintf(&b, "Closed tickets: %d | currently open: %d (%d waiting)\n", closed, open, waiting)
	if len(perSupporter) > 0 {
		b.WriteString("Closed per supporter:\n")
		for _, row := range perSupporter {
			fmt.Fprintf(&b, "  %s: %d\n", p.displayName(ctx, row.SupporterID), row.Count)
		}
	}
	if len(stars) > 0 {
		b.WriteString("Ratings:\n")
		for _, row := range stars {
			fmt.Fprintf(&b, "  %s: %.2f stars over %d rating(s)\n",
				p.displayName(ctx, row.SupporterID), row.AvgStars, row.Ratings)
		}
	}
	due, err := p.store.NextDueForClosing(ctx, 5)
	if err != nil {
		return "", false, fmt.Errorf("next due: %w", err)
	}
	if len(due) > 0 {
		b.WriteString("Longest waiting:\n")
		for _, t := range due {
			if t.WaitingSince == nil {
				continue
			}
			fmt.Fprintf(&b, "  #%d (waiting since %s)\n", t.ID, t.WaitingSince.Format("2006-01-02 15:04"))
		}
	}
	return b.String(), true, nil
}

// displayName respects the supporter's privacy setting.
func (p *Publisher) displayName(ctx context.Context, supporterID string) string {
	if p.store.HideStats(ctx, supporterID) {
		return "anonymous"
	}
	return p.gw.Mention(supporterID)
}

func (p *Publisher) publish(ctx context.Context, title string, since time.Time) {
	if p.cfg.StatsChannelID == "" {
		return
	}
	report, ok, err := p.BuildReport(ctx, title, since)
	if err != nil {
		log.Printf("digest: build %q: %v", title, err)
		return
	}
	if !ok {
		log.Printf("digest: %q skipped, no activity", title)
		return
	}
	if _, err := p.gw.SendToContainer(ctx, p.cfg.StatsChannelID, report); err != nil {
		log.Printf("digest: post %q: %v", title, err)
	}
}

func (p *Publisher) RunDaily(ctx context.Context) {
	p.publish(ctx, "Daily support digest", p.now().Add(-24*time.Hour))
}

func (p *Publisher) RunWeekly(ctx context.Context) {
	p.publish(ctx, "Weekly support digest", p.now().AddDate(0, 0, -7))
}

func (p *Publisher) RunMonthly(ctx context.Context) {
	p.publish(ctx, "Monthly support digest", p.now().AddDate(0, -1, 0))
}

// Start blocks until the context ends, firing the three digests at their
// wall-clock boundaries.
func (p *Publisher) Start(ctx context.Context) {
	go scheduler.RunAligned(ctx, func(now time.Time) time.Time { return scheduler.NextDailyAt(now, 9, 0) }, func() { p.RunDaily(ctx) })
	go scheduler.RunAligned(ctx, func(now time.Time) time.Time { return scheduler.NextWeeklyAt(now, time.Monday, 9, 0) }, func() { p.RunWeekly(ctx) })
	scheduler.RunAligned(ctx, func(now time.Time) time.Time { return scheduler.NextMonthlyAt(now, 9, 0) }, func() { p.RunMonthly(ctx) })
}
