package digest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/config"
	"github.com/brentspine/discord-ticketbot/internal/model"
	"github.com/brentspine/discord-ticketbot/internal/store"
)

type fakeStats struct {
	open    int64
	waiting int64
	closed  int64
	per     []store.SupporterCount
	stars   []store.SupporterStars
	due     []model.Ticket
	hidden  map[string]bool
}

func (f *fakeStats) CountOpenTickets(_ context.Context) (int64, error)    { return f.open, nil }
func (f *fakeStats) CountWaitingTickets(_ context.Context) (int64, error) { return f.waiting, nil }
func (f *fakeStats) CountClosedSince(_ context.Context, _ time.Time) (int64, error) {
	return f.closed, nil
}
func (f *fakeStats) ClosedPerSupporterSince(_ context.Context, _ time.Time) ([]store.SupporterCount, error) {
	return f.per, nil
}
func (f *fakeStats) StarsPerSupporterSince(_ context.Context, _ time.Time) ([]store.SupporterStars, error) {
	return f.stars, nil
}
func (f *fakeStats) NextDueForClosing(_ context.Context, _ int) ([]model.Ticket, error) {
	return f.due, nil
}
func (f *fakeStats) HideStats(_ context.Context, supporterID string) bool {
	return f.hidden[supporterID]
}

type fakeSender struct {
	posts []string
}

func (s *fakeSender) SendToContainer(_ context.Context, containerID, content string) (string, error) {
	s.posts = append(s.posts, containerID+"\n"+content)
	return "msg-1", nil
}

func (s *fakeSender) Mention(userID string) string { return "@" + userID }

func ts(t time.Time) *time.Time { return &t }

func TestBuildReport(t *testing.T) {
	stats := &fakeStats{
		open:    5,
		waiting: 2,
		closed:  7,
		per: []store.SupporterCount{
			{SupporterID: "sup-1", Count: 4},
			{SupporterID: "sup-2", Count: 3},
		},
		stars: []store.SupporterStars{
			{SupporterID: "sup-1", Ratings: 3, AvgStars: 4.67},
		},
		due: []model.Ticket{
			{ID: 11, WaitingSince: ts(time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC))},
		},
		hidden: map[string]bool{"sup-2": true},
	}
	p := NewPublisher(&config.Config{ServerName: "Example"}, stats, &fakeSender{})

	report, ok, err := p.BuildReport(context.Background(), "Daily support digest", time.Now())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !ok {
		t.Fatalf("report unexpectedly empty")
	}
	for _, want := range []string{
		"Daily support digest",
		"Closed tickets: 7",
		"currently open: 5 (2 waiting)",
		"@sup-1: 4",
		"4.67 stars over 3 rating(s)",
		"#11 (waiting since 2025-05-30 08:00)",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
	// sup-2 opted out of public stats.
	if strings.Contains(report, "@sup-2") {
		t.Fatalf("hidden supporter mentioned:\n%s", report)
	}
	if !strings.Contains(report, "anonymous: 3") {
		t.Fatalf("hidden supporter not anonymized:\n%s", report)
	}
}

func TestEmptyPeriodPostsNothing(t *testing.T) {
	stats := &fakeStats{}
	sender := &fakeSender{}
	cfg := &config.Config{StatsChannelID: "stats-chan"}
	p := NewPublisher(cfg, stats, sender)

	p.RunDaily(context.Background())
	if len(sender.posts) != 0 {
		t.Fatalf("empty period posted: %v", sender.posts)
	}
}

func TestRunDailyPostsToStatsChannel(t *testing.T) {
	stats := &fakeStats{closed: 1}
	sender := &fakeSender{}
	cfg := &config.Config{StatsChannelID: "stats-chan"}
	p := NewPublisher(cfg, stats, sender)

	p.RunDaily(context.Background())
	if len(sender.posts) != 1 || !strings.HasPrefix(sender.posts[0], "stats-chan\n") {
		t.Fatalf("posts = %v", sender.posts)
	}
}
