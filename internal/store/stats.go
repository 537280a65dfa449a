package store

import (
	"context"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/model"
)

// Aggregations backing the stats command and the digest reports. All queries
// read committed rows only; open in-memory mutations are not visible here.

type SupporterCount struct {
	SupporterID string `json:"supporter_id"`
	Count       int64  `json:"count"`
}

type SupporterStars struct {
	SupporterID string  `json:"supporter_id"`
	Ratings     int64   `json:"ratings"`
	AvgStars    float64 `json:"avg_stars"`
}

func (s *Store) CountTickets(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Ticket{}).Count(&n).Error
	return n, err
}

func (s *Store) CountOpenTickets(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("is_open = ?", true).Count(&n).Error
	return n, err
}

func (s *Store) CountWaitingTickets(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("is_open = ? AND is_waiting = ?", true, true).Count(&n).Error
	return n, err
}

func (s *Store) CountClosedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("is_open = ? AND closed_at >= ?", false, since).Count(&n).Error
	return n, err
}

func (s *Store) TopClosers(ctx context.Context, limit int) ([]SupporterCount, error) {
	var out []SupporterCount
	err := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Select("closer_id AS supporter_id, COUNT(*) AS count").
		Where("is_open = ? AND closer_id <> ''", false).
		Group("closer_id").
		Order("count DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (s *Store) ClosedPerSupporterSince(ctx context.Context, since time.Time) ([]SupporterCount, error) {
	var out []SupporterCount
	err := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Select("supporter_id, COUNT(*) AS count").
		Where("is_open = ? AND supporter_id <> '' AND closed_at >= ?", false, since).
		Group("supporter_id").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

func (s *Store) StarsPerSupporterSince(ctx context.Context, since time.Time) ([]SupporterStars, error) {
	var out []SupporterStars
	err := s.db.WithContext(ctx).Model(&model.Rating{}).
		Select("supporter_id, COUNT(*) AS ratings, AVG(stars) AS avg_stars").
		Where("created_at >= ?", since).
		Group("supporter_id").
		Order("avg_stars DESC").
		Scan(&out).Error
	return out, err
}

// NextDueForClosing lists waiting tickets ordered by how long they have been
// waiting, oldest first.
func (s *Store) NextDueForClosing(ctx context.Context, limit int) ([]model.Ticket, error) {
	var items []model.Ticket
	err := s.db.WithContext(ctx).
		Where("is_open = ? AND is_waiting = ? AND waiting_since IS NOT NULL", true, true).
		Order("waiting_since ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
