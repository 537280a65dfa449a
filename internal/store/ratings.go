package store

import (
	"context"

	"github.com/brentspine/discord-ticketbot/internal/model"
)

func (s *Store) SaveRating(ctx context.Context, r *model.Rating) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *Store) RatingsOfSupporter(ctx context.Context, supporterID string) ([]model.Rating, error) {
	var items []model.Rating
	err := s.db.WithContext(ctx).
		Where("supporter_id = ?", supporterID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}
