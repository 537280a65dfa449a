package store

import (
	"context"
	"errors"

	"github.com/brentspine/discord-ticketbot/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) GetSupporterSettings(ctx context.Context, supporterID string) (*model.SupporterSettings, error) {
	var set model.SupporterSettings
	err := s.db.WithContext(ctx).Where("supporter_id = ?", supporterID).First(&set).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &set, nil
}

// HideStats reports whether the supporter opted out of public stats.
func (s *Store) HideStats(ctx context.Context, supporterID string) bool {
	set, err := s.GetSupporterSettings(ctx, supporterID)
	return err == nil && set != nil && set.HideStats
}

func (s *Store) SetHideStats(ctx context.Context, supporterID string, hide bool) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "supporter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"hide_stats", "updated_at"}),
	}).Create(&model.SupporterSettings{
		SupporterID: supporterID,
		HideStats:   hide,
	}).Error
}
