package store

import (
	"context"
	"errors"

	"github.com/brentspine/discord-ticketbot/internal/errs"
	"github.com/brentspine/discord-ticketbot/internal/model"
	"gorm.io/gorm"
)

// Bin registry: one row per live bin container, ordered by position inside
// its pool. Primary bins come from config and are registered on startup if
// missing.

func (s *Store) CreateBin(ctx context.Context, b *model.Bin) error {
	return s.db.WithContext(ctx).Create(b).Error
}

func (s *Store) DeleteBin(ctx context.Context, containerID string) error {
	res := s.db.WithContext(ctx).Where("container_id = ?", containerID).Delete(&model.Bin{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrBinNotFound
	}
	return nil
}

func (s *Store) ListBins(ctx context.Context) ([]model.Bin, error) {
	var items []model.Bin
	err := s.db.WithContext(ctx).
		Order("pool ASC, position ASC").
		Find(&items).Error
	return items, err
}

// EnsureBin registers a bin row if none exists for the container yet.
func (s *Store) EnsureBin(ctx context.Context, b *model.Bin) error {
	var existing model.Bin
	err := s.db.WithContext(ctx).Where("container_id = ?", b.ContainerID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(b).Error
}
