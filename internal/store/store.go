// Package store is the durable side of the ticket system: ticket, rating,
// bin-registry and supporter-settings rows in Postgres. It is the source of
// truth across restarts; the in-memory registry is rebuilt from it lazily.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/errs"
	"github.com/brentspine/discord-ticketbot/internal/model"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SaveTicket inserts the ticket when it has no id yet and updates it
// otherwise. The first persist assigns the ticket id.
func (s *Store) SaveTicket(ctx context.Context, t *model.Ticket) error {
	return s.db.WithContext(ctx).Save(t).Error
}

func (s *Store) GetTicket(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetTicketByChannel(ctx context.Context, channelID string) (*model.Ticket, error) {
	var t model.Ticket
	err := s.db.WithContext(ctx).Where("channel_id = ?", channelID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// DeleteTicket removes the row and its transcript notes. Only the accidental
// close path uses this; regular closes keep history.
func (s *Store) DeleteTicket(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", id).Delete(&model.TranscriptNote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Ticket{}, id).Error
	})
}

func (s *Store) OpenTicketIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("is_open = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (s *Store) OpenTicketsOfOwner(ctx context.Context, ownerID string) ([]model.Ticket, error) {
	var items []model.Ticket
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND is_open = ?", ownerID, true).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (s *Store) CountOpenByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("owner_id = ? AND is_open = ?", ownerID, true).
		Count(&n).Error
	return n, err
}

func (s *Store) ListTickets(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error) {
	var items []model.Ticket
	var total int64
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	for k, v := range filter {
		tx = tx.Where(k, v)
	}
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// MarkStaleClosed closes a ticket whose channel no longer exists. Used by the
// sweep's self-healing path, bypassing the in-memory copy on purpose.
func (s *Store) MarkStaleClosed(ctx context.Context, id uint64) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_open":              false,
			"is_waiting":           false,
			"pending_rating_since": nil,
			"close_message":        "Auto-closed: Channel not found",
			"closed_at":            now,
		}).Error
}

func (s *Store) AppendNote(ctx context.Context, ticketID uint64, content string) error {
	return s.db.WithContext(ctx).Create(&model.TranscriptNote{
		TicketID: ticketID,
		Content:  content,
	}).Error
}
