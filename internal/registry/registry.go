// Package registry keeps the in-memory working set of tickets the process is
// currently touching. Entries are loaded lazily from the store and shared by
// the controller and the schedulers.
//
// The registry is not a transactional layer: concurrent claim/close races on
// the same ticket are not serialized here. Correctness relies on the
// controller's idempotent no-op guards and on the platform's own ordering of
// inbound interactions.
package registry

import (
	"context"
	"sync"

	"github.com/brentspine/discord-ticketbot/internal/model"
)

// Loader is the subset of the store the registry needs for cache misses.
type Loader interface {
	GetTicket(ctx context.Context, id uint64) (*model.Ticket, error)
	GetTicketByChannel(ctx context.Context, channelID string) (*model.Ticket, error)
}

type Registry struct {
	mu        sync.RWMutex
	byID      map[uint64]*model.Ticket
	byChannel map[string]*model.Ticket
	loader    Loader
}

func New(loader Loader) *Registry {
	return &Registry{
		byID:      make(map[uint64]*model.Ticket),
		byChannel: make(map[string]*model.Ticket),
		loader:    loader,
	}
}

// Get returns the cached ticket or loads it from the store.
func (r *Registry) Get(ctx context.Context, id uint64) (*model.Ticket, error) {
	r.mu.RLock()
	t, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}
	t, err := r.loader.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Put(t)
	return t, nil
}

// GetByChannel resolves a ticket through its primary container id.
func (r *Registry) GetByChannel(ctx context.Context, channelID string) (*model.Ticket, error) {
	r.mu.RLock()
	t, ok := r.byChannel[channelID]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}
	t, err := r.loader.GetTicketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	r.Put(t)
	return t, nil
}

// Put registers or refreshes a ticket in the working set.
func (r *Registry) Put(t *model.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[t.ID] = t
	if t.ChannelID != "" {
		r.byChannel[t.ChannelID] = t
	}
}

// Remove drops a ticket from the working set (accidental close path).
func (r *Registry) Remove(t *model.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, t.ID)
	if t.ChannelID != "" {
		delete(r.byChannel, t.ChannelID)
	}
}

// OpenTickets returns the cached tickets that are still open.
func (r *Registry) OpenTickets() []*model.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Ticket
	for _, t := range r.byID {
		if t.IsOpen {
			out = append(out, t)
		}
	}
	return out
}
