package registry

import (
	"context"
	"testing"

	"github.com/brentspine/discord-ticketbot/internal/errs"
	"github.com/brentspine/discord-ticketbot/internal/model"
)

type fakeLoader struct {
	tickets map[uint64]model.Ticket
	loads   int
}

func (f *fakeLoader) GetTicket(_ context.Context, id uint64) (*model.Ticket, error) {
	f.loads++
	t, ok := f.tickets[id]
	if !ok {
		return nil, errs.ErrTicketNotFound
	}
	return &t, nil
}

func (f *fakeLoader) GetTicketByChannel(_ context.Context, channelID string) (*model.Ticket, error) {
	f.loads++
	for _, t := range f.tickets {
		if t.ChannelID == channelID {
			cp := t
			return &cp, nil
		}
	}
	return nil, errs.ErrTicketNotFound
}

func TestGetLoadsOnceAndCaches(t *testing.T) {
	loader := &fakeLoader{tickets: map[uint64]model.Ticket{
		1: {ID: 1, ChannelID: "ch-1", IsOpen: true},
	}}
	r := New(loader)
	ctx := context.Background()

	first, err := r.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := r.Get(ctx, 1)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if first != second {
		t.Fatalf("cache returned a different pointer")
	}
	if loader.loads != 1 {
		t.Fatalf("loads = %d, want 1", loader.loads)
	}
	// The channel index is populated by the load too.
	byChan, err := r.GetByChannel(ctx, "ch-1")
	if err != nil {
		t.Fatalf("by channel: %v", err)
	}
	if byChan != first {
		t.Fatalf("channel lookup returned a different pointer")
	}
	if loader.loads != 1 {
		t.Fatalf("channel lookup hit the store")
	}
}

func TestGetUnknown(t *testing.T) {
	r := New(&fakeLoader{tickets: map[uint64]model.Ticket{}})
	if _, err := r.Get(context.Background(), 42); err != errs.ErrTicketNotFound {
		t.Fatalf("err = %v, want ErrTicketNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	loader := &fakeLoader{tickets: map[uint64]model.Ticket{
		1: {ID: 1, ChannelID: "ch-1"},
	}}
	r := New(loader)
	ctx := context.Background()

	tk, _ := r.Get(ctx, 1)
	r.Remove(tk)
	if _, err := r.Get(ctx, 1); err != nil {
		t.Fatalf("reload after remove: %v", err)
	}
	if loader.loads != 2 {
		t.Fatalf("loads = %d, want a reload after Remove", loader.loads)
	}
}

func TestOpenTickets(t *testing.T) {
	r := New(&fakeLoader{})
	r.Put(&model.Ticket{ID: 1, IsOpen: true})
	r.Put(&model.Ticket{ID: 2, IsOpen: false})
	r.Put(&model.Ticket{ID: 3, IsOpen: true})
	open := r.OpenTickets()
	if len(open) != 2 {
		t.Fatalf("open tickets = %d, want 2", len(open))
	}
}
