package lifecycle

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/model"
)

// TicketSaver persists tickets asynchronously. Mutations update the
// in-memory ticket first and hand the write to the pool; memory stays
// authoritative, a failed write is logged and dropped.
type TicketSaver struct {
	store   ticketWriter
	jobs    chan *model.Ticket
	wg      sync.WaitGroup
	once    sync.Once
	timeout time.Duration
}

type ticketWriter interface {
	SaveTicket(ctx context.Context, t *model.Ticket) error
}

// NewTicketSaver starts workers goroutines draining a buffered queue.
func NewTicketSaver(store ticketWriter, workers int) *TicketSaver {
	if workers < 1 {
		workers = 1
	}
	s := &TicketSaver{
		store:   store,
		jobs:    make(chan *model.Ticket, 1024),
		timeout: 10 * time.Second,
	}
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s
}

func (s *TicketSaver) worker() {
	defer s.wg.Done()
	for t := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := s.store.SaveTicket(ctx, t); err != nil {
			log.Printf("saver: persist ticket %d: %v", t.ID, err)
		}
		cancel()
	}
}

// Enqueue schedules a persistence pass for the ticket. Blocks only when
// the queue is full.
func (s *TicketSaver) Enqueue(t *model.Ticket) {
	s.jobs <- t
}

// Close drains the queue and stops the workers.
func (s *TicketSaver) Close() {
	s.once.Do(func() {
		close(s.jobs)
	})
	s.wg.Wait()
}
