package scheduler

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/allocator"
)

// MemberInfo resolves a bin member (a ticket channel id) to the ticket's
// supporter and id, for the claimed-pool sort order. ok is false for
// members that cannot be resolved; they sort last.
type MemberInfo func(member string) (supporterID string, ticketID uint64, ok bool)

// Consolidator repacks every pool into the minimum number of bins once per
// day, at 00:30 so it never collides with a top-of-hour sweep.
type Consolidator struct {
	alloc *allocator.Allocator
	info  MemberInfo
}

func NewConsolidator(alloc *allocator.Allocator, info MemberInfo) *Consolidator {
	return &Consolidator{alloc: alloc, info: info}
}

// RunOnce consolidates all pools. Claimed pools are re-sorted by supporter
// then ticket id so one supporter's channels sit next to each other; the
// other pools keep their arrival order.
func (c *Consolidator) RunOnce(ctx context.Context) {
	for _, pool := range c.alloc.Pools() {
		var less func(a, b string) bool
		if strings.HasPrefix(pool, "claimed:") {
			less = c.bySupporterThenTicket
		}
		moved, deleted, err := c.alloc.Consolidate(ctx, pool, less)
		if err != nil {
			log.Printf("consolidate: pool %q: %v", pool, err)
			continue
		}
		if moved > 0 || deleted > 0 {
			log.Printf("consolidate: pool %q moved %d member(s), deleted %d bin(s)", pool, moved, deleted)
		}
	}
}

func (c *Consolidator) bySupporterThenTicket(a, b string) bool {
	supA, idA, okA := c.info(a)
	supB, idB, okB := c.info(b)
	if okA != okB {
		return okA
	}
	if supA != supB {
		return supA < supB
	}
	return idA < idB
}

// Start runs the consolidation daily at 00:30. Blocks until the context
// ends.
func (c *Consolidator) Start(ctx context.Context) {
	RunAligned(ctx, func(now time.Time) time.Time { return NextDailyAt(now, 0, 30) }, func() {
		c.RunOnce(ctx)
	})
}
