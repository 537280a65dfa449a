// Package allocator assigns ticket channels to fixed-capacity bin containers.
// Every pool (the unclaimed pool, one claimed pool per category, the
// pending-rating pool) has one primary bin and an ordered list of overflow
// bins. Allocation is first-fit left-to-right; overflow bins are reclaimed
// eagerly when they run empty and repacked by the daily consolidation pass.
package allocator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/brentspine/discord-ticketbot/internal/errs"
	"github.com/brentspine/discord-ticketbot/internal/model"
)

// Capacity is the hard member limit of a single bin container.
const Capacity = 50

const (
	PoolUnclaimed     = "unclaimed"
	PoolPendingRating = "pending-rating"
)

// ClaimedPool returns the pool key of a category's claimed pool.
func ClaimedPool(categoryID string) string {
	return "claimed:" + categoryID
}

// Bin is the runtime view of one bin container: the persisted row plus the
// ordered member channel ids currently parented under it.
type Bin struct {
	ContainerID string
	Pool        string
	Primary     bool
	Members     []string
}

func (b *Bin) free() int {
	return Capacity - len(b.Members)
}

func (b *Bin) has(member string) bool {
	for _, m := range b.Members {
		if m == member {
			return true
		}
	}
	return false
}

func (b *Bin) remove(member string) bool {
	for i, m := range b.Members {
		if m == member {
			b.Members = append(b.Members[:i], b.Members[i+1:]...)
			return true
		}
	}
	return false
}

// BinStore is the registry persistence the allocator needs.
type BinStore interface {
	CreateBin(ctx context.Context, b *model.Bin) error
	DeleteBin(ctx context.Context, containerID string) error
	ListBins(ctx context.Context) ([]model.Bin, error)
	EnsureBin(ctx context.Context, b *model.Bin) error
}

// Gateway is the platform subset the allocator needs: creating and deleting
// bin containers and re-parenting member channels.
type Gateway interface {
	CreateBinContainer(ctx context.Context, name, afterContainerID string) (string, error)
	DeleteContainer(ctx context.Context, containerID string) error
	MoveToBin(ctx context.Context, containerID, binContainerID string) error
}

// Allocator owns the pool → bins mapping. One instance per process; all
// callers share it by reference.
type Allocator struct {
	mu    sync.Mutex
	store BinStore
	gw    Gateway
	pools map[string][]*Bin
	names map[string]string
}

func New(store BinStore, gw Gateway) *Allocator {
	return &Allocator{
		store: store,
		gw:    gw,
		pools: make(map[string][]*Bin),
		names: make(map[string]string),
	}
}

// RegisterPrimary declares the primary bin of a pool. Primary bins come from
// config, are registered in the store if missing and are never deleted.
func (a *Allocator) RegisterPrimary(ctx context.Context, pool, containerID, displayName string) error {
	if containerID == "" {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.store.EnsureBin(ctx, &model.Bin{
		Pool:        pool,
		ContainerID: containerID,
		Position:    0,
		IsPrimary:   true,
	}); err != nil {
		return fmt.Errorf("register primary bin %q: %w", pool, err)
	}
	a.pools[pool] = append([]*Bin{{
		ContainerID: containerID,
		Pool:        pool,
		Primary:     true,
	}}, a.pools[pool]...)
	a.names[pool] = displayName
	return nil
}

// Load attaches the persisted overflow bins to their pools, in position
// order after the primary. Call after all RegisterPrimary calls.
func (a *Allocator) Load(ctx context.Context) error {
	rows, err := a.store.ListBins(ctx)
	if err != nil {
		return fmt.Errorf("list bins: %w", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, row := range rows {
		if row.IsPrimary {
			continue
		}
		if _, ok := a.pools[row.Pool]; !ok {
			log.Printf("allocator: overflow bin %s belongs to unknown pool %q, skipping", row.ContainerID, row.Pool)
			continue
		}
		a.pools[row.Pool] = append(a.pools[row.Pool], &Bin{
			ContainerID: row.ContainerID,
			Pool:        row.Pool,
		})
	}
	return nil
}

// Adopt records existing membership while open tickets are loaded on
// startup. Members whose bin is no longer registered land in the primary.
func (a *Allocator) Adopt(pool, binContainerID, member string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	bins := a.pools[pool]
	if len(bins) == 0 {
		return
	}
	for _, b := range bins {
		if b.ContainerID == binContainerID {
			if !b.has(member) {
				b.Members = append(b.Members, member)
			}
			return
		}
	}
	if !bins[0].has(member) {
		bins[0].Members = append(bins[0].Members, member)
	}
}

// Allocate places a member into the pool: the primary while it has room,
// then the first overflow bin with room, then a freshly created overflow
// bin appended after the last one.
func (a *Allocator) Allocate(ctx context.Context, pool, member string) (*Bin, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	bins := a.pools[pool]
	if len(bins) == 0 {
		return nil, fmt.Errorf("pool %q: %w", pool, errs.ErrBinNotFound)
	}
	for _, b := range bins {
		if b.free() > 0 {
			b.Members = append(b.Members, member)
			return b, nil
		}
	}
	return a.createOverflow(ctx, pool, member)
}

// createOverflow creates, persists and registers a new overflow bin.
// Caller holds the lock.
func (a *Allocator) createOverflow(ctx context.Context, pool, member string) (*Bin, error) {
	bins := a.pools[pool]
	last := bins[len(bins)-1]
	name := fmt.Sprintf("%s (Overflow)", a.names[pool])
	containerID, err := a.gw.CreateBinContainer(ctx, name, last.ContainerID)
	if err != nil {
		return nil, fmt.Errorf("create overflow bin for pool %q: %w", pool, err)
	}
	if err := a.store.CreateBin(ctx, &model.Bin{
		Pool:        pool,
		ContainerID: containerID,
		Position:    len(bins),
	}); err != nil {
		return nil, fmt.Errorf("persist overflow bin %s: %w", containerID, err)
	}
	b := &Bin{ContainerID: containerID, Pool: pool, Members: []string{member}}
	a.pools[pool] = append(bins, b)
	log.Printf("allocator: created overflow bin %s for pool %q", containerID, pool)
	return b, nil
}

// Rebind renames a member in place. Ticket channels are allocated under a
// provisional key before the channel exists; once created, the key becomes
// the channel id.
func (a *Allocator) Rebind(pool, oldMember, newMember string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, b := range a.pools[pool] {
		for i, m := range b.Members {
			if m == oldMember {
				b.Members[i] = newMember
				return
			}
		}
	}
}

// Release removes a member from its bin. An overflow bin left with at most
// one member is reclaimed immediately: a lone survivor is repacked into an
// earlier bin with room, then the bin is deleted and deregistered.
func (a *Allocator) Release(ctx context.Context, pool, member string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	bins := a.pools[pool]
	var bin *Bin
	for _, b := range bins {
		if b.remove(member) {
			bin = b
			break
		}
	}
	if bin == nil || bin.Primary || len(bin.Members) > 1 {
		return nil
	}
	if len(bin.Members) == 1 {
		survivor := bin.Members[0]
		target := a.firstFit(pool, bin)
		if target == nil {
			return nil
		}
		if err := a.gw.MoveToBin(ctx, survivor, target.ContainerID); err != nil {
			log.Printf("allocator: couldn't repack %s out of %s: %v", survivor, bin.ContainerID, err)
			return nil
		}
		target.Members = append(target.Members, survivor)
		bin.Members = nil
	}
	return a.reclaim(ctx, pool, bin)
}

// firstFit returns the first bin of the pool with room, skipping the given
// bin. Caller holds the lock.
func (a *Allocator) firstFit(pool string, skip *Bin) *Bin {
	for _, b := range a.pools[pool] {
		if b != skip && b.free() > 0 {
			return b
		}
	}
	return nil
}

// reclaim deletes an empty overflow bin. Caller holds the lock.
func (a *Allocator) reclaim(ctx context.Context, pool string, bin *Bin) error {
	bins := a.pools[pool]
	for i, b := range bins {
		if b == bin {
			a.pools[pool] = append(bins[:i], bins[i+1:]...)
			break
		}
	}
	if err := a.store.DeleteBin(ctx, bin.ContainerID); err != nil {
		log.Printf("allocator: deregister bin %s: %v", bin.ContainerID, err)
	}
	if err := a.gw.DeleteContainer(ctx, bin.ContainerID); err != nil {
		log.Printf("allocator: delete bin container %s: %v", bin.ContainerID, err)
	}
	log.Printf("allocator: reclaimed overflow bin %s from pool %q", bin.ContainerID, pool)
	return nil
}

// Consolidate repacks a pool into ceil(total/50) bins, filling each to
// capacity in display order, and deletes the overflow bins beyond that.
// A non-nil less re-sorts members inside the kept bins (claimed pools sort
// by supporter then ticket id). Returns moved and deleted counts.
func (a *Allocator) Consolidate(ctx context.Context, pool string, less func(a, b string) bool) (int, int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	bins := a.pools[pool]
	if len(bins) == 0 {
		return 0, 0, nil
	}

	var members []string
	for _, b := range bins {
		members = append(members, b.Members...)
	}
	if less != nil {
		sort.SliceStable(members, func(i, j int) bool { return less(members[i], members[j]) })
	}

	needed := (len(members) + Capacity - 1) / Capacity
	if needed < 1 {
		needed = 1
	}
	if needed > len(bins) {
		needed = len(bins)
	}

	moved := 0
	idx := 0
	for i := 0; i < needed; i++ {
		take := Capacity
		if rest := len(members) - idx; rest < take {
			take = rest
		}
		target := bins[i]
		newMembers := members[idx : idx+take]
		for _, m := range newMembers {
			if !target.has(m) {
				if err := a.gw.MoveToBin(ctx, m, target.ContainerID); err != nil {
					log.Printf("allocator: consolidate move %s -> %s: %v", m, target.ContainerID, err)
					continue
				}
				moved++
			}
		}
		target.Members = append([]string(nil), newMembers...)
		idx += take
	}

	// reclaim shifts a.pools[pool] in place, so snapshot the excess bins
	// before deleting any of them.
	excess := append([]*Bin(nil), bins[needed:]...)
	deleted := 0
	for _, b := range excess {
		if b.Primary {
			continue
		}
		b.Members = nil
		if err := a.reclaim(ctx, pool, b); err == nil {
			deleted++
		}
	}
	return moved, deleted, nil
}

// Pools returns the registered pool keys.
func (a *Allocator) Pools() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.pools))
	for p := range a.pools {
		out = append(out, p)
	}
	return out
}

// BinCount returns how many bins a pool currently uses.
func (a *Allocator) BinCount(pool string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pools[pool])
}
