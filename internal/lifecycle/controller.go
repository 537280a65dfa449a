// Package lifecycle implements the ticket state machine: open, claim,
// waiting, rating request, rating/skip and close, including the accidental
// close path. All mutations go through the in-memory ticket; persistence is
// asynchronous except where an id or a close must be durable.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/allocator"
	"github.com/brentspine/discord-ticketbot/internal/category"
	"github.com/brentspine/discord-ticketbot/internal/config"
	"github.com/brentspine/discord-ticketbot/internal/errs"
	"github.com/brentspine/discord-ticketbot/internal/gateway"
	"github.com/brentspine/discord-ticketbot/internal/model"
	"github.com/brentspine/discord-ticketbot/internal/registry"
)

// TicketStore is the synchronous persistence surface of the controller.
type TicketStore interface {
	SaveTicket(ctx context.Context, t *model.Ticket) error
	DeleteTicket(ctx context.Context, id uint64) error
	CountOpenByOwner(ctx context.Context, ownerID string) (int64, error)
	OpenTicketsOfOwner(ctx context.Context, ownerID string) ([]model.Ticket, error)
	AppendNote(ctx context.Context, ticketID uint64, content string) error
	SaveRating(ctx context.Context, r *model.Rating) error
}

// EventPublisher pushes lifecycle events to the event bus, best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, event string, t *model.Ticket)
}

// XPAwarder reports closed tickets to the XP service, fire-and-forget.
// stars is nil when the owner skipped the rating.
type XPAwarder interface {
	AwardAsync(t *model.Ticket, stars *int)
}

const defaultCloseMessage = "Closed"

type Controller struct {
	cfg    *config.Config
	store  TicketStore
	reg    *registry.Registry
	alloc  *allocator.Allocator
	gw     gateway.Notifier
	xp     XPAwarder
	events EventPublisher
	saver  *TicketSaver
	now    func() time.Time
}

func NewController(cfg *config.Config, store TicketStore, reg *registry.Registry,
	alloc *allocator.Allocator, gw gateway.Notifier, xp XPAwarder,
	events EventPublisher, saver *TicketSaver) *Controller {
	return &Controller{
		cfg:    cfg,
		store:  store,
		reg:    reg,
		alloc:  alloc,
		gw:     gw,
		xp:     xp,
		events: events,
		saver:  saver,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Open creates a new ticket for the owner. The first save is synchronous so
// the ticket id exists before the channel is named after it.
func (c *Controller) Open(ctx context.Context, ownerID, categoryID string, info map[string]string) (*model.Ticket, error) {
	if _, err := category.ByID(categoryID); err != nil {
		return nil, err
	}
	if !c.cfg.DevMode {
		n, err := c.store.CountOpenByOwner(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("count open tickets: %w", err)
		}
		if n >= int64(c.cfg.MaxTicketsPerUser) {
			return nil, errs.ErrQuotaExceeded
		}
	}

	t := &model.Ticket{
		OwnerID:    ownerID,
		CategoryID: categoryID,
		Info:       info,
		IsOpen:     true,
		CreatedAt:  c.now(),
	}
	if err := c.store.SaveTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	bin, err := c.alloc.Allocate(ctx, allocator.PoolUnclaimed, ticketChannelName(t.ID))
	if err != nil {
		_ = c.store.DeleteTicket(ctx, t.ID)
		return nil, fmt.Errorf("allocate unclaimed bin: %w", err)
	}
	channelID, err := c.gw.CreateContainer(ctx, ticketChannelName(t.ID), bin.ContainerID)
	if err != nil {
		_ = c.alloc.Release(ctx, allocator.PoolUnclaimed, ticketChannelName(t.ID))
		_ = c.store.DeleteTicket(ctx, t.ID)
		return nil, fmt.Errorf("create ticket channel: %w", err)
	}
	t.ChannelID = channelID
	t.BinID = bin.ContainerID
	c.alloc.Rebind(allocator.PoolUnclaimed, ticketChannelName(t.ID), channelID)

	if err := c.gw.Grant(ctx, channelID, ownerID, gateway.CapView, gateway.CapSend, gateway.CapHistory); err != nil {
		log.Printf("lifecycle: grant owner on ticket %d: %v", t.ID, err)
	}
	for _, roleID := range c.cfg.CategoryRoles[categoryID] {
		if err := c.gw.Grant(ctx, channelID, roleID, gateway.CapView, gateway.CapHistory); err != nil {
			log.Printf("lifecycle: grant role %s on ticket %d: %v", roleID, t.ID, err)
		}
	}
	if threadID, err := c.gw.CreateDiscussion(ctx, channelID, fmt.Sprintf("ticket-%d-staff", t.ID)); err != nil {
		log.Printf("lifecycle: create staff discussion for ticket %d: %v", t.ID, err)
	} else {
		t.ThreadID = threadID
	}
	if msgID, err := c.gw.SendToContainer(ctx, channelID, c.welcomeMessage(t)); err != nil {
		log.Printf("lifecycle: base message for ticket %d: %v", t.ID, err)
	} else {
		t.BaseMessageID = msgID
	}

	c.reg.Put(t)
	c.saver.Enqueue(t)
	c.publish(ctx, "ticket.opened", t)
	return t, nil
}

// Claim assigns a supporter to an unclaimed ticket. Re-claiming by the same
// supporter is a no-op; a ticket claimed by someone else stays theirs.
func (c *Controller) Claim(ctx context.Context, ticketID uint64, supporterID string) error {
	t, err := c.reg.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if !t.IsOpen || t.IsPendingRating() {
		return errs.ErrTicketClosed
	}
	if t.SupporterID == supporterID {
		return nil
	}
	if t.SupporterID != "" {
		return errs.ErrPermissionDenied
	}
	if supporterID == t.OwnerID && !c.cfg.DevMode {
		return errs.ErrPermissionDenied
	}

	t.SupporterID = supporterID
	if err := c.gw.RenameContainer(ctx, t.ChannelID, claimedChannelName(t.ID)); err != nil {
		log.Printf("lifecycle: rename ticket %d channel: %v", t.ID, err)
	}
	if err := c.gw.Grant(ctx, t.ChannelID, supporterID, gateway.CapView, gateway.CapSend, gateway.CapHistory); err != nil {
		log.Printf("lifecycle: grant supporter on ticket %d: %v", t.ID, err)
	}
	c.moveToPool(ctx, t, allocator.ClaimedPool(t.CategoryID))

	if err := c.store.AppendNote(ctx, t.ID, fmt.Sprintf("Claimed by %s", supporterID)); err != nil {
		log.Printf("lifecycle: note on ticket %d: %v", t.ID, err)
	}
	if _, err := c.gw.SendToContainer(ctx, t.ChannelID,
		fmt.Sprintf("%s will take care of this ticket.", c.gw.Mention(supporterID))); err != nil {
		log.Printf("lifecycle: claim announcement on ticket %d: %v", t.ID, err)
	}
	c.saver.Enqueue(t)
	c.publish(ctx, "ticket.claimed", t)
	return nil
}

// ToggleWaiting moves a claimed ticket in or out of the waiting-for-owner
// state. Setting the current state again is a no-op. Both directions reset
// the owner reminder counter.
func (c *Controller) ToggleWaiting(ctx context.Context, ticketID uint64, waiting bool) error {
	t, err := c.reg.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if !t.IsOpen || t.IsPendingRating() {
		return errs.ErrTicketClosed
	}
	if t.IsWaiting == waiting {
		return nil
	}
	t.IsWaiting = waiting
	t.RemindersSent = 0
	if waiting {
		now := c.now()
		t.WaitingSince = &now
	} else {
		t.WaitingSince = nil
	}
	c.saver.Enqueue(t)
	return nil
}

// InboundMessage records channel activity. A message by the owner clears the
// waiting state and resets the supporter reminder counter.
func (c *Controller) InboundMessage(ctx context.Context, channelID, authorID string) {
	t, err := c.reg.GetByChannel(ctx, channelID)
	if err != nil {
		return
	}
	if !t.IsOpen {
		return
	}
	now := c.now()
	t.LastMessageAt = &now
	if authorID == t.OwnerID {
		t.IsWaiting = false
		t.WaitingSince = nil
		t.RemindersSent = 0
		t.SupporterRemindersSent = 0
	}
	c.saver.Enqueue(t)
}

// RequestRating starts the pending-rating window. Tickets without a
// supporter and tickets whose owner already left close directly instead.
// Calling it again while already pending is a no-op.
func (c *Controller) RequestRating(ctx context.Context, ticketID uint64, closerID string) error {
	t, err := c.reg.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if !t.IsOpen {
		return errs.ErrTicketClosed
	}
	if t.IsPendingRating() {
		return nil
	}
	if t.SupporterID == "" {
		return c.close(ctx, t, closerID, defaultCloseMessage, "", nil)
	}
	if !c.gw.HasMember(ctx, t.OwnerID) {
		return c.close(ctx, t, closerID, "Closed without rating (member not in server)", "", nil)
	}

	now := c.now()
	t.PendingCloserID = closerID
	t.PendingRatingSince = &now
	t.RatingRemindersSent = 0
	t.IsWaiting = false
	t.WaitingSince = nil
	t.RemindersSent = 0

	// The owner keeps the channel to themselves while rating.
	if err := c.gw.Revoke(ctx, t.ChannelID, t.SupporterID, gateway.CapView); err != nil {
		log.Printf("lifecycle: revoke supporter on ticket %d: %v", t.ID, err)
	}
	if c.cfg.StaffRoleID != "" {
		if err := c.gw.Revoke(ctx, t.ChannelID, c.cfg.StaffRoleID, gateway.CapView); err != nil {
			log.Printf("lifecycle: revoke staff on ticket %d: %v", t.ID, err)
		}
	}
	c.moveToPool(ctx, t, allocator.PoolPendingRating)

	prompt := fmt.Sprintf("Your ticket #%d is about to close. Please rate the support you received or skip the rating.", t.ID)
	if err := c.gw.SendDirectMessage(ctx, t.OwnerID, prompt); err != nil {
		if _, err := c.gw.SendToContainer(ctx, t.ChannelID, prompt); err != nil {
			log.Printf("lifecycle: rating prompt for ticket %d: %v", t.ID, err)
		}
	}
	c.saver.Enqueue(t)
	return nil
}

// SubmitRating records the owner's rating and closes the ticket. Only the
// owner may rate, only while the ticket is pending, and only with 1 to 5
// stars. Exactly one rating row is written per ticket.
func (c *Controller) SubmitRating(ctx context.Context, ticketID uint64, actorID string, stars int, message string) error {
	t, err := c.reg.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if !t.IsPendingRating() {
		return errs.ErrTicketClosed
	}
	if actorID != t.OwnerID {
		return errs.ErrPermissionDenied
	}
	if stars < 1 || stars > 5 {
		return errs.ErrInvalidRating
	}

	if err := c.store.SaveRating(ctx, &model.Rating{
		TicketID:    t.ID,
		OwnerID:     t.OwnerID,
		SupporterID: t.SupporterID,
		Stars:       stars,
		Message:     message,
	}); err != nil {
		return fmt.Errorf("save rating: %w", err)
	}
	c.announceRating(ctx, t, stars)
	c.publish(ctx, "ticket.rated", t)

	transcriptURL := c.transcript(ctx, t)
	return c.close(ctx, t, c.pendingCloser(t), defaultCloseMessage, transcriptURL, &stars)
}

// SkipRating closes a pending ticket without a rating row. Owner-only.
func (c *Controller) SkipRating(ctx context.Context, ticketID uint64, actorID string) error {
	t, err := c.reg.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if !t.IsPendingRating() {
		return errs.ErrTicketClosed
	}
	if actorID != t.OwnerID {
		return errs.ErrPermissionDenied
	}
	transcriptURL := c.transcript(ctx, t)
	return c.close(ctx, t, c.pendingCloser(t), defaultCloseMessage, transcriptURL, nil)
}

// Close finishes a ticket. With accident set the ticket vanishes entirely
// (row, notes, channel); that path is only open while no supporter claimed
// it and the grace window has not passed.
func (c *Controller) Close(ctx context.Context, ticketID uint64, closerID, message string, accident bool) error {
	t, err := c.reg.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if !t.IsOpen {
		return nil
	}
	if accident {
		return c.closeAccident(ctx, t)
	}
	if message == "" {
		message = defaultCloseMessage
	}
	return c.close(ctx, t, closerID, message, c.transcript(ctx, t), nil)
}

func (c *Controller) closeAccident(ctx context.Context, t *model.Ticket) error {
	if t.SupporterID != "" {
		return errs.ErrPermissionDenied
	}
	grace := time.Duration(c.cfg.AccidentGraceSeconds) * time.Second
	if c.now().Sub(t.CreatedAt) > grace {
		return errs.ErrPermissionDenied
	}
	c.releaseEverywhere(ctx, t)
	if err := c.gw.DeleteContainer(ctx, t.ChannelID); err != nil {
		log.Printf("lifecycle: delete channel of ticket %d: %v", t.ID, err)
	}
	if err := c.store.DeleteTicket(ctx, t.ID); err != nil {
		return fmt.Errorf("delete ticket %d: %w", t.ID, err)
	}
	c.reg.Remove(t)
	log.Printf("lifecycle: ticket %d removed as accidental", t.ID)
	return nil
}

// close is the single terminal transition. The final save is synchronous:
// losing a close on restart would resurrect the ticket. Every claimed ticket
// awards XP on its way out; stars is nil unless the owner submitted a rating.
func (c *Controller) close(ctx context.Context, t *model.Ticket, closerID, message, transcriptURL string, stars *int) error {
	if t.SupporterID != "" {
		c.xp.AwardAsync(t, stars)
	}
	now := c.now()
	t.IsOpen = false
	t.IsWaiting = false
	t.WaitingSince = nil
	t.RemindersSent = 0
	t.SupporterRemindersSent = 0
	t.PendingRatingSince = nil
	t.PendingCloserID = ""
	t.RatingRemindersSent = 0
	t.CloserID = closerID
	t.CloseMessage = message
	t.ClosedAt = &now

	if err := c.store.SaveTicket(ctx, t); err != nil {
		log.Printf("lifecycle: persist close of ticket %d: %v", t.ID, err)
	}

	notice := fmt.Sprintf("Your ticket #%d was closed: %s", t.ID, message)
	if transcriptURL != "" {
		notice += "\nTranscript: " + transcriptURL
	}
	if err := c.gw.SendDirectMessage(ctx, t.OwnerID, notice); err != nil {
		log.Printf("lifecycle: close notice for ticket %d: %v", t.ID, err)
	}
	if c.cfg.LogChannelID != "" {
		entry := fmt.Sprintf("Ticket #%d closed by %s: %s", t.ID, c.gw.Mention(closerID), message)
		if transcriptURL != "" {
			entry += " (" + transcriptURL + ")"
		}
		if _, err := c.gw.SendToContainer(ctx, c.cfg.LogChannelID, entry); err != nil {
			log.Printf("lifecycle: close log for ticket %d: %v", t.ID, err)
		}
	}

	c.releaseEverywhere(ctx, t)
	if err := c.gw.DeleteContainer(ctx, t.ChannelID); err != nil {
		log.Printf("lifecycle: delete channel of ticket %d: %v", t.ID, err)
	}
	c.reg.Remove(t)
	c.publish(ctx, "ticket.closed", t)
	return nil
}

// AddParticipant grants a user visibility on the ticket. Owner, supporter
// and already-involved users are no-ops.
func (c *Controller) AddParticipant(ctx context.Context, ticketID uint64, actorID, userID string) error {
	t, err := c.reg.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if !t.IsOpen {
		return errs.ErrTicketClosed
	}
	if !c.canManage(t, actorID) {
		return errs.ErrPermissionDenied
	}
	if userID == t.OwnerID || userID == t.SupporterID || t.HasInvolved(userID) {
		return nil
	}
	if err := c.gw.Grant(ctx, t.ChannelID, userID, gateway.CapView, gateway.CapSend, gateway.CapHistory); err != nil {
		return fmt.Errorf("grant participant: %w", err)
	}
	t.Involved = append(t.Involved, userID)
	if err := c.store.AppendNote(ctx, t.ID, fmt.Sprintf("%s was added to the ticket", userID)); err != nil {
		log.Printf("lifecycle: note on ticket %d: %v", t.ID, err)
	}
	c.saver.Enqueue(t)
	return nil
}

// RemoveParticipant revokes a previously granted user. Not-involved users
// are a no-op.
func (c *Controller) RemoveParticipant(ctx context.Context, ticketID uint64, actorID, userID string) error {
	t, err := c.reg.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if !t.IsOpen {
		return errs.ErrTicketClosed
	}
	if !c.canManage(t, actorID) {
		return errs.ErrPermissionDenied
	}
	if !t.HasInvolved(userID) {
		return nil
	}
	if err := c.gw.Revoke(ctx, t.ChannelID, userID, gateway.CapView, gateway.CapSend, gateway.CapHistory); err != nil {
		return fmt.Errorf("revoke participant: %w", err)
	}
	for i, id := range t.Involved {
		if id == userID {
			t.Involved = append(t.Involved[:i], t.Involved[i+1:]...)
			break
		}
	}
	if err := c.store.AppendNote(ctx, t.ID, fmt.Sprintf("%s was removed from the ticket", userID)); err != nil {
		log.Printf("lifecycle: note on ticket %d: %v", t.ID, err)
	}
	c.saver.Enqueue(t)
	return nil
}

// Transfer hands a claimed ticket to another supporter.
func (c *Controller) Transfer(ctx context.Context, ticketID uint64, actorID, newSupporterID string) error {
	t, err := c.reg.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if !t.IsOpen || t.IsPendingRating() {
		return errs.ErrTicketClosed
	}
	if t.SupporterID == "" {
		return c.Claim(ctx, ticketID, newSupporterID)
	}
	if !c.canManage(t, actorID) {
		return errs.ErrPermissionDenied
	}
	if t.SupporterID == newSupporterID {
		return nil
	}
	old := t.SupporterID
	t.SupporterID = newSupporterID
	if err := c.gw.Grant(ctx, t.ChannelID, newSupporterID, gateway.CapView, gateway.CapSend, gateway.CapHistory); err != nil {
		log.Printf("lifecycle: grant new supporter on ticket %d: %v", t.ID, err)
	}
	if err := c.store.AppendNote(ctx, t.ID, fmt.Sprintf("Transferred from %s to %s", old, newSupporterID)); err != nil {
		log.Printf("lifecycle: note on ticket %d: %v", t.ID, err)
	}
	c.saver.Enqueue(t)
	return nil
}

// SetOwner reassigns ownership to a user who already has visibility on the
// ticket.
func (c *Controller) SetOwner(ctx context.Context, ticketID uint64, actorID, newOwnerID string) error {
	t, err := c.reg.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if !t.IsOpen {
		return errs.ErrTicketClosed
	}
	if !c.canManage(t, actorID) {
		return errs.ErrPermissionDenied
	}
	if t.OwnerID == newOwnerID {
		return nil
	}
	if !t.HasInvolved(newOwnerID) && newOwnerID != t.SupporterID {
		return errs.ErrPermissionDenied
	}
	old := t.OwnerID
	t.OwnerID = newOwnerID
	for i, id := range t.Involved {
		if id == newOwnerID {
			t.Involved = append(t.Involved[:i], t.Involved[i+1:]...)
			break
		}
	}
	if err := c.store.AppendNote(ctx, t.ID, fmt.Sprintf("Ownership moved from %s to %s", old, newOwnerID)); err != nil {
		log.Printf("lifecycle: note on ticket %d: %v", t.ID, err)
	}
	c.saver.Enqueue(t)
	return nil
}

// OwnerLeft handles a member leaving the group: pending-rating tickets of
// that owner close immediately, other open tickets get a note.
func (c *Controller) OwnerLeft(ctx context.Context, userID string) {
	tickets, err := c.store.OpenTicketsOfOwner(ctx, userID)
	if err != nil {
		log.Printf("lifecycle: load tickets of leaving owner %s: %v", userID, err)
		return
	}
	for i := range tickets {
		t, err := c.reg.Get(ctx, tickets[i].ID)
		if err != nil {
			continue
		}
		if t.IsPendingRating() {
			transcriptURL := c.transcript(ctx, t)
			if err := c.close(ctx, t, c.pendingCloser(t), "Closed without rating (member left the server)", transcriptURL, nil); err != nil {
				log.Printf("lifecycle: close ticket %d after owner left: %v", t.ID, err)
			}
			continue
		}
		if err := c.store.AppendNote(ctx, t.ID, fmt.Sprintf("Owner %s left the server", userID)); err != nil {
			log.Printf("lifecycle: note on ticket %d: %v", t.ID, err)
		}
	}
}

// OwnerRejoined restores channel access on the returning owner's open
// tickets.
func (c *Controller) OwnerRejoined(ctx context.Context, userID string) {
	tickets, err := c.store.OpenTicketsOfOwner(ctx, userID)
	if err != nil {
		log.Printf("lifecycle: load tickets of rejoining owner %s: %v", userID, err)
		return
	}
	for i := range tickets {
		t, err := c.reg.Get(ctx, tickets[i].ID)
		if err != nil {
			continue
		}
		if err := c.gw.Grant(ctx, t.ChannelID, userID, gateway.CapView, gateway.CapSend, gateway.CapHistory); err != nil {
			log.Printf("lifecycle: regrant owner on ticket %d: %v", t.ID, err)
		}
		if err := c.store.AppendNote(ctx, t.ID, fmt.Sprintf("Owner %s rejoined the server", userID)); err != nil {
			log.Printf("lifecycle: note on ticket %d: %v", t.ID, err)
		}
	}
}

// ContainerDeleted marks a ticket closed after its channel vanished
// externally. No channel operations are attempted.
func (c *Controller) ContainerDeleted(ctx context.Context, channelID string) {
	t, err := c.reg.GetByChannel(ctx, channelID)
	if err != nil {
		return
	}
	if !t.IsOpen {
		return
	}
	now := c.now()
	t.IsOpen = false
	t.IsWaiting = false
	t.WaitingSince = nil
	t.PendingRatingSince = nil
	t.PendingCloserID = ""
	t.CloseMessage = "Auto-closed: Channel not found"
	t.ClosedAt = &now
	if err := c.store.SaveTicket(ctx, t); err != nil {
		log.Printf("lifecycle: persist stale close of ticket %d: %v", t.ID, err)
	}
	c.releaseEverywhere(ctx, t)
	c.reg.Remove(t)
	c.publish(ctx, "ticket.closed", t)
}

// AdoptOpenTickets rebuilds allocator membership from the persisted bin
// column during startup.
func (c *Controller) AdoptOpenTickets(tickets []model.Ticket) {
	for i := range tickets {
		t := tickets[i]
		pool := c.poolOf(&t)
		c.alloc.Adopt(pool, t.BinID, t.ChannelID)
		c.reg.Put(&tickets[i])
	}
}

func (c *Controller) poolOf(t *model.Ticket) string {
	switch {
	case t.IsPendingRating():
		return allocator.PoolPendingRating
	case t.SupporterID != "":
		return allocator.ClaimedPool(t.CategoryID)
	default:
		return allocator.PoolUnclaimed
	}
}

// moveToPool releases the ticket channel from whichever pool holds it and
// allocates it into the target pool, physically re-parenting the channel.
// Pools without a registered primary (categories that fall back to role
// grants) leave the channel where it is.
func (c *Controller) moveToPool(ctx context.Context, t *model.Ticket, pool string) {
	c.releaseEverywhere(ctx, t)
	bin, err := c.alloc.Allocate(ctx, pool, t.ChannelID)
	if err != nil {
		log.Printf("lifecycle: no bin for ticket %d in pool %q: %v", t.ID, pool, err)
		return
	}
	if bin.ContainerID != t.BinID {
		if err := c.gw.MoveToBin(ctx, t.ChannelID, bin.ContainerID); err != nil {
			log.Printf("lifecycle: move ticket %d to bin %s: %v", t.ID, bin.ContainerID, err)
		}
		t.BinID = bin.ContainerID
	}
}

func (c *Controller) releaseEverywhere(ctx context.Context, t *model.Ticket) {
	member := t.ChannelID
	for _, pool := range []string{
		allocator.PoolUnclaimed,
		allocator.PoolPendingRating,
		allocator.ClaimedPool(t.CategoryID),
	} {
		if err := c.alloc.Release(ctx, pool, member); err != nil {
			log.Printf("lifecycle: release ticket %d from %q: %v", t.ID, pool, err)
		}
	}
}

// transcript uploads the ticket transcript once, unless the category is
// sensitive. Returns "" when none is produced.
func (c *Controller) transcript(ctx context.Context, t *model.Ticket) string {
	cat, err := category.ByID(t.CategoryID)
	if err == nil && cat.Sensitive {
		return ""
	}
	url, err := c.gw.UploadTranscript(ctx, t.ChannelID, t.ID)
	if err != nil {
		log.Printf("lifecycle: transcript for ticket %d: %v", t.ID, err)
		return ""
	}
	return url
}

func (c *Controller) pendingCloser(t *model.Ticket) string {
	if t.PendingCloserID != "" {
		return t.PendingCloserID
	}
	return t.OwnerID
}

func (c *Controller) canManage(t *model.Ticket, actorID string) bool {
	return actorID == t.OwnerID || actorID == t.SupporterID
}

func (c *Controller) announceRating(ctx context.Context, t *model.Ticket, stars int) {
	if len(c.cfg.RatingNotificationChannels) == 0 {
		return
	}
	msg := fmt.Sprintf("Ticket #%d rated %d/5 for %s", t.ID, stars, c.gw.Mention(t.SupporterID))
	for _, ch := range c.cfg.RatingNotificationChannels {
		if _, err := c.gw.SendToContainer(ctx, ch, msg); err != nil {
			log.Printf("lifecycle: rating notification to %s: %v", ch, err)
		}
	}
}

func (c *Controller) publish(ctx context.Context, event string, t *model.Ticket) {
	if c.events != nil {
		c.events.Publish(ctx, event, t)
	}
}

func (c *Controller) welcomeMessage(t *model.Ticket) string {
	cat, _ := category.ByID(t.CategoryID)
	return fmt.Sprintf("Hello %s, a supporter will take care of your %s ticket shortly.",
		c.gw.Mention(t.OwnerID), cat.Label)
}

func ticketChannelName(id uint64) string {
	return fmt.Sprintf("ticket-%d", id)
}

func claimedChannelName(id uint64) string {
	return fmt.Sprintf("ticket-%d-claimed", id)
}
