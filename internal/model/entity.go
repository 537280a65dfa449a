package model

import "time"

// Ticket is one support request. A ticket is open from creation until it is
// closed; "pending rating" is the window after a close was requested but
// before the owner rated or skipped, and is encoded solely by
// PendingRatingSince being non-nil.
type Ticket struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	OwnerID     string `gorm:"index;not null" json:"owner_id"`
	SupporterID string `gorm:"index" json:"supporter_id,omitempty"`
	CloserID    string `json:"closer_id,omitempty"`
	CategoryID  string `gorm:"index;not null" json:"category_id"`

	Info     map[string]string `gorm:"serializer:json" json:"info,omitempty"`
	Involved []string          `gorm:"serializer:json" json:"involved,omitempty"`

	ChannelID     string `gorm:"index" json:"channel_id"`
	ThreadID      string `json:"thread_id,omitempty"`
	BinID         string `gorm:"index" json:"bin_id,omitempty"`
	BaseMessageID string `json:"base_message_id,omitempty"`

	IsOpen                 bool       `gorm:"index" json:"is_open"`
	IsWaiting              bool       `json:"is_waiting"`
	WaitingSince           *time.Time `json:"waiting_since,omitempty"`
	RemindersSent          int        `json:"reminders_sent"`
	SupporterRemindersSent int        `json:"supporter_reminders_sent"`
	LastMessageAt          *time.Time `json:"last_message_at,omitempty"`

	PendingCloserID     string     `json:"pending_closer_id,omitempty"`
	PendingRatingSince  *time.Time `json:"pending_rating_since,omitempty"`
	RatingRemindersSent int        `json:"rating_reminders_sent"`

	CloseMessage string     `json:"close_message,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPendingRating reports whether a close was requested and the owner has not
// rated or skipped yet.
func (t *Ticket) IsPendingRating() bool {
	return t.PendingRatingSince != nil
}

// HasInvolved reports whether the user was granted visibility on this ticket.
func (t *Ticket) HasInvolved(userID string) bool {
	for _, id := range t.Involved {
		if id == userID {
			return true
		}
	}
	return false
}

// Rating is the owner's feedback for a closed ticket. Immutable once written.
type Rating struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	TicketID    uint64    `gorm:"index;not null" json:"ticket_id"`
	OwnerID     string    `gorm:"not null" json:"owner_id"`
	SupporterID string    `gorm:"index;not null" json:"supporter_id"`
	Stars       int       `gorm:"not null" json:"stars"`
	Message     string    `gorm:"type:text" json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Bin is one persisted row of the bin registry: a channel container grouping
// up to 50 ticket channels of one pool. Membership is runtime state owned by
// the allocator; only the container itself is durable.
type Bin struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Pool        string    `gorm:"index;not null" json:"pool"`
	ContainerID string    `gorm:"uniqueIndex;not null" json:"container_id"`
	Position    int       `gorm:"not null" json:"position"`
	IsPrimary   bool      `json:"is_primary"`
	CreatedAt   time.Time `json:"created_at"`
}

// SupporterSettings holds per-supporter privacy flags.
type SupporterSettings struct {
	SupporterID string    `gorm:"primaryKey" json:"supporter_id"`
	HideStats   bool      `json:"hide_stats"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TranscriptNote is a system line attached to a ticket's transcript
// ("claimed the ticket", "owner left", ...). Notes are deleted together with
// the ticket row on an accidental close.
type TranscriptNote struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	TicketID  uint64    `gorm:"index;not null" json:"ticket_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
