// Package gateway declares the narrow interface through which the ticket core
// talks to the chat platform. Implementations live in transport code; the
// core only ever degrades gracefully when a call fails.
package gateway

import "context"

// Capability is a visibility/send permission on a container.
type Capability string

const (
	CapView    Capability = "view"
	CapSend    Capability = "send"
	CapHistory Capability = "history"
)

// Notifier is the platform surface the lifecycle controller, allocator and
// schedulers depend on. Principals are user or role ids; containers are
// channel-like resources; bin containers group up to 50 of them.
type Notifier interface {
	SendDirectMessage(ctx context.Context, userID, content string) error
	// SendToContainer posts into a container and returns the message id.
	SendToContainer(ctx context.Context, containerID, content string) (string, error)
	RenameContainer(ctx context.Context, containerID, name string) error
	MoveToBin(ctx context.Context, containerID, binContainerID string) error
	Grant(ctx context.Context, containerID, principalID string, caps ...Capability) error
	Revoke(ctx context.Context, containerID, principalID string, caps ...Capability) error
	// CreateContainer creates a ticket channel inside the given bin container.
	CreateContainer(ctx context.Context, name, binContainerID string) (string, error)
	// CreateBinContainer creates a new bin container placed after the given one.
	CreateBinContainer(ctx context.Context, name, afterContainerID string) (string, error)
	// CreateDiscussion creates the staff discussion sub-channel of a ticket.
	CreateDiscussion(ctx context.Context, containerID, name string) (string, error)
	DeleteContainer(ctx context.Context, containerID string) error
	ContainerExists(ctx context.Context, containerID string) bool
	// HasMember reports whether the user is still in the group.
	HasMember(ctx context.Context, userID string) bool
	// UploadTranscript renders and uploads the ticket channel transcript,
	// returning a reference URL. Failures must not block closing.
	UploadTranscript(ctx context.Context, containerID string, ticketID uint64) (string, error)
	// Mention renders a user mention for message content.
	Mention(userID string) string
}
