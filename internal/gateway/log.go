package gateway

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
)

// LogNotifier is the stand-in transport used when no chat platform is
// connected (local runs, maintenance commands). Every side effect is logged
// and succeeds; created ids are process-local.
type LogNotifier struct {
	seq atomic.Uint64
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) next(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, n.seq.Add(1))
}

func (n *LogNotifier) SendDirectMessage(_ context.Context, userID, content string) error {
	log.Printf("gateway: dm %s: %s", userID, content)
	return nil
}

func (n *LogNotifier) SendToContainer(_ context.Context, containerID, content string) (string, error) {
	log.Printf("gateway: message to %s: %s", containerID, content)
	return n.next("msg"), nil
}

func (n *LogNotifier) RenameContainer(_ context.Context, containerID, name string) error {
	log.Printf("gateway: rename %s to %q", containerID, name)
	return nil
}

func (n *LogNotifier) MoveToBin(_ context.Context, containerID, binContainerID string) error {
	log.Printf("gateway: move %s under %s", containerID, binContainerID)
	return nil
}

func (n *LogNotifier) Grant(_ context.Context, containerID, principalID string, caps ...Capability) error {
	log.Printf("gateway: grant %v on %s to %s", caps, containerID, principalID)
	return nil
}

func (n *LogNotifier) Revoke(_ context.Context, containerID, principalID string, caps ...Capability) error {
	log.Printf("gateway: revoke %v on %s from %s", caps, containerID, principalID)
	return nil
}

func (n *LogNotifier) CreateContainer(_ context.Context, name, binContainerID string) (string, error) {
	id := n.next("chan")
	log.Printf("gateway: create channel %q (%s) under %s", name, id, binContainerID)
	return id, nil
}

func (n *LogNotifier) CreateBinContainer(_ context.Context, name, afterContainerID string) (string, error) {
	id := n.next("bin")
	log.Printf("gateway: create bin %q (%s) after %s", name, id, afterContainerID)
	return id, nil
}

func (n *LogNotifier) CreateDiscussion(_ context.Context, containerID, name string) (string, error) {
	id := n.next("thread")
	log.Printf("gateway: create discussion %q (%s) in %s", name, id, containerID)
	return id, nil
}

func (n *LogNotifier) DeleteContainer(_ context.Context, containerID string) error {
	log.Printf("gateway: delete %s", containerID)
	return nil
}

func (n *LogNotifier) ContainerExists(_ context.Context, _ string) bool { return true }

func (n *LogNotifier) HasMember(_ context.Context, _ string) bool { return true }

func (n *LogNotifier) UploadTranscript(_ context.Context, containerID string, ticketID uint64) (string, error) {
	log.Printf("gateway: transcript of %s for ticket %d", containerID, ticketID)
	return "", nil
}

func (n *LogNotifier) Mention(userID string) string {
	return "<@" + userID + ">"
}

var _ Notifier = (*LogNotifier)(nil)
