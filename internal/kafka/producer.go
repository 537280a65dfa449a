// Package kafka publishes ticket lifecycle events. Publishing is
// best-effort; without configured brokers the producer is a no-op.
package kafka

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/brentspine/discord-ticketbot/internal/model"
)

type Producer struct {
	writer *kafkago.Writer
	topic  string
}

// ParseBrokers splits a comma-separated broker list, dropping empties.
func ParseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// NewProducer creates a lifecycle event producer. With no brokers the
// returned producer silently drops everything.
func NewProducer(brokers string, topic string) *Producer {
	list := ParseBrokers(brokers)
	if len(list) == 0 || topic == "" {
		log.Printf("kafka: brokers not configured, event publishing disabled")
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(list...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafkago.RequireOne,
		},
	}
}

type envelope struct {
	Event  string        `json:"event"`
	At     time.Time     `json:"at"`
	Ticket *model.Ticket `json:"ticket"`
}

// Publish sends one lifecycle event, keyed by ticket id so events of one
// ticket stay ordered. Failures are logged and dropped.
func (p *Producer) Publish(ctx context.Context, event string, t *model.Ticket) {
	if p.writer == nil {
		return
	}
	value, err := json.Marshal(envelope{Event: event, At: time.Now().UTC(), Ticket: t})
	if err != nil {
		log.Printf("kafka: marshal %s event: %v", event, err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(strconv.FormatUint(t.ID, 10)),
		Value: value,
	})
	if err != nil {
		log.Printf("kafka: publish %s for ticket %d: %v", event, t.ID, err)
	}
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
