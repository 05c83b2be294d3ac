package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gatherly/eventhub/pkg/logger"
	"github.com/nats-io/nats.go"
)

// Subjects for committed event mutations, mirrored to NATS for out-of-process
// consumers (mail digests, analytics). In-process room fanout does not go
// through here.
const (
	EventCreated   = "events.created"
	EventUpdated   = "events.updated"
	EventDeleted   = "events.deleted"
	AttendeeJoined = "events.attendee_joined"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type EventCreatedPayload struct {
	EventID   int64     `json:"event_id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	DateTime  time.Time `json:"date_time"`
	CreatedAt time.Time `json:"created_at"`
}

type EventChangedPayload struct {
	EventID   int64     `json:"event_id"`
	OwnerID   int64     `json:"owner_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AttendeeJoinedPayload struct {
	EventID       int64 `json:"event_id"`
	UserID        int64 `json:"user_id"`
	AttendeeCount int   `json:"attendee_count"`
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "publishing event", "subject", subject)

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(m *nats.Msg) {
		handler(&Message{Subject: m.Subject, Data: m.Data, Timestamp: time.Now()})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(m *nats.Msg) {
		handler(&Message{Subject: m.Subject, Data: m.Data, Timestamp: time.Now()})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// NoopEventBus is used when NATS is not configured; publishes are dropped.
type NoopEventBus struct{}

func (NoopEventBus) Publish(context.Context, string, interface{}) error          { return nil }
func (NoopEventBus) Subscribe(string, func(msg *Message)) error                  { return nil }
func (NoopEventBus) QueueSubscribe(string, string, func(msg *Message)) error     { return nil }
func (NoopEventBus) Close() error                                                { return nil }
