// Package events publishes order and payment notifications after their changes are committed.
// Delivery is best effort: storage stays the source of truth and a failed publish never fails the request.
package events

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated       Type = "orders.created"
	OrderStatusChanged Type = "orders.status_changed"
	OrderCancelled     Type = "orders.cancelled"
	PaymentCompleted   Type = "payments.completed"
	PaymentFailed      Type = "payments.failed"
	PaymentRefunded    Type = "payments.refunded"
)

// AllTypes lists every event type.
var AllTypes = []Type{OrderCreated, OrderStatusChanged, OrderCancelled, PaymentCompleted, PaymentFailed, PaymentRefunded}

// Event is the JSON envelope written to the broker.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

func New(typ Type, payload any) Event {
	return Event{ID: uuid.NewString(), Type: typ, OccurredAt: time.Now().UTC(), Payload: payload}
}

// Publisher delivers an event keyed by its aggregate id.
type Publisher interface {
	Publish(ctx context.Context, key string, e Event) error
}

// Topic returns the broker topic for an event type.
func Topic(prefix string, typ Type) string {
	if prefix == "" {
		return string(typ)
	}
	return prefix + "." + string(typ)
}

// LogPublisher writes events to a logger instead of a broker. Used when no brokers are configured.
type LogPublisher struct {
	logger *log.Logger
	prefix string
}

func NewLogPublisher(prefix string, logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogPublisher{logger: logger, prefix: prefix}
}

func (p *LogPublisher) Publish(_ context.Context, key string, e Event) error {
	p.logger.Printf("event: topic=%s key=%s id=%s", Topic(p.prefix, e.Type), key, e.ID)
	return nil
}

const notifyTimeout = 5 * time.Second

// Notifier is what services hold. A nil *Notifier drops every event.
type Notifier struct {
	pub    Publisher
	logger *log.Logger
}

func NewNotifier(pub Publisher, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Notifier{pub: pub, logger: logger}
}

// Notify publishes synchronously on a context detached from the request, so a client
// disconnect right after commit does not drop the event. Failures are logged only.
func (n *Notifier) Notify(ctx context.Context, key string, typ Type, payload any) {
	if n == nil || n.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	e := New(typ, payload)
	if err := n.pub.Publish(ctx, key, e); err != nil {
		n.logger.Printf("events: publish type=%s key=%s id=%s error=%v", typ, key, e.ID, err)
	}
}
