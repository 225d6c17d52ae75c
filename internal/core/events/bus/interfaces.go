package bus

import "time"

// EventBus is an in-process pub/sub channel between simulation systems and
// the outside world (pose feeds, diagnostics).
//
// Delivery is synchronous: Publish runs handlers in the caller goroutine, in
// no particular order, and joins their errors. Handlers must be quick; the
// simulation tick waits for them.
type EventBus interface {
	// Publish delivers event to every active subscriber of event.Type().
	Publish(event Event) error
	// Subscribe registers handler for eventType.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. A nil sub is ignored.
	Unsubscribe(sub Subscription) error

	// AddObserver registers an observer notified after each delivery.
	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	// Metrics returns a snapshot of the delivery counters.
	Metrics() Metrics
}

// Event is an immutable message carried by the bus.
type Event interface {
	Type() string
	Source() string
	// Frame is the simulation frame the event was raised in.
	Frame() int64
	Timestamp() time.Time
	Data() any
}

type (
	EventHandler func(event Event) error
)

// Subscription is a handle on a registered handler.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel removes the handler. Repeated calls are safe.
	Cancel() error
}

// Observer is told about every delivery. Observers should return quickly.
type Observer interface {
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

// Metrics counts deliveries since the bus was created.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
