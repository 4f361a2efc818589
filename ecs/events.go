package ecs

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

// ContactEventKind identifies contact event types.
type ContactEventKind string

const (
	ContactStarted ContactEventKind = "contact_started"
	ContactStopped ContactEventKind = "contact_stopped"
)

// ContactEvent is emitted when two colliders start or stop touching.
// Collider entities are the entities carrying the Collider descriptors; Body
// entities are the bodies they are attached to.
type ContactEvent struct {
	Kind      ContactEventKind
	ColliderA Entity
	ColliderB Entity
	BodyA     Entity
	BodyB     Entity
	Sensor    bool
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// PushContact wraps a contact event.
func (q *EventQueue) PushContact(evt ContactEvent) {
	q.Push(Event{Type: string(evt.Kind), Data: evt})
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Contacts returns the queued contact events without consuming them.
func (q *EventQueue) Contacts() []ContactEvent {
	if q == nil {
		return nil
	}
	var out []ContactEvent
	for _, evt := range q.items {
		if c, ok := evt.Data.(ContactEvent); ok {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}
