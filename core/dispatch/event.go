package dispatch

// ProcessIDKey is the exception item carrying the id of the saga (long
// running process) the failed handling belongs to. Commands emitted
// during re-dispatch are stamped with it.
const ProcessIDKey = "process_id"

// Event is a domain event with a stable identity. The event's runtime
// type keys handler lookup and type-code resolution.
type Event interface {
	EventID() string
}

// EventStream is the ordered batch of events that was being processed
// when the exception occurred. Read-only to this package.
type EventStream struct {
	ProcessID string
	Items     map[string]string
	Events    []Event
}

// PublishableException is a recorded failure from a previous
// event-handling attempt. Immutable once constructed.
type PublishableException struct {
	uniqueID string
	items    map[string]string
	stream   EventStream
}

// NewPublishableException constructs an exception. uniqueID must be
// stable and unique per logical failure: it doubles as the routing key
// for the worker pool, so re-deliveries of the same failure serialize
// on one shard. items are copied.
func NewPublishableException(uniqueID string, items map[string]string, stream EventStream) *PublishableException {
	copied := make(map[string]string, len(items))
	for k, v := range items {
		copied[k] = v
	}
	return &PublishableException{
		uniqueID: uniqueID,
		items:    copied,
		stream:   stream,
	}
}

func (e *PublishableException) UniqueID() string { return e.uniqueID }

func (e *PublishableException) Stream() EventStream { return e.stream }

// Item returns the named correlation item.
func (e *PublishableException) Item(key string) (string, bool) {
	v, ok := e.items[key]
	return v, ok
}

// ProcessID returns the process id item, or "" if absent.
func (e *PublishableException) ProcessID() string {
	return e.items[ProcessIDKey]
}
