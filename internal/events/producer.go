package events

import "context"

// Producer emits events to an external broker. Implementations must be safe
// for concurrent use.
type Producer interface {
	Emit(ctx context.Context, event *Event) error
	Close() error
}
