package sql

import (
	"context"
	"sync"

	"github.com/syssam/relmap/schema"
)

// Event is a lifecycle point of an update.
type Event string

// Update lifecycle events.
const (
	BeforeUpdate Event = "BeforeUpdate"
	AfterUpdate  Event = "AfterUpdate"
)

// Broadcaster notifies subscribers of update lifecycle events. Broadcast is
// called synchronously on the executing goroutine, inside the transaction
// when one is active.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event, meta *schema.EntityMetadata, values map[string]any)
}

// ListenerFunc type is an adapter which allows the use of ordinary
// functions as Broadcaster.
type ListenerFunc func(context.Context, Event, *schema.EntityMetadata, map[string]any)

// Broadcast calls f(ctx, event, meta, values).
func (f ListenerFunc) Broadcast(ctx context.Context, event Event, meta *schema.EntityMetadata, values map[string]any) {
	f(ctx, event, meta, values)
}

// Listeners is a Broadcaster that fans events out to registered listeners
// in registration order.
type Listeners struct {
	mu        sync.RWMutex
	listeners []Broadcaster
}

// On registers a listener.
func (l *Listeners) On(b Broadcaster) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, b)
}

// Broadcast calls every registered listener.
func (l *Listeners) Broadcast(ctx context.Context, event Event, meta *schema.EntityMetadata, values map[string]any) {
	l.mu.RLock()
	listeners := l.listeners
	l.mu.RUnlock()
	for _, b := range listeners {
		b.Broadcast(ctx, event, meta, values)
	}
}

var (
	_ Broadcaster = (*Listeners)(nil)
	_ Broadcaster = ListenerFunc(nil)
)
