package generic

import (
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
)

// =============================================================================
// LISTENERS - Change notification for stateful services
// =============================================================================

// Listener is invoked after a service has rebuilt its derived state.
// Listeners re-read the service's getters; they receive no deltas.
type Listener func()

// Listeners is the subscriber set embedded by calendar.Registry,
// constraint.Engine, resource.Ledger and scenario.Registry.
// The zero value is ready to use.
type Listeners struct {
	mu   sync.Mutex
	subs map[string]Listener
}

// Subscribe registers fn and returns the handle that removes it.
func (l *Listeners) Subscribe(fn Listener) (unsubscribe func()) {
	id := ulid.Make().String()

	l.mu.Lock()
	if l.subs == nil {
		l.subs = make(map[string]Listener)
	}
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

// Notify calls every listener in subscription order.
// The set is snapshotted first so listeners may unsubscribe themselves.
func (l *Listeners) Notify() {
	l.mu.Lock()
	ids := make([]string, 0, len(l.subs))
	for id := range l.subs {
		ids = append(ids, id)
	}
	// ULIDs sort lexically in creation order.
	sort.Strings(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.subs[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}
