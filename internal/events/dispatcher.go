package events

import (
	"slices"
	"sync"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
)

// Dispatcher queues notifications from any goroutine and delivers them later,
// in order, on whichever goroutine calls DrainAndDeliver. It implements
// Observer so producers can treat it as the sink.
type Dispatcher struct {
	mu      sync.Mutex
	pending []func(Observer)

	subsMu sync.RWMutex
	subs   []subscriptionEntry
	nextID int
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers an observer for future deliveries.
func (d *Dispatcher) Subscribe(observer Observer) Subscription {
	if d == nil || observer == nil {
		return noopSubscription{}
	}
	d.subsMu.Lock()
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscriptionEntry{id: id, observer: observer})
	d.subsMu.Unlock()

	return subscription{
		cancel: func() {
			d.subsMu.Lock()
			defer d.subsMu.Unlock()
			d.subs = slices.DeleteFunc(d.subs, func(e subscriptionEntry) bool { return e.id == id })
		},
	}
}

// Pending returns the number of queued notifications.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// DrainAndDeliver takes everything queued so far and delivers it to the
// observers subscribed at this moment. Notifications queued during delivery
// wait for the next call. It returns the number of notifications delivered.
func (d *Dispatcher) DrainAndDeliver() int {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	d.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	d.subsMu.RLock()
	observers := make([]Observer, len(d.subs))
	for i, entry := range d.subs {
		observers[i] = entry.observer
	}
	d.subsMu.RUnlock()

	for _, deliver := range batch {
		for _, o := range observers {
			deliver(o)
		}
	}
	return len(batch)
}

func (d *Dispatcher) enqueue(fn func(Observer)) {
	d.mu.Lock()
	d.pending = append(d.pending, fn)
	d.mu.Unlock()
}

// WorkflowStarted queues the start of a workflow with its command names.
func (d *Dispatcher) WorkflowStarted(commands []string) {
	commands = slices.Clone(commands)
	d.enqueue(func(o Observer) { o.WorkflowStarted(slices.Clone(commands)) })
}

// CommandStarted queues the start of the command at index.
func (d *Dispatcher) CommandStarted(index int, name string) {
	d.enqueue(func(o Observer) { o.CommandStarted(index, name) })
}

// CommandEnded queues the successful end of the command at index.
func (d *Dispatcher) CommandEnded(index int, name string) {
	d.enqueue(func(o Observer) { o.CommandEnded(index, name) })
}

// BatchStarted queues the start of a batch of size entities.
func (d *Dispatcher) BatchStarted(kind workflow.EntityKind, size int) {
	d.enqueue(func(o Observer) { o.BatchStarted(kind, size) })
}

// ItemStarted queues the start of one entity.
func (d *Dispatcher) ItemStarted(kind workflow.EntityKind, name string) {
	d.enqueue(func(o Observer) { o.ItemStarted(kind, name) })
}

// ItemEnded queues the end of one entity.
func (d *Dispatcher) ItemEnded(kind workflow.EntityKind, name string) {
	d.enqueue(func(o Observer) { o.ItemEnded(kind, name) })
}

// BatchEnded queues the end of the current batch.
func (d *Dispatcher) BatchEnded(kind workflow.EntityKind) {
	d.enqueue(func(o Observer) { o.BatchEnded(kind) })
}

// WorkflowEnded queues the end of the workflow.
func (d *Dispatcher) WorkflowEnded() {
	d.enqueue(func(o Observer) { o.WorkflowEnded() })
}

// Error queues a step failure.
func (d *Dispatcher) Error(event ErrorEvent) {
	d.enqueue(func(o Observer) { o.Error(event) })
}

var _ Observer = (*Dispatcher)(nil)

// Subscription represents a registered observer. Call Unsubscribe to stop
// receiving notifications.
type Subscription interface {
	Unsubscribe()
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type subscription struct {
	cancel func()
}

func (s subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

type subscriptionEntry struct {
	id       int
	observer Observer
}
