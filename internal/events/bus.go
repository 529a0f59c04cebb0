// Package events provides the change feed the store core exposes to
// presentation code: subscribers get a "data changed" signal after every
// successful commit and re-pull state through the repository. Subscription
// is explicit; there is no process-wide broadcast channel and no
// notification-name string matching.
package events

import "sync"

// Op identifies what kind of commit produced a change event.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpImport Op = "import"
)

// Change is one committed mutation. ID is the affected todo for single-row
// ops and zero for the bulk import.
type Change struct {
	Op Op
	ID int64
}

// subscriberBuffer bounds each subscriber channel. Publish never blocks; a
// subscriber that falls this far behind starts losing events and must
// re-pull, which is safe because events carry no payload to act on.
const subscriberBuffer = 8

// Bus fans committed-change notifications out to subscribers.
// The zero value is ready to use.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

// Subscribe registers a listener. The returned cancel func unregisters and
// closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]chan Change)
	}
	id := b.next
	b.next++
	ch := make(chan Change, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers c to every subscriber without blocking. Events to a full
// subscriber buffer are dropped.
func (b *Bus) Publish(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
