package track

import (
	"sync"

	"github.com/lumen-dev/lumen/pkg/store"
)

// Consumer ties one rendering unit to a store.
// It owns the unit's read set and fires its trigger whenever an update
// touches a key the unit has read. Consumer implements store.Listener.
type Consumer struct {
	id      uint64
	store   *store.Store
	trigger Trigger

	// mu protects reads.
	mu    sync.Mutex
	reads map[string]struct{}
}

// NewConsumer creates a consumer for the given store and trigger.
// The consumer observes nothing until Mount is called.
func NewConsumer(s *store.Store, trigger Trigger) *Consumer {
	return &Consumer{
		id:      store.NextListenerID(),
		store:   s,
		trigger: trigger,
		reads:   make(map[string]struct{}),
	}
}

// Mount registers the consumer with its store.
func (c *Consumer) Mount() {
	c.store.Subscribe(c)
}

// Unmount unregisters the consumer and discards its read set.
func (c *Consumer) Unmount() {
	c.store.Unsubscribe(c)

	c.mu.Lock()
	c.reads = nil
	c.mu.Unlock()
}

// View returns the tracking accessor for this consumer.
func (c *Consumer) View() *View {
	return &View{c: c}
}

// OnChange implements store.Listener: if any changed key has ever been read
// through this consumer's view, the trigger fires once for the update.
func (c *Consumer) OnChange(diff store.Diff, _ store.State) {
	c.mu.Lock()
	hit := false
	for k := range diff {
		if _, ok := c.reads[k]; ok {
			hit = true
			break
		}
	}
	c.mu.Unlock()

	if hit {
		c.trigger.Invalidate()
	}
}

// ID implements store.Listener.
func (c *Consumer) ID() uint64 { return c.id }

// record adds a key to the read set.
func (c *Consumer) record(key string) {
	c.mu.Lock()
	if c.reads == nil {
		c.reads = make(map[string]struct{})
	}
	c.reads[key] = struct{}{}
	c.mu.Unlock()
}

// View is the read-tracking accessor over a consumer's store.
// Every read records its key as a dependency and returns the store's
// current live value, never a cached copy. A View has no write capability.
type View struct {
	c *Consumer
}

// Get records key as a dependency and returns its current value.
// Absent keys return nil but are still recorded, so an update that later
// introduces the key triggers a re-render.
func (v *View) Get(key string) any {
	v.c.record(key)
	return v.c.store.State()[key]
}

// GetOK is Get with an explicit presence flag.
func (v *View) GetOK(key string) (any, bool) {
	v.c.record(key)
	val, ok := v.c.store.State()[key]
	return val, ok
}

// Keys returns the keys recorded so far, in no particular order.
func (v *View) Keys() []string {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	keys := make([]string, 0, len(v.c.reads))
	for k := range v.c.reads {
		keys = append(keys, k)
	}
	return keys
}
