package remote

import "sync"

// Connection holds the current actor handle, if any.
type Connection struct {
	mu          sync.RWMutex
	actor       Actor
	subscribers map[chan struct{}]struct{}
}

// NewConnection returns a connection with no actor available.
func NewConnection() *Connection {
	return &Connection{subscribers: make(map[chan struct{}]struct{})}
}

// Actor returns the current handle and whether one is available.
func (c *Connection) Actor() (Actor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actor, c.actor != nil
}

// Available reports whether an actor handle is set.
func (c *Connection) Available() bool {
	_, ok := c.Actor()
	return ok
}

// Set installs actor. Subscribers are notified when this makes the
// connection available.
func (c *Connection) Set(actor Actor) {
	if actor == nil {
		c.Clear()
		return
	}
	c.mu.Lock()
	became := c.actor == nil
	c.actor = actor
	var notify []chan struct{}
	if became {
		notify = make([]chan struct{}, 0, len(c.subscribers))
		for ch := range c.subscribers {
			notify = append(notify, ch)
		}
	}
	c.mu.Unlock()

	for _, ch := range notify {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Clear drops the actor handle.
func (c *Connection) Clear() {
	c.mu.Lock()
	c.actor = nil
	c.mu.Unlock()
}

// Subscribe returns a channel signalled on every unavailable -> available
// transition, plus a function that stops delivery. Signals coalesce.
func (c *Connection) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, ch)
			c.mu.Unlock()
		})
	}
}
