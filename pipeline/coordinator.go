package pipeline

import (
	"context"
	"sync"
)

// Coordinator is the refresh coordination state owned by one client: a refreshing flag
// plus a FIFO queue of waiters. At most one caller leads a refresh at any time; every
// caller that observes a refresh in flight queues behind it.
type Coordinator struct {
	mu         sync.Mutex
	refreshing bool
	waiters    []*waiter
	// episode counts refreshes started; loggedOut is the last episode that ended in a forced logout.
	episode   uint64
	loggedOut uint64
}

type waiter struct {
	req     *Request
	episode uint64
	done    chan error
}

// NewCoordinator returns an idle coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// acquire either makes the caller the leader of a new refresh episode (leader == true) or
// queues req behind the episode in flight. episode identifies the refresh the caller depends on.
func (c *Coordinator) acquire(req *Request) (w *waiter, leader bool, episode uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.refreshing {
		c.refreshing = true
		c.episode++
		return nil, true, c.episode
	}
	w = &waiter{req: req, episode: c.episode, done: make(chan error, 1)}
	c.waiters = append(c.waiters, w)
	return w, false, c.episode
}

// current returns the most recent refresh episode, or 0 when there is none or it already
// ended in a forced logout.
func (c *Coordinator) current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.episode == c.loggedOut {
		return 0
	}
	return c.episode
}

// claimLogout reports whether the caller is the first to end the session for episode.
// Episode 0 belongs to no refresh and is always claimed.
func (c *Coordinator) claimLogout(episode uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if episode == 0 {
		return true
	}
	if episode <= c.loggedOut {
		return false
	}
	c.loggedOut = episode
	return true
}

// release returns the coordinator to idle and settles every queued waiter in order
// with err (nil means the refresh succeeded). It returns the number of waiters settled.
func (c *Coordinator) release(err error) int {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	c.mu.Unlock()

	for _, w := range waiters {
		w.done <- err
	}
	return len(waiters)
}

// wait blocks until the refresh settles or ctx ends. The buffered channel lets the
// coordinator settle a waiter that already gave up without blocking.
func (w *waiter) wait(ctx context.Context) error {
	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refreshing reports whether a refresh is in flight.
func (c *Coordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// Pending returns the number of queued waiters.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
