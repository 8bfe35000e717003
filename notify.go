package examtrainer

import "sync"

// Notifier fans out change notifications to subscribers. Stores notify
// after committing state, so a subscriber reading back always observes the
// new state.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// Subscribe registers fn to run after every committed mutation and returns
// an unsubscribe function.
func (n *Notifier) Subscribe(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *Notifier) notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
