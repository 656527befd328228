// Package feedback holds the per-view UI state slots a submission outcome
// touches: the toast, the chat panel and the originating form.
package feedback

import (
	"sync"
	"time"
)

// DismissAfter is how long a toast stays up when nobody dismisses it.
const DismissAfter = 4 * time.Second

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Toast struct {
	Kind    Kind      `json:"kind"`
	Text    string    `json:"text"`
	ShownAt time.Time `json:"shown_at"`
}

// Notifier is a single toast slot. A new toast replaces the pending one.
type Notifier struct {
	ttl time.Duration

	mu      sync.Mutex
	current *Toast
	gen     uint64
	timer   *time.Timer
}

func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DismissAfter
	}
	return &Notifier{ttl: ttl}
}

func (n *Notifier) Show(kind Kind, text string) Toast {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}
	n.gen++
	gen := n.gen
	t := Toast{Kind: kind, Text: text, ShownAt: time.Now()}
	n.current = &t
	n.timer = time.AfterFunc(n.ttl, func() { n.expire(gen) })
	return t
}

// expire only clears the toast it was armed for.
func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen == gen {
		n.current = nil
		n.timer = nil
	}
}

// Current returns a copy of the visible toast, or nil.
func (n *Notifier) Current() *Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return nil
	}
	t := *n.current
	return &t
}

func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.gen++
	n.current = nil
}
