package site

import (
	"sync"
	"time"

	"classyai/internal/draft"
	"classyai/internal/feedback"
)

// View is one visitor's UI state. Each slot is owned and locked on its own.
type View struct {
	ID string

	Contact   feedback.Form
	Chat      feedback.Form
	ChatPanel feedback.Panel
	Notifier  *feedback.Notifier
	Story     *draft.Pad

	lastSeen time.Time
}

// Registry hands out Views by visitor id and forgets idle ones.
type Registry struct {
	store       draft.Store
	inbox       string
	idleTTL     time.Duration
	notifierTTL time.Duration

	mu        sync.Mutex
	views     map[string]*View
	lastSweep time.Time
	now       func() time.Time
}

func NewRegistry(store draft.Store, inbox string, idleTTL, notifierTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = 24 * time.Hour
	}
	return &Registry{
		store:       store,
		inbox:       inbox,
		idleTTL:     idleTTL,
		notifierTTL: notifierTTL,
		views:       make(map[string]*View),
		now:         time.Now,
	}
}

func (r *Registry) Get(visitorID string) *View {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) > time.Minute {
		r.sweep(now)
		r.lastSweep = now
	}

	v, ok := r.views[visitorID]
	if !ok {
		v = &View{
			ID:       visitorID,
			Notifier: feedback.NewNotifier(r.notifierTTL),
			Story:    draft.NewPad(r.store, draft.Key(visitorID), r.inbox),
		}
		r.views[visitorID] = v
	}
	v.lastSeen = now
	return v
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// sweep drops idle views. Their drafts stay in the store.
func (r *Registry) sweep(now time.Time) {
	for id, v := range r.views {
		if now.Sub(v.lastSeen) > r.idleTTL {
			delete(r.views, id)
		}
	}
}
