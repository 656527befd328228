package draft

import (
	"context"
	"errors"
	"strings"
	"sync"

	"classyai/internal/lead"
	"classyai/internal/transport"
	"classyai/pkg/metrics"
)

var (
	ErrNothingToSend = errors.New("draft is empty")
	ErrSendInFlight  = errors.New("draft send already in flight")
)

const storyPrefix = "Startup Story Submission:\n\n"

// Pad is one visitor's story draft.
type Pad struct {
	store Store
	key   string
	inbox string

	mu      sync.Mutex
	text    string
	loaded  bool
	sending bool
}

// NewPad binds a draft to its storage key. inbox is the address a sent story
// is filed under.
func NewPad(store Store, key, inbox string) *Pad {
	return &Pad{store: store, key: key, inbox: inbox}
}

// Restore loads the saved draft, "" when nothing was saved.
func (p *Pad) Restore(ctx context.Context) (string, error) {
	text, err := p.store.Load(ctx, p.key)
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	p.text = text
	p.loaded = true
	p.mu.Unlock()
	return text, nil
}

// ensureLoaded reads the saved draft the first time the pad is used, so a
// pad created after a restart or on another replica sees the stored text.
// Callers hold p.mu.
func (p *Pad) ensureLoaded(ctx context.Context) error {
	if p.loaded {
		return nil
	}
	text, err := p.store.Load(ctx, p.key)
	if err != nil {
		return err
	}
	p.text = text
	p.loaded = true
	return nil
}

func (p *Pad) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

// Set replaces the draft and persists it before returning.
func (p *Pad) Set(ctx context.Context, text string) error {
	return p.write(ctx, "set", text)
}

func (p *Pad) Clear(ctx context.Context) error {
	return p.write(ctx, "clear", "")
}

func (p *Pad) write(ctx context.Context, op, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Save(ctx, p.key, text); err != nil {
		metrics.IncrementDraftWrite(op, "error")
		return err
	}
	p.text = text
	p.loaded = true
	metrics.IncrementDraftWrite(op, "ok")
	return nil
}

// CanSend is false for a blank draft or while a send is in flight.
func (p *Pad) CanSend() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.sending && strings.TrimSpace(p.text) != ""
}

func (p *Pad) Sending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sending
}

// Send submits the current draft once as a story lead. Each prepare func may
// amend the payload before it is handed to tr. The draft itself is kept
// either way.
func (p *Pad) Send(ctx context.Context, tr transport.Transport, prepare ...func(*lead.Payload)) (transport.Result, error) {
	p.mu.Lock()
	if p.sending {
		p.mu.Unlock()
		return transport.Result{}, ErrSendInFlight
	}
	if err := p.ensureLoaded(ctx); err != nil {
		p.mu.Unlock()
		return transport.Result{}, err
	}
	if strings.TrimSpace(p.text) == "" {
		p.mu.Unlock()
		return transport.Result{}, ErrNothingToSend
	}
	p.sending = true
	payload := lead.Payload{
		Email:   p.inbox,
		Message: storyPrefix + p.text,
		Source:  lead.SourceStory,
	}
	p.mu.Unlock()

	for _, fn := range prepare {
		fn(&payload)
	}

	defer func() {
		p.mu.Lock()
		p.sending = false
		p.mu.Unlock()
	}()

	return tr.Submit(ctx, payload), nil
}
