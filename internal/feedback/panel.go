package feedback

import "sync"

// Panel is the open/closed slot of a collapsible surface such as the chat widget.
type Panel struct {
	mu   sync.Mutex
	open bool
}

func (p *Panel) SetOpen(open bool) {
	p.mu.Lock()
	p.open = open
	p.mu.Unlock()
}

func (p *Panel) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = !p.open
	return p.open
}

func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}
