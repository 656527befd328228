package lead

import "net/url"

// DefaultHoneypotField is hidden from humans and filled by naive form bots.
const DefaultHoneypotField = "confirm_email_address"

// SpamGuard copies the honeypot value into the payload. It never drops a
// submission: the receiving service decides what to discard.
type SpamGuard struct {
	Field string
}

func NewSpamGuard() SpamGuard {
	return SpamGuard{Field: DefaultHoneypotField}
}

func (g SpamGuard) Apply(values url.Values, p *Payload) {
	p.Honeypot = values.Get(g.field())
}

func (g SpamGuard) field() string {
	if g.Field == "" {
		return DefaultHoneypotField
	}
	return g.Field
}

// Flagged reports whether a payload looks automated.
func Flagged(p Payload) bool {
	return p.Honeypot != ""
}
