package transport

import (
	"context"
	"net/url"
	"strings"

	"classyai/internal/lead"
	"classyai/pkg/metrics"
)

// MailTransport hands the submission to the visitor's mail client through a
// mailto: URI. It has no way to learn whether anything was sent.
type MailTransport struct {
	address string
}

func NewMailTransport(address string) *MailTransport {
	return &MailTransport{address: address}
}

func (t *MailTransport) Strategy() Strategy { return StrategyMail }

func (t *MailTransport) Submit(_ context.Context, p lead.Payload) Result {
	subject, body := lead.Compose(p)
	metrics.RecordTransportLatency(string(StrategyMail), "handoff", 0)
	return Result{Outcome: OutcomeHandedOff, HandoffURL: MailtoURI(t.address, subject, body)}
}

// MailtoURI builds mailto:{address}?subject=..&body=.. with the same escaping
// browsers apply through encodeURIComponent.
func MailtoURI(address, subject, body string) string {
	return "mailto:" + address + "?subject=" + encodeURIComponent(subject) + "&body=" + encodeURIComponent(body)
}

var uriComponentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeURIComponent(s string) string {
	return uriComponentUnescape.Replace(url.QueryEscape(s))
}
