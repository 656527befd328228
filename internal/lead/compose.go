package lead

import "fmt"

// Compose renders the email a human reads in the inbox. A filled honeypot is
// appended verbatim so the reader can discard it.
func Compose(p Payload) (subject, body string) {
	subject, body = compose(p)
	if Flagged(p) {
		body += fmt.Sprintf("\n\n%s: %s", DefaultHoneypotField, p.Honeypot)
	}
	return subject, body
}

func compose(p Payload) (subject, body string) {
	switch p.Source {
	case SourceChat:
		return "New message from Classy AI chat bubble",
			fmt.Sprintf("From chat widget\nEmail: %s\n\nMessage:\n%s", p.Email, p.Message)
	case SourceStory:
		return "New startup story from Classy AI", p.Message
	default:
		return "New message from Classy AI contact form",
			fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", p.Name, p.Email, p.Message)
	}
}
