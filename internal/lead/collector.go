package lead

import (
	"fmt"
	"net/url"
	"strings"
)

// Form field names as they appear on the page.
const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldMessage     = "message"
	FieldChatEmail   = "chatEmail"
	FieldChatMessage = "chatMessage"
)

const waitlistMessage = "New waitlist signup from: %s"

// Collect reads the named fields for the given surface. Absent fields are "".
// A contact submission without a message is a waitlist signup and gets a
// synthesized message.
func Collect(source Source, values url.Values) Payload {
	p := Payload{Source: source}

	switch source {
	case SourceChat:
		p.Email = strings.TrimSpace(values.Get(FieldChatEmail))
		p.Message = values.Get(FieldChatMessage)
	default:
		p.Name = strings.TrimSpace(values.Get(FieldName))
		p.Email = strings.TrimSpace(values.Get(FieldEmail))
		p.Message = values.Get(FieldMessage)
	}

	if source == SourceContact && strings.TrimSpace(p.Message) == "" {
		p.Message = fmt.Sprintf(waitlistMessage, p.Email)
	}

	return p
}

// EmailField returns the field carrying the email address on a surface.
func EmailField(source Source) string {
	if source == SourceChat {
		return FieldChatEmail
	}
	return FieldEmail
}
