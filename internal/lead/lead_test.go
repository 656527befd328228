package lead

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_ContactForm(t *testing.T) {
	values := url.Values{
		"name":    {"Ada"},
		"email":   {" ada@example.com "},
		"message": {"Hello there"},
	}

	p := Collect(SourceContact, values)

	assert.Equal(t, Payload{Name: "Ada", Email: "ada@example.com", Message: "Hello there", Source: SourceContact}, p)
}

func TestCollect_WaitlistSynthesizesMessage(t *testing.T) {
	p := Collect(SourceContact, url.Values{"email": {"a@b.com"}})

	assert.Equal(t, "New waitlist signup from: a@b.com", p.Message)
}

func TestCollect_ChatFieldNames(t *testing.T) {
	p := Collect(SourceChat, url.Values{
		"chatEmail":   {"x@y.com"},
		"chatMessage": {"hi"},
		"email":       {"ignored@example.com"},
	})

	assert.Equal(t, "x@y.com", p.Email)
	assert.Equal(t, "hi", p.Message)
	assert.Equal(t, SourceChat, p.Source)
}

func TestCollect_MissingFieldsDefaultToEmpty(t *testing.T) {
	p := Collect(SourceChat, url.Values{})

	assert.Empty(t, p.Email)
	assert.Empty(t, p.Message)
	assert.Empty(t, p.Honeypot)
}

func TestSpamGuard_PropagatesHoneypotUnchanged(t *testing.T) {
	values := url.Values{"email": {"bot@spam.io"}, DefaultHoneypotField: {"  bot@spam.io "}}
	p := Collect(SourceContact, values)

	NewSpamGuard().Apply(values, &p)

	assert.Equal(t, "  bot@spam.io ", p.Honeypot)
	assert.True(t, Flagged(p))

	body, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"confirm_email_address":"  bot@spam.io "`)
}

func TestSpamGuard_EmptyHoneypotOmittedFromJSON(t *testing.T) {
	values := url.Values{"email": {"a@b.com"}}
	p := Collect(SourceContact, values)
	SpamGuard{}.Apply(values, &p)

	assert.False(t, Flagged(p))
	body, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "confirm_email_address")
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("a@b.com"))
	assert.ErrorIs(t, ValidateEmail(""), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("not-an-email"), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("a@"), ErrInvalidEmail)
}

func TestParseSource(t *testing.T) {
	s, err := ParseSource("story")
	require.NoError(t, err)
	assert.Equal(t, SourceStory, s)

	_, err = ParseSource("newsletter")
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestCompose(t *testing.T) {
	subject, body := Compose(Payload{Name: "Ada", Email: "ada@example.com", Message: "Hi", Source: SourceContact})
	assert.Equal(t, "New message from Classy AI contact form", subject)
	assert.Equal(t, "Name: Ada\nEmail: ada@example.com\n\nMessage:\nHi", body)

	subject, body = Compose(Payload{Email: "x@y.com", Message: "hi", Source: SourceChat})
	assert.Equal(t, "New message from Classy AI chat bubble", subject)
	assert.Equal(t, "From chat widget\nEmail: x@y.com\n\nMessage:\nhi", body)

	subject, body = Compose(Payload{Email: "classy@stayclassy.ai", Message: "Startup Story Submission:\n\nOnce", Source: SourceStory})
	assert.Equal(t, "New startup story from Classy AI", subject)
	assert.Equal(t, "Startup Story Submission:\n\nOnce", body)
}

func TestCompose_CarriesHoneypot(t *testing.T) {
	_, body := Compose(Payload{Email: "bot@spam.io", Message: "buy", Source: SourceChat, Honeypot: "bot@spam.io"})
	assert.Equal(t, "From chat widget\nEmail: bot@spam.io\n\nMessage:\nbuy\n\nconfirm_email_address: bot@spam.io", body)
}
