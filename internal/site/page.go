package site

import "classyai/internal/feedback"

type Feature struct {
	Title string `yaml:"title" json:"title"`
	Body  string `yaml:"body" json:"body"`
}

// PageConfig is the one parameterized landing view. Deployments differ only
// in these values and in the transport strategy.
type PageConfig struct {
	Brand        string    `yaml:"brand" json:"brand"`
	Headline     string    `yaml:"headline" json:"headline"`
	Tagline      string    `yaml:"tagline" json:"tagline"`
	Features     []Feature `yaml:"features" json:"features"`
	ContactEmail string    `yaml:"contact_email" json:"contact_email"`
	// Inbox is the address a startup story is filed under.
	Inbox string `yaml:"inbox" json:"-"`

	ContactMessages feedback.Messages `yaml:"contact_messages" json:"-"`
	ChatMessages    feedback.Messages `yaml:"chat_messages" json:"-"`
}

func DefaultPage() PageConfig {
	return PageConfig{
		Brand:    "Classy AI",
		Headline: "Elevate Your Intelligence",
		Tagline:  "Ethical AI that teaches you how to think, not what to think. Learn computer science the Classy way.",
		Features: []Feature{
			{Title: "Socratic Tutoring", Body: "Guided questions that help you actually understand algorithms and data structures."},
			{Title: "Ethical by Design", Body: "Built to avoid cheating and instead amplify your ability to learn."},
			{Title: "Developer Friendly", Body: "Integrate with your existing study workflows, notes, and problem sets."},
		},
		ContactEmail: "classy@stayclassy.ai",
		Inbox:        "classy@stayclassy.ai",
		ContactMessages: feedback.Messages{
			Success: "Thanks! You're on the list.",
			Failure: "Something went wrong. Please try again.",
		},
		ChatMessages: feedback.Messages{
			Success: "Message sent! We'll get back to you soon.",
			Failure: "Couldn't send your message. Please try again.",
		},
	}
}

// WithDefaults fills anything a partial YAML page block left empty.
func (p PageConfig) WithDefaults() PageConfig {
	def := DefaultPage()
	if p.Brand == "" {
		p.Brand = def.Brand
	}
	if p.Headline == "" {
		p.Headline = def.Headline
	}
	if p.Tagline == "" {
		p.Tagline = def.Tagline
	}
	if len(p.Features) == 0 {
		p.Features = def.Features
	}
	if p.ContactEmail == "" {
		p.ContactEmail = def.ContactEmail
	}
	if p.Inbox == "" {
		p.Inbox = p.ContactEmail
	}
	if p.ContactMessages == (feedback.Messages{}) {
		p.ContactMessages = def.ContactMessages
	}
	if p.ChatMessages == (feedback.Messages{}) {
		p.ChatMessages = def.ChatMessages
	}
	return p
}
