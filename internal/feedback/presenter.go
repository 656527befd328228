package feedback

import "classyai/internal/transport"

type Messages struct {
	Success string `yaml:"success"`
	Failure string `yaml:"failure"`
}

// DefaultMessages are shown when the page config leaves them empty.
var DefaultMessages = Messages{
	Success: "Thanks! We'll be in touch soon.",
	Failure: "Something went wrong. Please try again.",
}

type Presenter struct {
	notifier *Notifier
}

func NewPresenter(n *Notifier) *Presenter {
	return &Presenter{notifier: n}
}

// Present applies one transport outcome to the view. panel may be nil for
// forms that do not live inside a panel.
//
// A handoff shows no toast: the mail client opening is the feedback.
func (p *Presenter) Present(res transport.Result, msgs Messages, form *Form, panel *Panel) *Toast {
	form.Finish(res.OK())

	if res.OK() && panel != nil {
		panel.SetOpen(false)
	}

	switch res.Outcome {
	case transport.OutcomeSucceeded:
		t := p.notifier.Show(KindSuccess, orDefault(msgs.Success, DefaultMessages.Success))
		return &t
	case transport.OutcomeFailed:
		t := p.notifier.Show(KindError, orDefault(msgs.Failure, DefaultMessages.Failure))
		return &t
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
