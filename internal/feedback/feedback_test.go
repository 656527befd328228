package feedback

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classyai/internal/transport"
)

func TestNotifier_DefaultDismissIsFourSeconds(t *testing.T) {
	assert.Equal(t, 4*time.Second, DismissAfter)
	assert.Equal(t, DismissAfter, NewNotifier(0).ttl)
}

func TestNotifier_AutoDismisses(t *testing.T) {
	n := NewNotifier(30 * time.Millisecond)
	n.Show(KindSuccess, "sent")

	require.NotNil(t, n.Current())
	assert.Eventually(t, func() bool { return n.Current() == nil }, time.Second, 5*time.Millisecond)
}

func TestNotifier_NewToastReplacesPending(t *testing.T) {
	n := NewNotifier(200 * time.Millisecond)
	n.Show(KindSuccess, "first")
	time.Sleep(120 * time.Millisecond)
	n.Show(KindError, "second")

	cur := n.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "second", cur.Text)
	assert.Equal(t, KindError, cur.Kind)

	// the first toast's timer must not clear the second one
	time.Sleep(100 * time.Millisecond)
	cur = n.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "second", cur.Text)

	assert.Eventually(t, func() bool { return n.Current() == nil }, time.Second, 5*time.Millisecond)
}

func TestNotifier_Dismiss(t *testing.T) {
	n := NewNotifier(time.Minute)
	n.Show(KindSuccess, "sent")
	n.Dismiss()
	assert.Nil(t, n.Current())
}

func TestForm_InFlightGuard(t *testing.T) {
	var f Form
	values := url.Values{"email": {"a@b.com"}}

	require.True(t, f.Begin(values))
	assert.True(t, f.InFlight())
	assert.False(t, f.Begin(values), "second submit while in flight must be refused")

	f.Finish(false)
	assert.False(t, f.InFlight())
	assert.Equal(t, "a@b.com", f.Values().Get("email"))

	require.True(t, f.Begin(values))
	f.Finish(true)
	assert.Empty(t, f.Values())
}

func TestForm_BeginCopiesValues(t *testing.T) {
	var f Form
	values := url.Values{"email": {"a@b.com"}}
	f.Begin(values)
	values.Set("email", "changed@b.com")

	assert.Equal(t, "a@b.com", f.Snapshot()["email"])
}

func TestPanel(t *testing.T) {
	var p Panel
	assert.False(t, p.IsOpen())
	assert.True(t, p.Toggle())
	p.SetOpen(false)
	assert.False(t, p.IsOpen())
}

func TestPresenter_Success(t *testing.T) {
	n := NewNotifier(time.Minute)
	var form Form
	var panel Panel
	form.Begin(url.Values{"chatEmail": {"x@y.com"}, "chatMessage": {"hi"}})
	panel.SetOpen(true)

	toast := NewPresenter(n).Present(transport.Result{Outcome: transport.OutcomeSucceeded}, Messages{Success: "Message sent!"}, &form, &panel)

	require.NotNil(t, toast)
	assert.Equal(t, KindSuccess, toast.Kind)
	assert.Equal(t, "Message sent!", n.Current().Text)
	assert.Empty(t, form.Values())
	assert.False(t, panel.IsOpen())
	assert.False(t, form.InFlight())
}

func TestPresenter_FailureKeepsFieldsAndPanel(t *testing.T) {
	n := NewNotifier(time.Minute)
	var form Form
	var panel Panel
	form.Begin(url.Values{"chatEmail": {"x@y.com"}, "chatMessage": {"hi"}})
	panel.SetOpen(true)

	toast := NewPresenter(n).Present(transport.Result{Outcome: transport.OutcomeFailed, Err: errors.New("dial tcp: refused")}, Messages{}, &form, &panel)

	require.NotNil(t, toast)
	assert.Equal(t, KindError, toast.Kind)
	assert.Equal(t, DefaultMessages.Failure, toast.Text)
	assert.Equal(t, "hi", form.Values().Get("chatMessage"))
	assert.True(t, panel.IsOpen())
	assert.False(t, form.InFlight())
}

func TestPresenter_HandoffResetsWithoutToast(t *testing.T) {
	n := NewNotifier(time.Minute)
	var form Form
	form.Begin(url.Values{"email": {"a@b.com"}})

	toast := NewPresenter(n).Present(transport.Result{Outcome: transport.OutcomeHandedOff, HandoffURL: "mailto:x"}, Messages{}, &form, nil)

	assert.Nil(t, toast)
	assert.Nil(t, n.Current())
	assert.Empty(t, form.Values())
}
