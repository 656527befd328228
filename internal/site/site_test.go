package site

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classyai/internal/draft"
	"classyai/internal/lead"
	"classyai/internal/transport"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTransport struct {
	mu       sync.Mutex
	payloads []lead.Payload
	outcome  transport.Outcome
	entered  chan struct{}
	release  chan struct{}
}

func (f *fakeTransport) Strategy() transport.Strategy { return transport.StrategyHTTP }

func (f *fakeTransport) Submit(ctx context.Context, p lead.Payload) transport.Result {
	f.mu.Lock()
	f.payloads = append(f.payloads, p)
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return transport.Result{Outcome: f.outcome}
}

func (f *fakeTransport) calls() []lead.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]lead.Payload(nil), f.payloads...)
}

type testSite struct {
	router  *Router
	store   draft.Store
	visitor string
}

func newTestSite(t *testing.T, tr transport.Transport, store draft.Store) *testSite {
	t.Helper()
	if store == nil {
		store = draft.NewMemoryStore()
	}
	page := DefaultPage()
	registry := NewRegistry(store, page.Inbox, time.Hour, time.Minute)
	submitter := NewSubmitter(tr, lead.NewSpamGuard(), page, zap.NewNop())
	h := NewHandler(page, registry, submitter, zap.NewNop())
	return &testSite{
		router:  NewRouter(h, nil, false),
		store:   store,
		visitor: uuid.NewString(),
	}
}

func (s *testSite) do(t *testing.T, method, path string, body string, contentType string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, BasePath+path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: s.visitor})
	w := httptest.NewRecorder()
	s.router.Engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (s *testSite) postForm(t *testing.T, path string, values url.Values) (*httptest.ResponseRecorder, map[string]any) {
	return s.do(t, http.MethodPost, path, values.Encode(), "application/x-www-form-urlencoded")
}

func (s *testSite) putDraft(t *testing.T, text string) (*httptest.ResponseRecorder, map[string]any) {
	body, _ := json.Marshal(map[string]string{"text": text})
	return s.do(t, http.MethodPut, "/startup-story/draft", string(body), "application/json")
}

func toastText(t *testing.T, body map[string]any) string {
	t.Helper()
	toast, ok := body["toast"].(map[string]any)
	if !ok {
		return ""
	}
	return toast["text"].(string)
}

func TestContactForm_SuccessClearsFieldsAndShowsToast(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeSucceeded}
	s := newTestSite(t, tr, nil)

	w, body := s.postForm(t, "/forms/contact", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"hello"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "succeeded", body["outcome"])
	assert.Equal(t, "Thanks! You're on the list.", toastText(t, body))

	form := body["form"].(map[string]any)
	assert.Empty(t, form["fields"])
	assert.Equal(t, false, form["in_flight"])

	calls := tr.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, lead.Payload{Email: "ada@example.com", Message: "hello", Source: lead.SourceContact, Name: "Ada"}, calls[0])
}

func TestContactForm_WaitlistSignup(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeSucceeded}
	s := newTestSite(t, tr, nil)

	w, _ := s.postForm(t, "/forms/contact", url.Values{"email": {"a@b.co"}})
	require.Equal(t, http.StatusOK, w.Code)

	calls := tr.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "New waitlist signup from: a@b.co", calls[0].Message)
}

func TestContactForm_HoneypotIsForwardedUnchanged(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeSucceeded}
	s := newTestSite(t, tr, nil)

	w, _ := s.postForm(t, "/forms/contact", url.Values{
		"email":                 {"a@b.co"},
		"message":               {"hi"},
		"confirm_email_address": {"bot@spam.io"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	calls := tr.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "bot@spam.io", calls[0].Honeypot)
}

func TestContactForm_InvalidEmailNeverReachesTransport(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeSucceeded}
	s := newTestSite(t, tr, nil)

	w, body := s.postForm(t, "/forms/contact", url.Values{"email": {"not-an-email"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_email", body["error"])
	assert.Empty(t, tr.calls())
}

func TestChat_FailureKeepsFieldsAndPanel(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeFailed}
	s := newTestSite(t, tr, nil)

	w, _ := s.do(t, http.MethodPost, "/chat/open", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	w, body := s.postForm(t, "/forms/chat", url.Values{
		"chatEmail":   {"ada@example.com"},
		"chatMessage": {"are you hiring?"},
	})

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "failed", body["outcome"])
	assert.Equal(t, "Couldn't send your message. Please try again.", toastText(t, body))
	assert.Equal(t, true, body["chat_open"])

	form := body["form"].(map[string]any)
	fields := form["fields"].(map[string]any)
	assert.Equal(t, "ada@example.com", fields["chatEmail"])
	assert.Equal(t, "are you hiring?", fields["chatMessage"])
	assert.Equal(t, false, form["in_flight"])
}

func TestChat_SuccessClosesPanel(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeSucceeded}
	s := newTestSite(t, tr, nil)

	_, body := s.do(t, http.MethodPost, "/chat/toggle", "", "")
	require.Equal(t, true, body["chat_open"])

	w, body := s.postForm(t, "/forms/chat", url.Values{
		"chatEmail":   {"ada@example.com"},
		"chatMessage": {"hi"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["chat_open"])
	assert.Equal(t, "Message sent! We'll get back to you soon.", toastText(t, body))

	calls := tr.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, lead.SourceChat, calls[0].Source)
}

func TestChat_MessageRequired(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeSucceeded}
	s := newTestSite(t, tr, nil)

	w, body := s.postForm(t, "/forms/chat", url.Values{"chatEmail": {"ada@example.com"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "message_required", body["error"])
	assert.Empty(t, tr.calls())
}

func TestContactForm_SecondSubmitWhileInFlightIsRejected(t *testing.T) {
	tr := &fakeTransport{
		outcome: transport.OutcomeSucceeded,
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := newTestSite(t, tr, nil)
	values := url.Values{"email": {"a@b.co"}, "message": {"once"}}

	done := make(chan int, 1)
	go func() {
		w, _ := s.postForm(t, "/forms/contact", values)
		done <- w.Code
	}()
	<-tr.entered

	w, body := s.postForm(t, "/forms/contact", values)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "submission_in_progress", body["error"])

	close(tr.release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.Len(t, tr.calls(), 1)
}

func TestMailStrategy_HandsOffWithoutToast(t *testing.T) {
	s := newTestSite(t, transport.NewMailTransport("classy@stayclassy.ai"), nil)

	w, body := s.postForm(t, "/forms/contact", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"hello there"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "handed_off", body["outcome"])
	assert.Nil(t, body["toast"])
	assert.True(t, strings.HasPrefix(body["handoff_url"].(string), "mailto:classy@stayclassy.ai?subject="))
	assert.Contains(t, body["handoff_url"], "hello%20there")
}

func TestDismissToast(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeFailed}
	s := newTestSite(t, tr, nil)

	s.postForm(t, "/forms/contact", url.Values{"email": {"a@b.co"}})
	_, home := s.do(t, http.MethodGet, "/", "", "")
	require.NotEmpty(t, toastText(t, home))

	w, _ := s.do(t, http.MethodDelete, "/toast", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, home = s.do(t, http.MethodGet, "/", "", "")
	assert.Nil(t, home["toast"])
}

func TestStory_DraftSurvivesReload(t *testing.T) {
	store := draft.NewMemoryStore()
	s := newTestSite(t, &fakeTransport{}, store)

	w, body := s.putDraft(t, "We started in a garage.")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(len("We started in a garage.")), body["characters"])
	assert.Equal(t, true, body["can_send"])

	// A fresh site over the same store sees the same visitor's draft.
	reloaded := newTestSite(t, &fakeTransport{}, store)
	reloaded.visitor = s.visitor
	w, body = reloaded.do(t, http.MethodGet, "/startup-story", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "We started in a garage.", body["draft"])

	w, body = reloaded.do(t, http.MethodDelete, "/startup-story/draft", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", body["draft"])
	assert.Equal(t, false, body["can_send"])

	saved, err := store.Load(context.Background(), draft.Key(s.visitor))
	require.NoError(t, err)
	assert.Equal(t, "", saved)
}

func TestStory_SendBlankDraftIsRejected(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeSucceeded}
	s := newTestSite(t, tr, nil)

	s.putDraft(t, "   ")
	w, body := s.do(t, http.MethodPost, "/startup-story/send", "", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "nothing_to_send", body["error"])
	assert.Empty(t, tr.calls())
}

func TestStory_SendAcknowledges(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeSucceeded}
	s := newTestSite(t, tr, nil)

	s.putDraft(t, "Our story")
	w, body := s.do(t, http.MethodPost, "/startup-story/send", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Story sent to classy@stayclassy.ai ✨", body["ack"])
	assert.Equal(t, "Our story", body["draft"])

	calls := tr.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Startup Story Submission:\n\nOur story", calls[0].Message)
	assert.Equal(t, "classy@stayclassy.ai", calls[0].Email)
	assert.Equal(t, lead.SourceStory, calls[0].Source)
}

func TestStory_SendFailure(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeFailed}
	s := newTestSite(t, tr, nil)

	s.putDraft(t, "Our story")
	w, body := s.do(t, http.MethodPost, "/startup-story/send", "", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to send story. Please try again.", body["ack"])
	assert.Equal(t, true, body["can_send"])
}

func TestVisitorCookieIsIssued(t *testing.T) {
	s := newTestSite(t, &fakeTransport{}, nil)

	req := httptest.NewRequest(http.MethodGet, BasePath+"/", nil)
	w := httptest.NewRecorder()
	s.router.Engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var issued *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == VisitorCookie {
			issued = c
		}
	}
	require.NotNil(t, issued)
	assert.NoError(t, uuid.Validate(issued.Value))
	assert.True(t, issued.HttpOnly)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestSite(t, &fakeTransport{}, nil)

	for _, path := range []string{"/healthz", "/health", "/readyz"} {
		w := httptest.NewRecorder()
		s.router.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRegistry_EvictsIdleViews(t *testing.T) {
	r := NewRegistry(draft.NewMemoryStore(), "inbox@x.io", time.Hour, time.Minute)
	now := time.Now()
	r.now = func() time.Time { return now }

	r.Get("a")
	r.Get("b")
	require.Equal(t, 2, r.Len())

	now = now.Add(2 * time.Hour)
	r.Get("b")
	assert.Equal(t, 1, r.Len())
}

func TestStory_UsesStoryTransportOnMailDeployments(t *testing.T) {
	store := draft.NewMemoryStore()
	page := DefaultPage()
	story := &fakeTransport{outcome: transport.OutcomeSucceeded}
	submitter := NewSubmitter(transport.NewMailTransport(page.ContactEmail), lead.NewSpamGuard(), page, zap.NewNop()).
		WithStoryTransport(story)
	registry := NewRegistry(store, page.Inbox, time.Hour, time.Minute)
	s := &testSite{
		router:  NewRouter(NewHandler(page, registry, submitter, zap.NewNop()), nil, false),
		store:   store,
		visitor: uuid.NewString(),
	}

	s.putDraft(t, "From a mail deployment")
	w, body := s.do(t, http.MethodPost, "/startup-story/send", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "succeeded", body["outcome"])
	require.Len(t, story.calls(), 1)
	assert.Equal(t, lead.SourceStory, story.calls()[0].Source)
}

func TestStory_HoneypotIsForwardedUnchanged(t *testing.T) {
	tr := &fakeTransport{outcome: transport.OutcomeSucceeded}
	s := newTestSite(t, tr, nil)

	s.putDraft(t, "Our story")
	w, _ := s.postForm(t, "/startup-story/send", url.Values{lead.DefaultHoneypotField: {" bot@spam.io"}})

	require.Equal(t, http.StatusOK, w.Code)
	calls := tr.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, " bot@spam.io", calls[0].Honeypot)
	assert.Equal(t, "Startup Story Submission:\n\nOur story", calls[0].Message)
}

func TestStory_SendsStoredDraftWithoutPageLoad(t *testing.T) {
	store := draft.NewMemoryStore()
	tr := &fakeTransport{outcome: transport.OutcomeSucceeded}
	s := newTestSite(t, tr, store)
	require.NoError(t, store.Save(context.Background(), draft.Key(s.visitor), "Saved before restart"))

	w, body := s.do(t, http.MethodPost, "/startup-story/send", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Saved before restart", body["draft"])
	assert.Equal(t, true, body["can_send"])
	calls := tr.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Startup Story Submission:\n\nSaved before restart", calls[0].Message)
}

func TestStory_CharactersCountLikeABrowser(t *testing.T) {
	s := newTestSite(t, &fakeTransport{}, nil)

	_, body := s.putDraft(t, "go 🚀")

	assert.Equal(t, float64(5), body["characters"])
}
