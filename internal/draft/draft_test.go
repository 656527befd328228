package draft

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classyai/internal/lead"
	"classyai/internal/transport"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

type recordingTransport struct {
	mu       sync.Mutex
	payloads []lead.Payload
	outcome  transport.Outcome
	block    chan struct{}
	entered  chan struct{}
}

func (r *recordingTransport) Strategy() transport.Strategy { return transport.StrategyHTTP }

func (r *recordingTransport) Submit(ctx context.Context, p lead.Payload) transport.Result {
	r.mu.Lock()
	r.payloads = append(r.payloads, p)
	r.mu.Unlock()
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	return transport.Result{Outcome: r.outcome}
}

type brokenStore struct{}

func (brokenStore) Load(context.Context, string) (string, error) {
	return "", errors.New("storage disabled")
}

func (brokenStore) Save(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	text, err := store.Load(ctx, Key("v1"))
	require.NoError(t, err)
	assert.Equal(t, "", text)

	require.NoError(t, store.Save(ctx, Key("v1"), "abc"))
	got, err := mr.Get("classyai_startup_story:v1")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
	assert.Zero(t, mr.TTL("classyai_startup_story:v1"))
}

func TestPad_SurvivesReload(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	pad := NewPad(store, Key("v1"), "classy@stayclassy.ai")
	_, err := pad.Restore(ctx)
	require.NoError(t, err)
	require.NoError(t, pad.Set(ctx, "abc"))

	reloaded := NewPad(store, Key("v1"), "classy@stayclassy.ai")
	text, err := reloaded.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", text)

	require.NoError(t, reloaded.Clear(ctx))
	again := NewPad(store, Key("v1"), "classy@stayclassy.ai")
	text, err = again.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestPad_DraftsAreIsolatedPerKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, NewPad(store, Key("a"), "").Set(ctx, "mine"))
	text, err := NewPad(store, Key("b"), "").Restore(ctx)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestPad_SendPackagesStory(t *testing.T) {
	ctx := context.Background()
	pad := NewPad(NewMemoryStore(), Key("v1"), "classy@stayclassy.ai")
	require.NoError(t, pad.Set(ctx, "We started in a dorm room."))

	tr := &recordingTransport{outcome: transport.OutcomeSucceeded}
	res, err := pad.Send(ctx, tr)

	require.NoError(t, err)
	assert.True(t, res.OK())
	require.Len(t, tr.payloads, 1)
	assert.Equal(t, lead.Payload{
		Email:   "classy@stayclassy.ai",
		Message: "Startup Story Submission:\n\nWe started in a dorm room.",
		Source:  lead.SourceStory,
	}, tr.payloads[0])
	assert.Equal(t, "We started in a dorm room.", pad.Text(), "sending keeps the draft")
}

func TestPad_BlankDraftCannotBeSent(t *testing.T) {
	ctx := context.Background()
	pad := NewPad(NewMemoryStore(), Key("v1"), "classy@stayclassy.ai")
	require.NoError(t, pad.Set(ctx, "   \n"))

	assert.False(t, pad.CanSend())
	tr := &recordingTransport{}
	_, err := pad.Send(ctx, tr)
	assert.ErrorIs(t, err, ErrNothingToSend)
	assert.Empty(t, tr.payloads)
}

func TestPad_SendDisabledWhileInFlight(t *testing.T) {
	ctx := context.Background()
	pad := NewPad(NewMemoryStore(), Key("v1"), "classy@stayclassy.ai")
	require.NoError(t, pad.Set(ctx, "story"))

	tr := &recordingTransport{
		outcome: transport.OutcomeFailed,
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}

	done := make(chan transport.Result)
	go func() {
		res, _ := pad.Send(ctx, tr)
		done <- res
	}()
	<-tr.entered

	assert.False(t, pad.CanSend())
	assert.True(t, pad.Sending())
	_, err := pad.Send(ctx, tr)
	assert.ErrorIs(t, err, ErrSendInFlight)

	close(tr.block)
	res := <-done
	assert.False(t, res.OK())
	assert.True(t, pad.CanSend(), "send re-enabled after failure")
	assert.Len(t, tr.payloads, 1)
}

func TestPad_StorageFailurePropagates(t *testing.T) {
	pad := NewPad(brokenStore{}, Key("v1"), "")
	ctx := context.Background()

	_, err := pad.Restore(ctx)
	assert.Error(t, err)
	assert.Error(t, pad.Set(ctx, "abc"))
	assert.Equal(t, "", pad.Text(), "failed write leaves the previous text")
}

func TestPad_SendLoadsSavedDraft(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, Key("v1"), "written by another replica"))

	pad := NewPad(store, Key("v1"), "classy@stayclassy.ai")
	tr := &recordingTransport{outcome: transport.OutcomeSucceeded}
	_, err := pad.Send(ctx, tr)

	require.NoError(t, err)
	require.Len(t, tr.payloads, 1)
	assert.Equal(t, "Startup Story Submission:\n\nwritten by another replica", tr.payloads[0].Message)
	assert.Equal(t, "written by another replica", pad.Text())
}

func TestPad_SendAppliesPrepare(t *testing.T) {
	ctx := context.Background()
	pad := NewPad(NewMemoryStore(), Key("v1"), "classy@stayclassy.ai")
	require.NoError(t, pad.Set(ctx, "story"))

	tr := &recordingTransport{outcome: transport.OutcomeSucceeded}
	_, err := pad.Send(ctx, tr, func(p *lead.Payload) { p.Honeypot = "bot" })

	require.NoError(t, err)
	require.Len(t, tr.payloads, 1)
	assert.Equal(t, "bot", tr.payloads[0].Honeypot)
}

func TestPad_SendLoadFailurePropagates(t *testing.T) {
	pad := NewPad(brokenStore{}, Key("v1"), "")
	tr := &recordingTransport{}

	_, err := pad.Send(context.Background(), tr)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNothingToSend)
	assert.Empty(t, tr.payloads)
}
