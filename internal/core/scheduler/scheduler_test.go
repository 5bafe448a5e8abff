package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"glucobar/internal/core/model"
	"glucobar/internal/fetch"
)

type stubFetcher struct {
	mu        sync.Mutex
	delay     time.Duration
	result    fetch.Result
	calls     int
	active    int
	maxActive int
}

func (stub *stubFetcher) FetchOnce(_ context.Context) fetch.Result {
	stub.mu.Lock()
	stub.calls++
	stub.active++
	if stub.active > stub.maxActive {
		stub.maxActive = stub.active
	}
	delay := stub.delay
	result := stub.result
	stub.mu.Unlock()

	time.Sleep(delay)

	stub.mu.Lock()
	stub.active--
	stub.mu.Unlock()
	return result
}

func (stub *stubFetcher) setResult(result fetch.Result) {
	stub.mu.Lock()
	stub.result = result
	stub.mu.Unlock()
}

func (stub *stubFetcher) callCount() int {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return stub.calls
}

func (stub *stubFetcher) maxActiveCount() int {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return stub.maxActive
}

func readingResult(value int) fetch.Result {
	return fetch.Result{Reading: &model.Reading{Value: value, Trend: model.TrendSteady, ObservedAt: time.Now()}}
}

func errorResult(kind fetch.Kind) fetch.Result {
	return fetch.Result{Err: &fetch.Error{Kind: kind, Err: errors.New("stub failure")}}
}

func newTestScheduler(fetcher Fetcher, interval time.Duration) *Scheduler {
	defaults := model.DefaultSettings()
	return New(fetcher, defaults.Preferences.Thresholds, defaults.Style, Config{Interval: interval}, zap.NewNop())
}

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case event, ok := <-events:
		require.True(t, ok, "event channel closed")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestCoalescingRunsExactlyTwoFetches(t *testing.T) {
	fetchTime := 100 * time.Millisecond
	fetcher := &stubFetcher{delay: fetchTime, result: readingResult(120)}
	refresher := newTestScheduler(fetcher, time.Hour)
	events := refresher.Subscribe(8)

	refresher.Start()
	time.Sleep(fetchTime / 10)
	refresher.TriggerRefresh()
	refresher.TriggerRefresh()
	refresher.TriggerRefresh()

	waitEvent(t, events)
	waitEvent(t, events)

	// All overlapping triggers coalesce into one follow-up fetch.
	time.Sleep(2 * fetchTime)
	assert.Equal(t, 2, fetcher.callCount())
	assert.Equal(t, 1, fetcher.maxActiveCount(), "fetches must never overlap")

	refresher.Stop()
}

func TestStartTriggersImmediateFetch(t *testing.T) {
	fetcher := &stubFetcher{result: readingResult(120)}
	refresher := newTestScheduler(fetcher, time.Hour)
	events := refresher.Subscribe(4)

	refresher.Start()
	event := waitEvent(t, events)

	assert.Equal(t, EventRender, event.Type)
	assert.Equal(t, "[Normal: 120][→]", event.Payload.Text)
	assert.False(t, event.Payload.Emphasized)

	refresher.Stop()
}

func TestAuthErrorHoldsAutomaticFetches(t *testing.T) {
	fetcher := &stubFetcher{result: errorResult(fetch.KindCredential)}
	refresher := newTestScheduler(fetcher, 20*time.Millisecond)
	events := refresher.Subscribe(8)

	refresher.Start()
	event := waitEvent(t, events)
	assert.Equal(t, EventAuthRequired, event.Type)
	assert.Equal(t, fetch.KindCredential, event.ErrKind)
	assert.Equal(t, "[Err][?]", event.Payload.Text)

	// Ticks while held must not fetch.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, fetcher.callCount())

	// New credentials resume the cadence immediately.
	fetcher.setResult(readingResult(95))
	refresher.Resume()
	event = waitEvent(t, events)
	assert.Equal(t, EventRender, event.Type)
	assert.Equal(t, "[Normal: 95][→]", event.Payload.Text)

	refresher.Stop()
}

func TestManualRefreshBypassesAuthHold(t *testing.T) {
	fetcher := &stubFetcher{result: errorResult(fetch.KindAuth)}
	refresher := newTestScheduler(fetcher, time.Hour)
	events := refresher.Subscribe(8)

	refresher.Start()
	waitEvent(t, events)

	refresher.TriggerRefresh()
	waitEvent(t, events)
	assert.Equal(t, 2, fetcher.callCount())

	refresher.Stop()
}

func TestTransientErrorKeepsTicking(t *testing.T) {
	fetcher := &stubFetcher{result: errorResult(fetch.KindTransient)}
	refresher := newTestScheduler(fetcher, 20*time.Millisecond)
	events := refresher.Subscribe(16)

	refresher.Start()
	first := waitEvent(t, events)
	assert.Equal(t, EventRender, first.Type, "transient errors never require credentials")

	second := waitEvent(t, events)
	assert.Equal(t, fetch.KindTransient, second.ErrKind)

	refresher.Stop()
}

func TestErrorEventCarriesLastGoodPayload(t *testing.T) {
	fetcher := &stubFetcher{result: readingResult(120)}
	refresher := newTestScheduler(fetcher, time.Hour)
	events := refresher.Subscribe(8)

	refresher.Start()
	good := waitEvent(t, events)
	require.Equal(t, "[Normal: 120][→]", good.Payload.Text)
	assert.False(t, good.HasLastGood)

	fetcher.setResult(errorResult(fetch.KindTransient))
	refresher.TriggerRefresh()
	failed := waitEvent(t, events)

	assert.Equal(t, "[Err][?]", failed.Payload.Text)
	assert.True(t, failed.HasLastGood)
	assert.Equal(t, "[Normal: 120][→]", failed.LastGood.Text)

	refresher.Stop()
}

func TestUpdateConfigReformatsLastOutcome(t *testing.T) {
	fetcher := &stubFetcher{result: readingResult(200)}
	refresher := newTestScheduler(fetcher, time.Hour)
	events := refresher.Subscribe(8)

	refresher.Start()
	first := waitEvent(t, events)
	require.Equal(t, "[High: 200][↑]", first.Payload.Text)
	require.True(t, first.Payload.Emphasized)

	style := model.DefaultSettings().Style
	style.ShowBrackets = false
	refresher.UpdateConfig(model.Thresholds{Low: 70, High: 250}, style)

	second := waitEvent(t, events)
	assert.Equal(t, "Normal: 200 →", second.Payload.Text)
	assert.False(t, second.Payload.Emphasized)
	assert.Equal(t, 1, fetcher.callCount(), "a config update must not fetch")

	refresher.Stop()
}

func TestStopDeliversInFlightResult(t *testing.T) {
	fetcher := &stubFetcher{delay: 50 * time.Millisecond, result: readingResult(110)}
	refresher := newTestScheduler(fetcher, time.Hour)
	events := refresher.Subscribe(4)

	refresher.Start()
	time.Sleep(10 * time.Millisecond)
	refresher.Stop()

	event := waitEvent(t, events)
	assert.Equal(t, "[Normal: 110][→]", event.Payload.Text)

	_, open := <-events
	assert.False(t, open, "subscribers close once the in-flight fetch settles")
}

func TestStartAfterStopIsNoOp(t *testing.T) {
	fetcher := &stubFetcher{result: readingResult(100)}
	refresher := newTestScheduler(fetcher, time.Hour)
	events := refresher.Subscribe(4)

	refresher.Start()
	waitEvent(t, events)
	refresher.Stop()

	refresher.Start()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, fetcher.callCount(), "stop is terminal")
}

func TestStopDropsPendingTrigger(t *testing.T) {
	fetcher := &stubFetcher{delay: 50 * time.Millisecond, result: readingResult(110)}
	refresher := newTestScheduler(fetcher, time.Hour)
	events := refresher.Subscribe(4)

	refresher.Start()
	time.Sleep(10 * time.Millisecond)
	refresher.TriggerRefresh()
	refresher.Stop()

	waitEvent(t, events)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, fetcher.callCount(), "pending coalesced trigger is dropped on stop")
}
