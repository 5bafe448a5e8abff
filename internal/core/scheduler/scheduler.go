// Package scheduler drives the periodic and on-demand fetch cadence.
// Its central invariant: at most one fetch is in flight at any moment,
// and overlapping triggers coalesce into a single follow-up fetch.
package scheduler

import (
	"context"
	"sync"
	"time"

	"glucobar/internal/core/format"
	"glucobar/internal/core/model"
	"glucobar/internal/fetch"

	"go.uber.org/zap"
)

// DefaultInterval is the refresh cadence used when none is configured.
const DefaultInterval = 300 * time.Second

// Fetcher performs one remote read.
type Fetcher interface {
	FetchOnce(ctx context.Context) fetch.Result
}

// Config contains runtime options for the Scheduler.
type Config struct {
	Interval time.Duration
}

// Scheduler owns the fetch lifecycle and the last display payload.
type Scheduler struct {
	mu         sync.Mutex
	fetcher    Fetcher
	thresholds model.Thresholds
	style      model.StyleConfig
	options    Config
	events     []chan Event
	stopCh     chan struct{}
	log        *zap.Logger

	running       bool
	stopped       bool
	inFlight      bool
	pending       bool
	authHold      bool
	closeOnSettle bool
	lastResult    fetch.Result
	hasResult     bool
	lastGood      model.DisplayPayload
	hasLastGood   bool
}

// New creates a scheduler with the provided formatting configuration.
func New(fetcher Fetcher, thresholds model.Thresholds, style model.StyleConfig, options Config, log *zap.Logger) *Scheduler {
	if options.Interval <= 0 {
		options.Interval = DefaultInterval
	}
	return &Scheduler{
		fetcher:    fetcher,
		thresholds: thresholds,
		style:      style,
		options:    options,
		stopCh:     make(chan struct{}),
		log:        log,
	}
}

// Subscribe registers a new observer channel.
func (scheduler *Scheduler) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	scheduler.mu.Lock()
	scheduler.events = append(scheduler.events, ch)
	scheduler.mu.Unlock()
	return ch
}

// Start launches the ticking loop and triggers one immediate fetch.
// A stopped scheduler cannot be restarted; Start after Stop is a no-op.
func (scheduler *Scheduler) Start() {
	scheduler.mu.Lock()
	if scheduler.running || scheduler.stopped {
		scheduler.mu.Unlock()
		return
	}
	scheduler.running = true
	scheduler.mu.Unlock()

	go scheduler.run()
	scheduler.TriggerRefresh()
}

// Stop halts the timer and closes the subscriber channels once any
// in-flight fetch settles; that fetch is not cancelled and delivers its
// last payload. A pending coalesced trigger is dropped. Stop is
// terminal: the scheduler cannot be started again afterwards.
func (scheduler *Scheduler) Stop() {
	scheduler.mu.Lock()
	if !scheduler.running {
		scheduler.mu.Unlock()
		return
	}
	scheduler.running = false
	scheduler.stopped = true
	scheduler.pending = false
	close(scheduler.stopCh)

	if scheduler.inFlight {
		scheduler.closeOnSettle = true
		scheduler.mu.Unlock()
		return
	}
	scheduler.closeSubscribersLocked()
	scheduler.mu.Unlock()
}

// TriggerRefresh requests an out-of-cadence fetch. It bypasses the
// authentication hold: a manual request is always attempted.
func (scheduler *Scheduler) TriggerRefresh() {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if !scheduler.running {
		return
	}
	scheduler.requestFetchLocked()
}

// Resume clears the authentication hold after a credential change and
// fetches immediately with the new account.
func (scheduler *Scheduler) Resume() {
	scheduler.mu.Lock()
	scheduler.authHold = false
	running := scheduler.running
	if running {
		scheduler.requestFetchLocked()
	}
	scheduler.mu.Unlock()
}

// UpdateConfig replaces the formatting configuration and immediately
// re-formats the last known outcome so the display reflects the change
// without waiting for the next fetch.
func (scheduler *Scheduler) UpdateConfig(thresholds model.Thresholds, style model.StyleConfig) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	scheduler.thresholds = thresholds
	scheduler.style = style
	if !scheduler.hasResult {
		return
	}
	scheduler.emitResultLocked(scheduler.lastResult, false)
}

func (scheduler *Scheduler) run() {
	ticker := time.NewTicker(scheduler.options.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-scheduler.stopCh:
			return
		case <-ticker.C:
			scheduler.onTick()
		}
	}
}

func (scheduler *Scheduler) onTick() {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if !scheduler.running {
		return
	}
	if scheduler.authHold {
		scheduler.log.Debug("tick skipped, waiting for credentials")
		return
	}
	scheduler.requestFetchLocked()
}

// requestFetchLocked enforces the single-in-flight invariant: a trigger
// arriving during a fetch is coalesced into exactly one follow-up.
func (scheduler *Scheduler) requestFetchLocked() {
	if scheduler.inFlight {
		scheduler.pending = true
		return
	}
	scheduler.inFlight = true
	go scheduler.runFetch()
}

func (scheduler *Scheduler) runFetch() {
	result := scheduler.fetcher.FetchOnce(context.Background())
	scheduler.complete(result)
}

func (scheduler *Scheduler) complete(result fetch.Result) {
	scheduler.mu.Lock()
	scheduler.lastResult = result
	scheduler.hasResult = true
	scheduler.emitResultLocked(result, true)

	if scheduler.pending && scheduler.running {
		scheduler.pending = false
		go scheduler.runFetch()
		scheduler.mu.Unlock()
		return
	}

	scheduler.inFlight = false
	if scheduler.closeOnSettle {
		scheduler.closeOnSettle = false
		scheduler.closeSubscribersLocked()
	}
	scheduler.mu.Unlock()
}

// emitResultLocked formats the outcome and fans it out. Events leave in
// completion order because every emit happens under the mutex.
func (scheduler *Scheduler) emitResultLocked(result fetch.Result, fresh bool) {
	payload := format.Format(result, scheduler.thresholds, scheduler.style)

	event := Event{
		Type:    EventRender,
		Payload: payload,
		At:      time.Now(),
	}

	if result.Err != nil {
		event.ErrKind = result.Err.Kind
		event.LastGood = scheduler.lastGood
		event.HasLastGood = scheduler.hasLastGood
		if fresh && (result.Err.Kind == fetch.KindCredential || result.Err.Kind == fetch.KindAuth) {
			scheduler.authHold = true
			event.Type = EventAuthRequired
		}
	} else {
		scheduler.lastGood = payload
		scheduler.hasLastGood = true
	}

	scheduler.emitLocked(event)
}

func (scheduler *Scheduler) emitLocked(event Event) {
	for _, ch := range scheduler.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func (scheduler *Scheduler) closeSubscribersLocked() {
	for _, ch := range scheduler.events {
		close(ch)
	}
	scheduler.events = nil
}
