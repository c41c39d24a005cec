package usecase

import (
	"sync"
	"time"

	"evervoice/internal/ports"
)

const defaultTickInterval = time.Second

// warningFraction of the budget at which the one-shot warning fires.
const warningFraction = 0.8

// DurationTracker drives the per-session elapsed counter off a periodic
// tick. Two independent one-shot latches derive from the counter: a
// warning at 80% of the budget and an auto-stop at 100%. Each fires
// exactly once per session no matter how many ticks land past its
// threshold.
//
// The tick goroutine is cancelled on pause, stop and teardown; a dangling
// tick would corrupt the next session's counter.
type DurationTracker struct {
	events ports.EventSink

	mu            sync.Mutex
	budgetSeconds int
	interval      time.Duration
	elapsed       int
	warningFired  bool
	maxFired      bool
	stop          chan struct{}

	onTick       func(elapsedSeconds, remainingSeconds int, warning bool)
	onWarning    func(elapsedSeconds int)
	onMaxReached func()
}

func NewDurationTracker(budgetSeconds int, interval time.Duration, events ports.EventSink) *DurationTracker {
	if budgetSeconds <= 0 {
		budgetSeconds = 300
	}
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &DurationTracker{
		events:        events,
		budgetSeconds: budgetSeconds,
		interval:      interval,
	}
}

// OnTick registers a callback invoked on every tick, after the counter
// advances.
func (t *DurationTracker) OnTick(fn func(elapsedSeconds, remainingSeconds int, warning bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTick = fn
}

// OnWarning registers the one-shot 80% threshold callback.
func (t *DurationTracker) OnWarning(fn func(elapsedSeconds int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onWarning = fn
}

// OnMaxReached registers the one-shot budget-exhausted callback. It runs
// on its own goroutine so the callback may stop the tracker.
func (t *DurationTracker) OnMaxReached(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMaxReached = fn
}

// SetBudget changes the session budget. Only honored between sessions; a
// running tracker keeps its budget until the next Start.
func (t *DurationTracker) SetBudget(budgetSeconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil || budgetSeconds <= 0 {
		return
	}
	t.budgetSeconds = budgetSeconds
}

// Start resets the counter and both latches and begins ticking.
func (t *DurationTracker) Start() {
	t.mu.Lock()
	t.cancelLocked()
	t.elapsed = 0
	t.warningFired = false
	t.maxFired = false
	ch := make(chan struct{})
	t.stop = ch
	interval := t.interval
	t.mu.Unlock()

	go t.loop(ch, interval)
}

// Pause cancels the tick loop, keeping the counter and latches.
func (t *DurationTracker) Pause() {
	t.mu.Lock()
	t.cancelLocked()
	t.mu.Unlock()
}

// Resume restarts the tick loop after a pause.
func (t *DurationTracker) Resume() {
	t.mu.Lock()
	if t.stop != nil {
		t.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	t.stop = ch
	interval := t.interval
	t.mu.Unlock()

	go t.loop(ch, interval)
}

// Stop cancels the tick loop. The final counter stays readable.
func (t *DurationTracker) Stop() {
	t.mu.Lock()
	t.cancelLocked()
	t.mu.Unlock()
}

func (t *DurationTracker) cancelLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *DurationTracker) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

func (t *DurationTracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remainingLocked()
}

func (t *DurationTracker) remainingLocked() int {
	remaining := t.budgetSeconds - t.elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (t *DurationTracker) WarningFired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.warningFired
}

func (t *DurationTracker) loop(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.tick()
		case <-stop:
			return
		}
	}
}

// tick advances the counter one second and evaluates both thresholds. The
// warning latch and the auto-stop latch are deliberately separate: each
// must fire exactly once per session regardless of tick granularity.
func (t *DurationTracker) tick() {
	t.mu.Lock()
	t.elapsed++
	elapsed := t.elapsed
	remaining := t.remainingLocked()

	fireWarning := false
	if !t.warningFired && float64(elapsed) >= warningFraction*float64(t.budgetSeconds) {
		t.warningFired = true
		fireWarning = true
	}
	warning := t.warningFired

	fireMax := false
	if !t.maxFired && elapsed >= t.budgetSeconds {
		t.maxFired = true
		fireMax = true
	}

	onTick := t.onTick
	onWarning := t.onWarning
	onMax := t.onMaxReached
	t.mu.Unlock()

	if onTick != nil {
		onTick(elapsed, remaining, warning)
	}
	t.events.DurationTick(elapsed, remaining, warning)
	if fireWarning && onWarning != nil {
		onWarning(elapsed)
	}
	if fireMax && onMax != nil {
		go onMax()
	}
}
