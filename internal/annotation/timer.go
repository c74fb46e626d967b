package annotation

import (
	"sync"
	"time"
)

type TimerState int

const (
	TimerStopped TimerState = iota
	TimerRunning
	TimerPaused
)

func (s TimerState) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Timer counts whole seconds of active work. At most one tick source is armed at a
// time and it is cancelled on every transition out of TimerRunning.
type Timer struct {
	mu       sync.Mutex
	clock    Clock
	interval time.Duration
	state    TimerState
	elapsed  int
	onTick   func(elapsed int)

	// generation identifies the armed tick source; ticks from older sources are dropped.
	generation uint64
	ticker     Ticker
	done       chan struct{}
}

func NewTimer(clock Clock) *Timer {
	if clock == nil {
		clock = SystemClock()
	}
	return &Timer{clock: clock, interval: time.Second}
}

// OnTick registers a callback invoked after every counted second. It runs on the tick
// goroutine without the timer lock held.
func (t *Timer) OnTick(fn func(elapsed int)) {
	t.mu.Lock()
	t.onTick = fn
	t.mu.Unlock()
}

// Start begins counting from the current value. It is a no-op while already running
// and reports whether a transition happened.
func (t *Timer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == TimerRunning {
		return false
	}
	t.state = TimerRunning
	t.arm()
	return true
}

func (t *Timer) Pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerRunning {
		return false
	}
	t.disarm()
	t.state = TimerPaused
	return true
}

func (t *Timer) Resume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerPaused {
		return false
	}
	t.state = TimerRunning
	t.arm()
	return true
}

// Stop halts counting and returns the final value in the same critical section as
// the transition. The value stays readable until Reset.
func (t *Timer) Stop() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerStopped {
		t.disarm()
		t.state = TimerStopped
	}
	return t.elapsed
}

// Reset stops the timer and zeroes it.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disarm()
	t.state = TimerStopped
	t.elapsed = 0
}

// Close releases the tick source. The timer must not be used afterwards.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disarm()
	t.state = TimerStopped
}

func (t *Timer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

func (t *Timer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Tick counts one second if the timer is running.
func (t *Timer) Tick() bool {
	t.mu.Lock()
	if t.state != TimerRunning {
		t.mu.Unlock()
		return false
	}
	t.elapsed++
	elapsed, fn := t.elapsed, t.onTick
	t.mu.Unlock()

	if fn != nil {
		fn(elapsed)
	}
	return true
}

func (t *Timer) tickFrom(generation uint64) {
	t.mu.Lock()
	if generation != t.generation || t.state != TimerRunning {
		t.mu.Unlock()
		return
	}
	t.elapsed++
	elapsed, fn := t.elapsed, t.onTick
	t.mu.Unlock()

	if fn != nil {
		fn(elapsed)
	}
}

// arm must be called with t.mu held.
func (t *Timer) arm() {
	t.disarm()
	t.generation++
	ticker := t.clock.NewTicker(t.interval)
	done := make(chan struct{})
	t.ticker, t.done = ticker, done

	go func(generation uint64) {
		for {
			select {
			case <-done:
				return
			case <-ticker.C():
				t.tickFrom(generation)
			}
		}
	}(t.generation)
}

// disarm must be called with t.mu held.
func (t *Timer) disarm() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.done)
	t.ticker, t.done = nil, nil
	t.generation++
}
