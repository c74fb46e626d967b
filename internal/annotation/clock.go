package annotation

import "time"

// Ticker is a cancellable repeating tick source.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Stopper cancels a pending one-shot callback.
type Stopper interface {
	Stop() bool
}

// Clock produces the tick sources and delayed callbacks used by the timer and the
// status board.
type Clock interface {
	NewTicker(d time.Duration) Ticker
	AfterFunc(d time.Duration, f func()) Stopper
}

type realClock struct{}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return realClock{}
}

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

func (realClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
