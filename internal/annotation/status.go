package annotation

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	StatusReady        = "Data ready for annotating"
	StatusPaused       = "Annotation paused"
	StatusSubmitError  = "Error submitting your response"
	StatusNoCandidates = "No candidates below threshold"
	StatusFetchError   = "Error fetching candidates"

	// DefaultFlashDuration is how long a success message stays before the board
	// returns to StatusReady.
	DefaultFlashDuration = 3 * time.Second
)

// SuccessStatus is the message published after a successful submission.
func SuccessStatus(score float64) string {
	return "Data successfully annotated with a performance score of " + strconv.FormatFloat(score, 'f', -1, 64)
}

type Badge int

const (
	BadgeReady Badge = iota
	BadgePaused
	BadgeSuccess
	BadgeEmpty
	BadgeError
)

func (b Badge) String() string {
	switch b {
	case BadgeReady:
		return "ready"
	case BadgePaused:
		return "paused"
	case BadgeSuccess:
		return "success"
	case BadgeEmpty:
		return "empty"
	default:
		return "error"
	}
}

// Classify maps a status string to the badge used to render it. Anything that is not
// a known state is an error.
func Classify(status string) Badge {
	switch {
	case status == StatusReady:
		return BadgeReady
	case status == StatusPaused:
		return BadgePaused
	case status == StatusNoCandidates:
		return BadgeEmpty
	case strings.Contains(status, "successfully annotated"):
		return BadgeSuccess
	default:
		return BadgeError
	}
}

// Notifier receives status messages for the presenter.
type Notifier interface {
	Notify(status string)
	// NotifyTransient shows status briefly and then falls back to the resting status.
	NotifyTransient(status string)
}

// StatusBoard holds the current status string and fans it out to subscribers.
type StatusBoard struct {
	mu          sync.Mutex
	clock       Clock
	flashFor    time.Duration
	status      string
	revert      Stopper
	revertTo    string
	subscribers []func(status string)
}

func NewStatusBoard(clock Clock, flashFor time.Duration) *StatusBoard {
	if clock == nil {
		clock = SystemClock()
	}
	if flashFor <= 0 {
		flashFor = DefaultFlashDuration
	}
	return &StatusBoard{clock: clock, flashFor: flashFor, status: StatusReady}
}

func (b *StatusBoard) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Subscribe registers fn for every subsequent status change.
func (b *StatusBoard) Subscribe(fn func(status string)) {
	b.mu.Lock()
	b.subscribers = append(b.subscribers, fn)
	b.mu.Unlock()
}

func (b *StatusBoard) Notify(status string) {
	b.mu.Lock()
	b.cancelRevert()
	subscribers := b.set(status)
	b.mu.Unlock()

	publish(subscribers, status)
}

func (b *StatusBoard) NotifyTransient(status string) {
	b.Flash(status, b.flashFor)
}

// Flash shows status for d and then reverts unless another status arrived in between.
// It reverts to StatusNoCandidates when that was showing before, else to StatusReady.
func (b *StatusBoard) Flash(status string, d time.Duration) {
	b.mu.Lock()
	target := StatusReady
	switch {
	case b.revert != nil:
		target = b.revertTo
	case b.status == StatusNoCandidates:
		target = StatusNoCandidates
	}
	b.cancelRevert()
	subscribers := b.set(status)

	var revert Stopper
	revert = b.clock.AfterFunc(d, func() {
		b.mu.Lock()
		if b.revert != revert {
			b.mu.Unlock()
			return
		}
		b.revert = nil
		subscribers := b.set(target)
		b.mu.Unlock()

		publish(subscribers, target)
	})
	b.revert = revert
	b.revertTo = target
	b.mu.Unlock()

	publish(subscribers, status)
}

// Close cancels a pending revert.
func (b *StatusBoard) Close() {
	b.mu.Lock()
	b.cancelRevert()
	b.mu.Unlock()
}

func (b *StatusBoard) set(status string) []func(string) {
	b.status = status
	return slices.Clone(b.subscribers)
}

func (b *StatusBoard) cancelRevert() {
	if b.revert != nil {
		b.revert.Stop()
		b.revert = nil
	}
}

func publish(subscribers []func(string), status string) {
	for _, fn := range subscribers {
		fn(status)
	}
}
