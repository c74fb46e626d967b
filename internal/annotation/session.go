package annotation

import (
	"context"
	"sync"

	"github.com/kdimtricp/medannotate/internal/models"
	"go.uber.org/zap"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhasePaused
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

// Result is the completed annotation handed to the Submitter.
type Result struct {
	ItemID       string
	Task         string
	Text         string
	AnnotateTime int
	Performance  float64
	Reason       string
}

// Submitter persists a completed annotation of item.
type Submitter interface {
	Submit(ctx context.Context, item models.MedicalText, result Result) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, item models.MedicalText, result Result) error

func (f SubmitterFunc) Submit(ctx context.Context, item models.MedicalText, result Result) error {
	return f(ctx, item, result)
}

// Snapshot is a read-only copy of the session for presenters.
type Snapshot struct {
	Item     *models.MedicalText
	Text     string
	Reason   string
	Elapsed  int
	Phase    Phase
	InFlight bool
}

func (s Snapshot) CanStart() bool  { return s.Item != nil && s.Phase == PhaseIdle }
func (s Snapshot) CanPause() bool  { return s.Phase == PhaseRunning }
func (s Snapshot) CanResume() bool { return s.Phase == PhasePaused }
func (s Snapshot) CanEdit() bool   { return s.Phase == PhaseRunning }
func (s Snapshot) CanSubmit() bool { return s.Phase == PhaseRunning && !s.InFlight }

// Session drives one candidate through edit, timing, scoring and submission.
type Session struct {
	mu        sync.Mutex
	timer     *Timer
	random    RandomSource
	submitter Submitter
	notifier  Notifier
	logger    *zap.Logger

	current      *models.MedicalText
	editableText string
	reason       string
	phase        Phase
	inFlight     bool
	// generation changes on every Assign so a late submit response for a previous
	// candidate cannot touch the new one.
	generation uint64
}

type SessionOption func(*Session)

func WithSessionClock(clock Clock) SessionOption {
	return func(s *Session) { s.timer = NewTimer(clock) }
}

func WithRandomSource(r RandomSource) SessionOption {
	return func(s *Session) { s.random = r }
}

func WithNotifier(n Notifier) SessionOption {
	return func(s *Session) { s.notifier = n }
}

func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

func NewSession(submitter Submitter, opts ...SessionOption) *Session {
	s := &Session{submitter: submitter}
	for _, opt := range opts {
		opt(s)
	}
	if s.timer == nil {
		s.timer = NewTimer(nil)
	}
	if s.random == nil {
		s.random = WallClockRandom()
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("session")
	return s
}

// Timer exposes the session's stopwatch.
func (s *Session) Timer() *Timer {
	return s.timer
}

// Assign makes item the current candidate and resets all per-candidate state. It is
// allowed in any phase; a running timer is abandoned.
func (s *Session) Assign(item models.MedicalText) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timer.Reset()
	s.current = &item
	s.editableText = item.Text
	s.reason = ""
	s.phase = PhaseIdle
	s.inFlight = false
	s.generation++

	s.logger.Debug("candidate assigned", zap.String("item_id", item.ID))
}

// Clear drops the current candidate.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timer.Reset()
	s.current = nil
	s.editableText = ""
	s.reason = ""
	s.phase = PhaseIdle
	s.inFlight = false
	s.generation++

	s.logger.Debug("session cleared")
}

func (s *Session) Edit(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseRunning {
		return ErrInvalidPhase
	}
	s.editableText = text
	return nil
}

func (s *Session) SetReason(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoCandidate
	}
	if s.phase == PhaseSubmitting {
		return ErrInvalidPhase
	}
	s.reason = text
	return nil
}

func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoCandidate
	}
	if s.phase != PhaseIdle {
		return ErrInvalidPhase
	}
	s.timer.Start()
	s.phase = PhaseRunning

	s.logger.Debug("annotation started", zap.String("item_id", s.current.ID))
	return nil
}

func (s *Session) Pause() error {
	s.mu.Lock()
	if s.phase != PhaseRunning {
		s.mu.Unlock()
		return ErrInvalidPhase
	}
	s.timer.Pause()
	s.phase = PhasePaused
	s.mu.Unlock()

	s.notifier.Notify(StatusPaused)
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	if s.phase != PhasePaused {
		s.mu.Unlock()
		return ErrInvalidPhase
	}
	s.timer.Resume()
	s.phase = PhaseRunning
	s.mu.Unlock()

	s.notifier.Notify(StatusReady)
	return nil
}

// Submit stops the clock, scores the work and hands the result to the Submitter.
// It is rejected without side effects unless the session is running with no
// submission in flight. On failure the session goes back to running from the
// captured elapsed time and keeps the reason.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return Result{}, ErrNoCandidate
	}
	if s.inFlight {
		s.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	}
	if s.phase != PhaseRunning {
		s.mu.Unlock()
		return Result{}, ErrInvalidPhase
	}

	elapsed := s.timer.Stop()
	s.phase = PhaseSubmitting
	s.inFlight = true

	result := Result{
		ItemID:       s.current.ID,
		Task:         s.current.Task,
		Text:         s.editableText,
		AnnotateTime: elapsed,
		Performance:  PerformanceScore(s.random),
		Reason:       s.reason,
	}
	item := *s.current
	generation := s.generation
	s.mu.Unlock()

	s.logger.Info("submitting annotation",
		zap.String("item_id", result.ItemID),
		zap.Int("annotate_time", result.AnnotateTime),
		zap.Float64("performance", result.Performance),
	)

	err := s.submitter.Submit(ctx, item, result)

	s.mu.Lock()
	stale := generation != s.generation
	if !stale {
		s.inFlight = false
		if err != nil {
			s.phase = PhaseRunning
			s.timer.Start()
		} else {
			// Nobody re-armed the session, so the finished candidate goes back to idle.
			s.reason = ""
			s.phase = PhaseIdle
			s.timer.Reset()
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("submission failed", zap.String("item_id", result.ItemID), zap.Error(err))
		s.notifier.Notify(StatusSubmitError)
		return result, err
	}

	s.notifier.NotifyTransient(SuccessStatus(result.Performance))
	return result, nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Text:     s.editableText,
		Reason:   s.reason,
		Elapsed:  s.timer.Elapsed(),
		Phase:    s.phase,
		InFlight: s.inFlight,
	}
	if s.current != nil {
		item := *s.current
		snap.Item = &item
	}
	return snap
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Close cancels the timer's tick source.
func (s *Session) Close() {
	s.timer.Close()
}

type nopNotifier struct{}

func (nopNotifier) Notify(string)          {}
func (nopNotifier) NotifyTransient(string) {}
