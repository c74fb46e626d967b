package annotation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kdimtricp/medannotate/internal/models"
)

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// fakeClock hands out tickers that only fire when the test sends on them and runs
// AfterFunc callbacks when Advance moves past their deadline.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Duration
	tickers []*fakeTicker
	timers  []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{}
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// activeTickers counts tickers that were created and not stopped.
func (c *fakeClock) activeTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

func (c *fakeClock) lastTicker() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

// fixedRandom always draws n.
type fixedRandom int

func (f fixedRandom) IntN(int) int { return int(f) }

type submitCall struct {
	item   models.MedicalText
	result Result
}

type recordingSubmitter struct {
	mu    sync.Mutex
	calls []submitCall
	err   error
}

func (r *recordingSubmitter) Submit(_ context.Context, item models.MedicalText, result Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, submitCall{item: item, result: result})
	return r.err
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type recordingNotifier struct {
	mu        sync.Mutex
	statuses  []string
	transient []string
}

func (n *recordingNotifier) Notify(status string) {
	n.mu.Lock()
	n.statuses = append(n.statuses, status)
	n.mu.Unlock()
}

func (n *recordingNotifier) NotifyTransient(status string) {
	n.mu.Lock()
	n.statuses = append(n.statuses, status)
	n.transient = append(n.transient, status)
	n.mu.Unlock()
}

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.statuses) == 0 {
		return ""
	}
	return n.statuses[len(n.statuses)-1]
}

// memoryStore is an in-memory candidate store with the same filtering as the
// server: confidence <= threshold, ascending, truncated to limit.
type memoryStore struct {
	mu        sync.Mutex
	items     map[string]models.MedicalText
	order     []string
	created   []models.CreateTextRequest
	updated   map[string]models.UpdateTextRequest
	fetches   int
	fetchErr  error
	createErr error
	updateErr error
	nextID    int
}

func newMemoryStore(items ...models.MedicalText) *memoryStore {
	s := &memoryStore{items: map[string]models.MedicalText{}, updated: map[string]models.UpdateTextRequest{}}
	for _, item := range items {
		s.items[item.ID] = item
		s.order = append(s.order, item.ID)
	}
	return s
}

func (s *memoryStore) FetchCandidates(_ context.Context, threshold float64, limit int) ([]models.MedicalText, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []models.MedicalText
	for _, id := range s.order {
		item := s.items[id]
		if item.ConfidenceAtMost(threshold) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Confidence < *out[j].Confidence })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) CreateAnnotation(_ context.Context, req models.CreateTextRequest) (*models.MedicalText, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, req)
	record := models.NewAnnotatedText(req.Text, req.Task, req.Annotator, req.AnnotateReason, req.AnnotateTime, req.Performance)
	s.items[record.ID] = *record
	s.order = append(s.order, record.ID)
	return record, nil
}

func (s *memoryStore) UpdateText(_ context.Context, id string, req models.UpdateTextRequest) (*models.MedicalText, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	item, ok := s.items[id]
	if !ok {
		return nil, &ValidationError{Message: "unknown id " + id}
	}
	s.updated[id] = req
	if req.Text != nil {
		item.Text = *req.Text
	}
	if req.AnnotateTime != nil {
		item.AnnotateTime = req.AnnotateTime
	}
	if req.Confidence != nil {
		item.Confidence = req.Confidence
	}
	s.items[id] = item
	return &item, nil
}

func (s *memoryStore) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func text(id string, confidence float64) models.MedicalText {
	return models.MedicalText{ID: id, Text: "text " + id, Task: "task " + id, Confidence: models.Float(confidence)}
}

func ids(items []models.MedicalText) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
