package annotation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kdimtricp/medannotate/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultThreshold = 0.6
	DefaultCapacity  = 10
)

// Fetcher loads candidates from the store: at most limit items with
// confidence <= threshold, least confident first.
type Fetcher interface {
	FetchCandidates(ctx context.Context, threshold float64, limit int) ([]models.MedicalText, error)
}

// Armer is the part of the session the queue drives.
type Armer interface {
	Assign(item models.MedicalText)
	Clear()
}

// Queue keeps the backlog of candidates consistent with the threshold and batch size
// and keeps the session armed with the head item.
type Queue struct {
	mu       sync.Mutex
	fetcher  Fetcher
	session  Armer
	notifier Notifier
	logger   *zap.Logger

	pending   []models.MedicalText
	threshold float64
	capacity  int
	loaded    bool
	// seq stamps fetches; only the response to the latest one is applied.
	seq uint64
}

type QueueOption func(*Queue)

func WithQueueNotifier(n Notifier) QueueOption {
	return func(q *Queue) { q.notifier = n }
}

func WithQueueLogger(logger *zap.Logger) QueueOption {
	return func(q *Queue) { q.logger = logger }
}

func NewQueue(fetcher Fetcher, session Armer, threshold float64, capacity int, opts ...QueueOption) (*Queue, error) {
	if err := validateSettings(threshold, capacity); err != nil {
		return nil, err
	}

	q := &Queue{
		fetcher:   fetcher,
		session:   session,
		threshold: threshold,
		capacity:  capacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.notifier == nil {
		q.notifier = nopNotifier{}
	}
	if q.logger == nil {
		q.logger = zap.NewNop()
	}
	q.logger = q.logger.Named("queue")
	return q, nil
}

func validateSettings(threshold float64, capacity int) error {
	if threshold < 0 || threshold > 1 {
		return &ValidationError{Message: fmt.Sprintf("threshold %v outside [0,1]", threshold)}
	}
	if capacity < 1 {
		return &ValidationError{Message: fmt.Sprintf("capacity %d must be at least 1", capacity)}
	}
	return nil
}

// Refresh replaces the backlog with a fresh fetch and re-arms the session. When a
// newer fetch was issued meanwhile the response is dropped with ErrStaleResponse. On
// failure the backlog is left unchanged.
func (q *Queue) Refresh(ctx context.Context) error {
	q.mu.Lock()
	q.seq++
	seq, threshold, capacity := q.seq, q.threshold, q.capacity
	q.mu.Unlock()

	items, err := q.fetcher.FetchCandidates(ctx, threshold, capacity)

	q.mu.Lock()
	if seq != q.seq {
		q.mu.Unlock()
		q.logger.Debug("dropping superseded fetch", zap.Uint64("seq", seq))
		return ErrStaleResponse
	}
	if err != nil {
		q.mu.Unlock()
		q.logger.Warn("fetch failed", zap.Error(err))
		q.notifier.Notify(StatusFetchError)
		return asStoreError("fetch", err)
	}

	q.pending = eligible(items, threshold, capacity)
	q.loaded = true
	empty := len(q.pending) == 0
	q.armHead()
	q.mu.Unlock()

	q.logger.Info("candidates refreshed",
		zap.Float64("threshold", threshold),
		zap.Int("capacity", capacity),
		zap.Int("received", len(items)),
		zap.Int("pending", len(q.pending)),
	)

	if empty {
		q.notifier.Notify(StatusNoCandidates)
	} else {
		q.notifier.Notify(StatusReady)
	}
	return nil
}

// Configure applies both settings and refreshes once if either changed.
func (q *Queue) Configure(ctx context.Context, threshold float64, capacity int) error {
	if err := validateSettings(threshold, capacity); err != nil {
		return err
	}

	q.mu.Lock()
	unchanged := q.loaded && threshold == q.threshold && capacity == q.capacity
	q.threshold, q.capacity = threshold, capacity
	q.mu.Unlock()

	if unchanged {
		return nil
	}
	return q.Refresh(ctx)
}

func (q *Queue) SetThreshold(ctx context.Context, threshold float64) error {
	return q.Configure(ctx, threshold, q.Capacity())
}

func (q *Queue) SetCapacity(ctx context.Context, capacity int) error {
	return q.Configure(ctx, q.Threshold(), capacity)
}

// Advance retires the annotated item. The updated item goes to the back of the
// backlog when its confidence is still within the current threshold, otherwise it has
// graduated and is dropped. The session is re-armed only when the head changed, so a
// candidate armed by a refresh that raced the submission is left alone. Reports
// whether the item was re-enqueued.
func (q *Queue) Advance(item models.MedicalText) bool {
	q.mu.Lock()

	index := q.remove(item.ID)
	requeued := item.ConfidenceAtMost(q.threshold)
	if requeued {
		q.pending = append(q.pending, item)
	}
	empty := len(q.pending) == 0
	if index == 0 || empty {
		q.armHead()
	}
	q.mu.Unlock()

	q.logger.Info("advanced queue",
		zap.String("item_id", item.ID),
		zap.Bool("requeued", requeued),
		zap.Int("pending", q.Len()),
	)

	if empty {
		q.notifier.Notify(StatusNoCandidates)
	}
	return requeued
}

// Head returns the next candidate or ErrEmptyQueue.
func (q *Queue) Head() (models.MedicalText, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return models.MedicalText{}, ErrEmptyQueue
	}
	return q.pending[0], nil
}

// Pending returns a copy of the backlog, front first.
func (q *Queue) Pending() []models.MedicalText {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.MedicalText(nil), q.pending...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) Threshold() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.threshold
}

func (q *Queue) Capacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.capacity
}

// remove drops the first item with id and returns its index, or -1 when the item is
// no longer pending. Must be called with q.mu held.
func (q *Queue) remove(id string) int {
	for i := range q.pending {
		if q.pending[i].ID == id {
			q.pending = append(q.pending[:i:i], q.pending[i+1:]...)
			return i
		}
	}
	q.logger.Warn("advanced item not pending", zap.String("item_id", id))
	return -1
}

// armHead must be called with q.mu held.
func (q *Queue) armHead() {
	if q.session == nil {
		return
	}
	if len(q.pending) == 0 {
		q.session.Clear()
		return
	}
	q.session.Assign(q.pending[0])
}

// eligible re-validates a fetch: unscored or over-threshold items are dropped, the
// rest is ordered by confidence keeping the store's order for ties, and trimmed to
// capacity.
func eligible(items []models.MedicalText, threshold float64, capacity int) []models.MedicalText {
	out := make([]models.MedicalText, 0, len(items))
	for _, item := range items {
		if item.ConfidenceAtMost(threshold) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Confidence < *out[j].Confidence
	})
	if len(out) > capacity {
		out = out[:capacity]
	}
	return out
}
