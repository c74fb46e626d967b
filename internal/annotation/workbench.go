package annotation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kdimtricp/medannotate/internal/models"
	"github.com/kdimtricp/medannotate/internal/storage"
	"go.uber.org/zap"
)

// Store is the candidate store as seen by the annotator.
type Store interface {
	Fetcher
	CreateAnnotation(ctx context.Context, req models.CreateTextRequest) (*models.MedicalText, error)
	UpdateText(ctx context.Context, id string, req models.UpdateTextRequest) (*models.MedicalText, error)
}

// Recorder keeps a local copy of submitted work.
type Recorder interface {
	Record(entry storage.Entry) error
}

type WorkbenchConfig struct {
	Threshold float64
	Capacity  int
	Annotator string
	// UpdateSource also writes the result back onto the source item, with the
	// performance score as its new confidence.
	UpdateSource bool
	StoreTimeout time.Duration
	FlashFor     time.Duration
}

// Workbench wires the queue and the session to a store. It is the session's
// Submitter: it persists each result and advances the queue.
type Workbench struct {
	store    Store
	cfg      WorkbenchConfig
	session  *Session
	queue    *Queue
	status   *StatusBoard
	recorder Recorder
	logger   *zap.Logger

	mu sync.Mutex
	// unsynced is the annotation record created for an item whose source update
	// failed. A retry for the same item reuses it instead of posting a duplicate.
	unsynced *unsyncedRecord
}

type unsyncedRecord struct {
	itemID string
	record *models.MedicalText
}

type WorkbenchOption func(*workbenchDeps)

type workbenchDeps struct {
	clock    Clock
	random   RandomSource
	recorder Recorder
	logger   *zap.Logger
}

func WithClock(clock Clock) WorkbenchOption {
	return func(d *workbenchDeps) { d.clock = clock }
}

func WithRandom(r RandomSource) WorkbenchOption {
	return func(d *workbenchDeps) { d.random = r }
}

func WithRecorder(r Recorder) WorkbenchOption {
	return func(d *workbenchDeps) { d.recorder = r }
}

func WithLogger(logger *zap.Logger) WorkbenchOption {
	return func(d *workbenchDeps) { d.logger = logger }
}

func NewWorkbench(store Store, cfg WorkbenchConfig, opts ...WorkbenchOption) (*Workbench, error) {
	deps := workbenchDeps{}
	for _, opt := range opts {
		opt(&deps)
	}
	if deps.clock == nil {
		deps.clock = SystemClock()
	}
	if deps.logger == nil {
		deps.logger = zap.NewNop()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 10 * time.Second
	}

	w := &Workbench{
		store:    store,
		cfg:      cfg,
		status:   NewStatusBoard(deps.clock, cfg.FlashFor),
		recorder: deps.recorder,
		logger:   deps.logger.Named("workbench"),
	}

	sessionOpts := []SessionOption{
		WithSessionClock(deps.clock),
		WithNotifier(w.status),
		WithSessionLogger(deps.logger),
	}
	if deps.random != nil {
		sessionOpts = append(sessionOpts, WithRandomSource(deps.random))
	}
	w.session = NewSession(w, sessionOpts...)

	queue, err := NewQueue(w.timedFetcher(), w.session, cfg.Threshold, cfg.Capacity,
		WithQueueNotifier(w.status),
		WithQueueLogger(deps.logger),
	)
	if err != nil {
		return nil, err
	}
	w.queue = queue

	return w, nil
}

func (w *Workbench) Session() *Session       { return w.session }
func (w *Workbench) Queue() *Queue           { return w.queue }
func (w *Workbench) Status() *StatusBoard    { return w.status }
func (w *Workbench) Config() WorkbenchConfig { return w.cfg }
func (w *Workbench) Refresh(ctx context.Context) error {
	return w.queue.Refresh(ctx)
}

// Submit persists result for item and advances the queue.
func (w *Workbench) Submit(ctx context.Context, item models.MedicalText, result Result) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.StoreTimeout)
	defer cancel()

	created := w.unsyncedFor(item.ID)
	if created == nil {
		var err error
		created, err = w.store.CreateAnnotation(ctx, models.CreateTextRequest{
			Text:           result.Text,
			Task:           item.Task,
			Annotator:      w.cfg.Annotator,
			AnnotateReason: result.Reason,
			AnnotateTime:   result.AnnotateTime,
			Performance:    result.Performance,
		})
		if err != nil {
			return asStoreError("create", err)
		}
	} else {
		w.logger.Info("reusing annotation record from failed attempt",
			zap.String("item_id", item.ID),
			zap.String("record_id", created.ID),
		)
	}

	outcome := item
	outcome.Confidence = created.Confidence
	if outcome.Confidence == nil {
		outcome.Confidence = models.Float(1.0)
	}

	if w.cfg.UpdateSource {
		text := result.Text
		updated, err := w.store.UpdateText(ctx, item.ID, models.UpdateTextRequest{
			Text:         &text,
			AnnotateTime: models.Int(result.AnnotateTime),
			Confidence:   models.Float(result.Performance),
		})
		if err != nil {
			w.setUnsynced(&unsyncedRecord{itemID: item.ID, record: created})
			w.logger.Error("annotation stored but source update failed",
				zap.String("item_id", item.ID),
				zap.String("record_id", created.ID),
				zap.Error(err),
			)
			return asStoreError("update", fmt.Errorf("source %s: %w", item.ID, err))
		}
		outcome = *updated
	}
	w.setUnsynced(nil)

	requeued := w.queue.Advance(outcome)

	if w.recorder != nil {
		entry := storage.Entry{
			ItemID:       item.ID,
			Task:         item.Task,
			Text:         result.Text,
			Reason:       result.Reason,
			Annotator:    w.cfg.Annotator,
			AnnotateTime: result.AnnotateTime,
			Performance:  result.Performance,
			Requeued:     requeued,
		}
		if err := w.recorder.Record(entry); err != nil {
			w.logger.Warn("failed to journal annotation", zap.String("item_id", item.ID), zap.Error(err))
		}
	}

	w.logger.Info("annotation saved",
		zap.String("item_id", item.ID),
		zap.String("record_id", created.ID),
		zap.Bool("requeued", requeued),
	)
	return nil
}

func (w *Workbench) unsyncedFor(itemID string) *models.MedicalText {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.unsynced == nil || w.unsynced.itemID != itemID {
		return nil
	}
	return w.unsynced.record
}

func (w *Workbench) setUnsynced(u *unsyncedRecord) {
	w.mu.Lock()
	w.unsynced = u
	w.mu.Unlock()
}

// Close stops the session timer and any pending status revert.
func (w *Workbench) Close() {
	w.session.Close()
	w.status.Close()
}

func (w *Workbench) timedFetcher() Fetcher {
	return fetcherFunc(func(ctx context.Context, threshold float64, limit int) ([]models.MedicalText, error) {
		ctx, cancel := context.WithTimeout(ctx, w.cfg.StoreTimeout)
		defer cancel()
		return w.store.FetchCandidates(ctx, threshold, limit)
	})
}

type fetcherFunc func(ctx context.Context, threshold float64, limit int) ([]models.MedicalText, error)

func (f fetcherFunc) FetchCandidates(ctx context.Context, threshold float64, limit int) ([]models.MedicalText, error) {
	return f(ctx, threshold, limit)
}
