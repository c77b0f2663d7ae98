package activity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const defaultSaveTimeout = 5 * time.Second

// Worker saves entries in the background.
type Worker struct {
	entryCh     chan Entry
	recorder    Recorder
	saveTimeout time.Duration
	dropped     atomic.Int64
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

type WorkerOption func(*Worker)

func WithSaveTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.saveTimeout = d
	}
}

func NewWorker(recorder Recorder, bufferSize int, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		entryCh:     make(chan Entry, bufferSize),
		recorder:    recorder,
		saveTimeout: defaultSaveTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Start() {
	w.wg.Go(func() {
		for {
			select {
			case <-w.ctx.Done():
				w.drain()
				return
			case entry := <-w.entryCh:
				w.save(w.ctx, entry)
			}
		}
	})
}

// drain runs after cancellation, so saves get a fresh context.
func (w *Worker) drain() {
	slog.Info("draining activity before shutdown", "remaining_entries", len(w.entryCh), "dropped_entries", w.dropped.Load())
	for {
		select {
		case entry := <-w.entryCh:
			w.save(context.Background(), entry)
		default:
			return
		}
	}
}

func (w *Worker) save(ctx context.Context, entry Entry) {
	ctx, cancel := context.WithTimeout(ctx, w.saveTimeout)
	defer cancel()
	if err := w.recorder.Save(ctx, entry); err != nil {
		slog.Error("failed to save activity", "error", err, "entry_type", entry.Type, "event_id", entry.EventID)
	}
}

// Log queues the entry, dropping it when the buffer is full.
func (w *Worker) Log(entry Entry) {
	select {
	case w.entryCh <- entry:
	default:
		w.dropped.Add(1)
		slog.Warn("activity channel full, dropping entry", "entry_type", entry.Type, "event_id", entry.EventID)
	}
}

// Dropped reports how many entries Log discarded.
func (w *Worker) Dropped() int64 {
	return w.dropped.Load()
}

func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}
