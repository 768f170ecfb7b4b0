package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/metrics"
)

const (
	OpLoad   = "load"
	OpSave   = "save"
	OpDelete = "delete"
)

type pendingWrite struct {
	payload []byte
	delete  bool
}

// Writer persists snapshots of one slot in the background. Pending snapshots
// coalesce: only the latest one scheduled before a write starts is written.
// Failures are logged and counted but never surfaced to the caller.
type Writer struct {
	store   Store
	key     string
	slot    string
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	pending *pendingWrite
	running bool
	done    chan struct{}
	lastErr error
}

func NewWriter(store Store, slot, key string, timeout time.Duration, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Writer{
		store:   store,
		key:     key,
		slot:    slot,
		timeout: timeout,
		logger:  logger.With(slog.String("slot", slot), slog.String("key", key)),
	}
}

// Schedule queues the encoded snapshot v for writing and returns immediately.
func (w *Writer) Schedule(v any) {
	payload, err := EncodeSnapshot(v)
	if err != nil {
		w.logger.Error("Failed to encode snapshot", slog.String("error", err.Error()))
		metrics.ObservePersistence(w.slot, OpSave, err)
		return
	}

	w.enqueue(&pendingWrite{payload: payload})
}

// ScheduleDelete queues removal of the slot.
func (w *Writer) ScheduleDelete() {
	w.enqueue(&pendingWrite{delete: true})
}

func (w *Writer) enqueue(p *pendingWrite) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = p

	if !w.running {
		w.running = true
		w.done = make(chan struct{})
		go w.run(w.done)
	}
}

func (w *Writer) run(done chan struct{}) {
	defer close(done)

	for {
		w.mu.Lock()
		p := w.pending
		w.pending = nil
		if p == nil {
			w.running = false
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		err := w.write(p)

		w.mu.Lock()
		w.lastErr = err
		w.mu.Unlock()
	}
}

func (w *Writer) write(p *pendingWrite) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	op := OpSave
	var err error

	if p.delete {
		op = OpDelete
		err = w.store.Delete(ctx, w.key)
	} else {
		err = w.store.Set(ctx, w.key, p.payload)
	}

	metrics.ObservePersistence(w.slot, op, err)

	if err != nil {
		w.logger.Error("Failed to persist snapshot", slog.String("op", op), slog.String("error", err.Error()))
	}

	return err
}

// Flush blocks until every scheduled write has been attempted or ctx is done.
func (w *Writer) Flush(ctx context.Context) error {
	for {
		w.mu.Lock()
		if !w.running {
			w.mu.Unlock()
			return nil
		}
		done := w.done
		w.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// LastError is the result of the most recent write attempt.
func (w *Writer) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.lastErr
}
