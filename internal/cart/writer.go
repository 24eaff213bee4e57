package cart

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/shopeasy/internal/domain"
	"github.com/fjod/shopeasy/internal/storage"
	"go.uber.org/zap"
)

// writer persists cart snapshots off the caller's path. Only the latest
// pending snapshot is kept; older ones are superseded before they are written.
type writer struct {
	storage storage.Storage
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending *domain.CartState
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func newWriter(s storage.Storage, logger *zap.Logger, timeout time.Duration) *writer {
	w := &writer{
		storage: s,
		logger:  logger,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) enqueue(state domain.CartState) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		w.logger.Debug("cart writer closed, snapshot not persisted")
		return
	}
	w.pending = &state

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)
	for range w.wake {
		w.flush()
	}
	w.flush()
}

func (w *writer) flush() {
	w.mu.Lock()
	state := w.pending
	w.pending = nil
	w.mu.Unlock()

	if state == nil {
		return
	}

	data, err := Encode(*state)
	if err != nil {
		w.logger.Error("cart encode failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.storage.Set(ctx, StorageKey, data); err != nil {
		w.logger.Warn("cart persist failed, keeping in-memory state",
			zap.Error(&StorageWriteError{Key: StorageKey, Err: err}))
	}
}

// close writes whatever is still pending and stops the goroutine.
func (w *writer) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.wake)
	w.mu.Unlock()

	<-w.done
}
