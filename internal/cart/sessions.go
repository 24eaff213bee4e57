package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/shopeasy/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Sessions hands out one Store per shopper session. Every store keeps using
// StorageKey; the session id only namespaces the backend.
type Sessions struct {
	storage storage.Storage
	opts    []Option
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]*session
	sfg     singleflight.Group // one hydration per session
}

type session struct {
	store    *Store
	lastUsed time.Time
}

func NewSessions(s storage.Storage, logger *zap.Logger, opts ...Option) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		storage: s,
		opts:    append([]Option{WithLogger(logger)}, opts...),
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*session),
	}
}

// Get returns the session's store, hydrating it on first use.
func (s *Sessions) Get(ctx context.Context, sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	if store, ok := s.touch(sessionID); ok {
		return store, nil
	}

	// Hydration is shared between concurrent callers, so one caller's
	// cancellation must not abort it for the others. New bounds the read.
	hydrateCtx := context.WithoutCancel(ctx)
	v, _, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		if existing, ok := s.touch(sessionID); ok {
			return existing, nil
		}

		opts := append([]Option{}, s.opts...)
		opts = append(opts, WithLogger(s.logger.With(zap.String("session_id", sessionID))))
		created := New(hydrateCtx, s.backend(sessionID), opts...)

		s.mu.Lock()
		s.entries[sessionID] = &session{store: created, lastUsed: s.now()}
		s.mu.Unlock()
		return created, nil
	})

	return v.(*Store), nil
}

// Lookup returns the session's store only when the shopper already has a
// cart, live or stored. Unknown sessions report false and nothing is
// created or written for them.
func (s *Sessions) Lookup(ctx context.Context, sessionID string) (*Store, bool, error) {
	if sessionID == "" {
		return nil, false, ErrInvalidSession
	}

	if store, ok := s.touch(sessionID); ok {
		return store, true, nil
	}

	_, err := s.backend(sessionID).Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	// Other read failures fall through to Get, whose hydration logs them.

	store, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return store, true, nil
}

// EvictIdle closes and forgets every store unused for longer than maxIdle.
// Their last snapshot is flushed, so a later Get hydrates it again.
func (s *Sessions) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var idle []*Store
	for id, entry := range s.entries {
		if entry.lastUsed.Before(cutoff) {
			idle = append(idle, entry.store)
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, store := range idle {
		store.Close()
	}
	if len(idle) > 0 {
		s.logger.Debug("idle cart sessions evicted", zap.Int("sessions", len(idle)))
	}
	return len(idle)
}

// RunEviction evicts idle sessions on every tick until ctx is done.
func (s *Sessions) RunEviction(ctx context.Context, maxIdle time.Duration) {
	interval := maxIdle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(maxIdle)
		}
	}
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close flushes every session's pending write.
func (s *Sessions) Close() error {
	s.mu.Lock()
	stores := make([]*Store, 0, len(s.entries))
	for _, entry := range s.entries {
		stores = append(stores, entry.store)
	}
	s.mu.Unlock()

	for _, store := range stores {
		store.Close()
	}
	s.logger.Info("cart sessions flushed", zap.Int("sessions", len(stores)))
	return nil
}

func (s *Sessions) touch(sessionID string) (*Store, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		return nil, false
	}
	entry.lastUsed = s.now()
	return entry.store, true
}

func (s *Sessions) backend(sessionID string) storage.Storage {
	return storage.WithPrefix(s.storage, sessionPrefix(sessionID))
}

func sessionPrefix(sessionID string) string {
	return "session:" + sessionID + ":"
}
