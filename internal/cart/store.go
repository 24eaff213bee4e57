package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/shopeasy/internal/domain"
	"github.com/fjod/shopeasy/internal/storage"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 2 * time.Second

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithWriteTimeout bounds each background storage write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) { s.writeTimeout = d }
}

type subscriber struct {
	id int
	fn func(domain.CartState)
}

// Store owns one shopper's cart. Mutations are applied one at a time in
// call order; each one replaces the state, notifies subscribers and queues a
// write of the new snapshot. Storage failures never reach callers.
type Store struct {
	logger       *zap.Logger
	writeTimeout time.Duration

	mu      sync.Mutex
	state   domain.CartState
	subs    []subscriber
	nextSub int
	writer  *writer
}

// New hydrates the cart from s and writes the hydrated state back so that
// legacy or stale records are normalized. An unreadable record, or a read
// that outlasts the write timeout, yields an empty cart.
func New(ctx context.Context, s storage.Storage, opts ...Option) *Store {
	store := &Store{
		logger:       zap.NewNop(),
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(store)
	}

	hydrateCtx, cancel := context.WithTimeout(ctx, store.writeTimeout)
	store.state = store.hydrate(hydrateCtx, s)
	cancel()
	store.writer = newWriter(s, store.logger, store.writeTimeout)
	store.writer.enqueue(store.state)
	return store
}

func (s *Store) hydrate(ctx context.Context, st storage.Storage) domain.CartState {
	data, err := st.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.EmptyState()
	}
	if err != nil {
		s.logger.Warn("cart storage read failed, starting empty", zap.Error(err))
		return domain.EmptyState()
	}

	state, err := Decode(data)
	if err != nil {
		s.logger.Error("discarding unreadable cart record", zap.Error(err))
		return domain.EmptyState()
	}

	s.logger.Debug("cart hydrated",
		zap.Int("lines", len(state.Items)),
		zap.Int("total_items", state.Totals.TotalItems))
	return state
}

// State returns a snapshot callers may modify freely.
func (s *Store) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) AddItem(product domain.Product) domain.CartState {
	return s.apply(func(prev domain.CartState) domain.CartState {
		return AddItem(prev, product)
	})
}

func (s *Store) RemoveItem(productID int64) domain.CartState {
	return s.apply(func(prev domain.CartState) domain.CartState {
		return RemoveItem(prev, productID)
	})
}

func (s *Store) DecreaseQuantity(productID int64) domain.CartState {
	return s.apply(func(prev domain.CartState) domain.CartState {
		return DecreaseQuantity(prev, productID)
	})
}

func (s *Store) ClearCart() domain.CartState {
	return s.apply(Clear)
}

// Subscribe registers fn to receive every new state, in mutation order.
// fn runs while the store is locked and must not call back into it.
func (s *Store) Subscribe(fn func(domain.CartState)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Close waits for the last pending snapshot to be written. Mutations after
// Close still update memory but are no longer persisted.
func (s *Store) Close() error {
	s.writer.close()
	return nil
}

// ClearAfter runs fn on the current state and clears the cart only when fn
// returns nil. The store stays locked while fn runs, so no mutation or other
// ClearAfter can observe the cart in between.
func (s *Store) ClearAfter(fn func(domain.CartState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.state.Clone()); err != nil {
		return err
	}
	s.applyLocked(Clear)
	return nil
}

func (s *Store) apply(transition func(domain.CartState) domain.CartState) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applyLocked(transition)
}

func (s *Store) applyLocked(transition func(domain.CartState) domain.CartState) domain.CartState {
	s.state = transition(s.state)
	s.writer.enqueue(s.state)
	for _, sub := range s.subs {
		sub.fn(s.state.Clone())
	}
	return s.state.Clone()
}
