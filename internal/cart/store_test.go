package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/shopeasy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func storedState(t *testing.T, s *mockStorage) domain.CartState {
	t.Helper()
	data, ok := s.record(StorageKey)
	require.True(t, ok, "cart record was not written")
	state, err := Decode(data)
	require.NoError(t, err)
	return state
}

func TestStore_StartsEmptyWithoutRecord(t *testing.T) {
	backend := newMockStorage()

	store := New(context.Background(), backend)
	require.NoError(t, store.Close())

	assert.Equal(t, domain.EmptyState(), store.State())
	assert.Equal(t, domain.EmptyState(), storedState(t, backend))
}

func TestStore_EndToEndScenario(t *testing.T) {
	backend := newMockStorage()
	store := New(context.Background(), backend)

	store.AddItem(domain.Product{ID: 1, Title: "A", Price: 10})
	store.AddItem(domain.Product{ID: 2, Title: "B", Price: 5})
	state := store.AddItem(domain.Product{ID: 1, Title: "A", Price: 10})
	require.NoError(t, store.Close())

	require.Len(t, state.Items, 2)
	assert.Equal(t, int64(1), state.Items[0].Product.ID)
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, int64(2), state.Items[1].Product.ID)
	assert.Equal(t, 1, state.Items[1].Quantity)
	assert.Equal(t, domain.Summary{TotalItems: 3, TotalPrice: 25}, state.Totals)

	assert.Equal(t, state, storedState(t, backend))
}

func TestStore_HydratesFromStorage(t *testing.T) {
	backend := newMockStorage()
	first := New(context.Background(), backend)
	first.AddItem(product(1, 10))
	first.AddItem(product(1, 10))
	require.NoError(t, first.Close())

	reloaded := New(context.Background(), backend)
	defer reloaded.Close()

	state := reloaded.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, domain.Summary{TotalItems: 2, TotalPrice: 20}, state.Totals)
}

func TestStore_CorruptRecordFallsBackToEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	backend := newMockStorage()
	backend.put(StorageKey, "{definitely not json")

	var store *Store
	require.NotPanics(t, func() {
		store = New(context.Background(), backend, WithLogger(zap.New(core)))
	})
	require.NoError(t, store.Close())

	assert.Equal(t, domain.EmptyState(), store.State())
	assert.Equal(t, domain.EmptyState(), storedState(t, backend), "hydrated state is written back")
	assert.Equal(t, 1, logs.FilterMessage("discarding unreadable cart record").Len())
}

func TestStore_HydrationNormalizesTotals(t *testing.T) {
	backend := newMockStorage()
	backend.put(StorageKey, `{"items":[{"product":{"id":1,"price":10},"quantity":2}],"totals":{"totalItems":5,"totalPrice":0}}`)

	store := New(context.Background(), backend)
	require.NoError(t, store.Close())

	assert.Equal(t, domain.Summary{TotalItems: 2, TotalPrice: 20}, store.State().Totals)
	assert.Equal(t, domain.Summary{TotalItems: 2, TotalPrice: 20}, storedState(t, backend).Totals)
}

func TestStore_ReadFailureFallsBackToEmpty(t *testing.T) {
	backend := newMockStorage()
	backend.getErr = errors.New("connection refused")

	store := New(context.Background(), backend)
	defer store.Close()

	assert.Equal(t, domain.EmptyState(), store.State())
}

func TestStore_WriteFailureKeepsMemoryState(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	backend := newMockStorage()
	backend.setErr = errors.New("quota exceeded")

	store := New(context.Background(), backend, WithLogger(zap.New(core)))
	state := store.AddItem(product(1, 10))
	require.NoError(t, store.Close())

	require.Len(t, state.Items, 1)
	assert.Equal(t, state, store.State())
	_, ok := backend.record(StorageKey)
	assert.False(t, ok)

	entries := logs.FilterMessage("cart persist failed, keeping in-memory state").All()
	require.NotEmpty(t, entries)
	var logged error
	for _, field := range entries[0].Context {
		if field.Key == "error" {
			logged, _ = field.Interface.(error)
		}
	}
	var writeErr *StorageWriteError
	require.ErrorAs(t, logged, &writeErr)
	assert.Equal(t, StorageKey, writeErr.Key)
}

func TestStore_StateIsASnapshot(t *testing.T) {
	store := New(context.Background(), newMockStorage())
	defer store.Close()
	store.AddItem(product(1, 10))

	snapshot := store.State()
	snapshot.Items[0].Quantity = 100

	assert.Equal(t, 1, store.State().Items[0].Quantity)
}

func TestStore_OperationsOnEmptyCart(t *testing.T) {
	store := New(context.Background(), newMockStorage())
	defer store.Close()

	assert.Equal(t, domain.EmptyState(), store.RemoveItem(1))
	assert.Equal(t, domain.EmptyState(), store.DecreaseQuantity(1))
	assert.Equal(t, domain.EmptyState(), store.ClearCart())
}

func TestStore_DecreaseAndClear(t *testing.T) {
	backend := newMockStorage()
	store := New(context.Background(), backend)

	store.AddItem(product(1, 10))
	store.AddItem(product(1, 10))
	state := store.DecreaseQuantity(1)
	assert.Equal(t, 1, state.Items[0].Quantity)

	state = store.DecreaseQuantity(1)
	require.Len(t, state.Items, 1, "quantity floors at one")
	assert.Equal(t, 1, state.Items[0].Quantity)

	state = store.ClearCart()
	require.NoError(t, store.Close())

	assert.Empty(t, state.Items)
	assert.Equal(t, domain.Summary{}, state.Totals)
	assert.Equal(t, domain.EmptyState(), storedState(t, backend))
}

func TestStore_SubscribersSeeEveryStateInOrder(t *testing.T) {
	store := New(context.Background(), newMockStorage())
	defer store.Close()

	var seen []int
	unsubscribe := store.Subscribe(func(state domain.CartState) {
		seen = append(seen, state.Totals.TotalItems)
	})

	store.AddItem(product(1, 10))
	store.AddItem(product(2, 10))
	store.RemoveItem(1)
	unsubscribe()
	store.ClearCart()

	assert.Equal(t, []int{1, 2, 1}, seen)
}

func TestStore_ConcurrentAddsAreSerialized(t *testing.T) {
	store := New(context.Background(), newMockStorage())
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.AddItem(product(id%5, 2))
		}(int64(i))
	}
	wg.Wait()

	state := store.State()
	assert.Len(t, state.Items, 5)
	assert.Equal(t, domain.Summary{TotalItems: 50, TotalPrice: 100}, state.Totals)
	for _, item := range state.Items {
		assert.Equal(t, 10, item.Quantity)
	}
}

func TestStore_LastSnapshotWins(t *testing.T) {
	backend := newMockStorage()
	store := New(context.Background(), backend)

	for i := 0; i < 100; i++ {
		store.AddItem(product(1, 1))
	}
	require.NoError(t, store.Close())

	state := storedState(t, backend)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 100, state.Items[0].Quantity)
}

func TestStore_MutationsAfterCloseStayInMemory(t *testing.T) {
	backend := newMockStorage()
	store := New(context.Background(), backend)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	state := store.AddItem(product(1, 10))

	assert.Len(t, state.Items, 1)
	assert.Equal(t, domain.EmptyState(), storedState(t, backend))
}

func TestStore_StalledReadFallsBackToEmpty(t *testing.T) {
	backend := newMockStorage()
	backend.stall = true

	start := time.Now()
	store := New(context.Background(), backend, WithWriteTimeout(50*time.Millisecond))
	defer store.Close()

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, store.State().IsEmpty())
}

func TestStore_ClearAfterSuccess(t *testing.T) {
	backend := newMockStorage()
	store := New(context.Background(), backend)
	store.AddItem(product(1, 10))
	store.AddItem(product(1, 10))

	var notified []domain.CartState
	store.Subscribe(func(s domain.CartState) { notified = append(notified, s) })

	var seen domain.CartState
	err := store.ClearAfter(func(s domain.CartState) error {
		seen = s
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.Equal(t, 2, seen.Totals.TotalItems)
	assert.True(t, store.State().IsEmpty())
	require.Len(t, notified, 1)
	assert.True(t, notified[0].IsEmpty())
	assert.True(t, storedState(t, backend).IsEmpty())
}

func TestStore_ClearAfterFailureKeepsCart(t *testing.T) {
	store := New(context.Background(), newMockStorage())
	defer store.Close()
	store.AddItem(product(1, 10))

	errRejected := errors.New("rejected")
	err := store.ClearAfter(func(domain.CartState) error { return errRejected })

	assert.ErrorIs(t, err, errRejected)
	assert.Len(t, store.State().Items, 1)
}

func TestStore_ConcurrentClearAfterSeesCartOnce(t *testing.T) {
	store := New(context.Background(), newMockStorage())
	defer store.Close()
	store.AddItem(product(1, 10))

	var (
		mu       sync.Mutex
		nonEmpty int
		wg       sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.ClearAfter(func(s domain.CartState) error {
				if s.IsEmpty() {
					return errors.New("empty")
				}
				time.Sleep(20 * time.Millisecond)
				mu.Lock()
				nonEmpty++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, nonEmpty)
	assert.True(t, store.State().IsEmpty())
}
