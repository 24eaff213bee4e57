package cart

import (
	"context"
	"sync"

	"github.com/fjod/shopeasy/internal/storage"
)

type mockStorage struct {
	m       sync.Mutex
	records map[string][]byte
	writes  int
	getErr  error
	setErr  error
	// stall makes Get wait for its context to end.
	stall bool
}

func newMockStorage() *mockStorage {
	return &mockStorage{records: map[string][]byte{}}
}

func (m *mockStorage) Get(ctx context.Context, key string) ([]byte, error) {
	m.m.Lock()
	stall := m.stall
	m.m.Unlock()
	if stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	m.m.Lock()
	defer m.m.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	value, ok := m.records[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return value, nil
}

func (m *mockStorage) Set(_ context.Context, key string, value []byte) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.writes++
	if m.setErr != nil {
		return m.setErr
	}
	m.records[key] = append([]byte(nil), value...)
	return nil
}

func (m *mockStorage) record(key string) ([]byte, bool) {
	m.m.Lock()
	defer m.m.Unlock()
	value, ok := m.records[key]
	return value, ok
}

func (m *mockStorage) put(key, value string) {
	m.m.Lock()
	defer m.m.Unlock()
	m.records[key] = []byte(value)
}
