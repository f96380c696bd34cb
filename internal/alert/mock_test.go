package alert

import (
	"context"
	"sort"
	"sync"

	"github.com/pricewatch/hardgamers-watcher/internal/models"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"
)

// mockSearcher answers searches through a function and records the queries
type mockSearcher struct {
	mu      sync.Mutex
	fn      func(ctx context.Context, query string) ([]models.Product, error)
	queries []string
}

var _ Searcher = (*mockSearcher)(nil)

func (m *mockSearcher) Search(ctx context.Context, query string) ([]models.Product, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	return m.fn(ctx, query)
}

// mockStore keeps alerts in memory
type mockStore struct {
	mu     sync.Mutex
	nextID int64
	alerts map[int64]models.Alert
}

var _ Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{alerts: make(map[int64]models.Alert)}
}

func (m *mockStore) Save(ctx context.Context, a models.Alert) (models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == 0 {
		m.nextID++
		a.ID = m.nextID
	}
	m.alerts[a.ID] = a
	return a, nil
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok {
		return models.Alert{}, apperrors.NewNotFound("alerts", id)
	}
	return a, nil
}

func (m *mockStore) GetAll(ctx context.Context) ([]models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alerts := make([]models.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		alerts = append(alerts, a)
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ID > alerts[j].ID })
	return alerts, nil
}

func (m *mockStore) GetActive(ctx context.Context) ([]models.Alert, error) {
	all, _ := m.GetAll(ctx)

	active := make([]models.Alert, 0, len(all))
	for _, a := range all {
		if a.IsActive {
			active = append(active, a)
		}
	}
	return active, nil
}

func (m *mockStore) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.alerts[id]; !ok {
		return false, nil
	}
	delete(m.alerts, id)
	return true, nil
}
