package crawler

import (
	"context"
	"sync"
)

// mockRecord implements Record over fixed label values
type mockRecord struct {
	values map[string][]string
	link   string
}

var _ Record = (*mockRecord)(nil)

func newMockRecord(title string, prices ...string) *mockRecord {
	values := map[string][]string{}
	if title != "" {
		values[LabelTitle] = []string{title}
	}
	if len(prices) > 0 {
		values[LabelPrice] = prices
	}
	return &mockRecord{values: values}
}

func (m *mockRecord) withLink(link string) *mockRecord {
	m.link = link
	return m
}

func (m *mockRecord) FindFirst(label string) (string, bool) {
	values := m.values[label]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (m *mockRecord) FindAll(label string) []string {
	return m.values[label]
}

func (m *mockRecord) FindLink() (string, bool) {
	return m.link, m.link != ""
}

// mockFetcher implements Fetcher and records every requested URL
type mockFetcher struct {
	mu       sync.Mutex
	body     []byte
	err      error
	requests []string
}

var _ Fetcher = (*mockFetcher)(nil)

func (m *mockFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, target)
	if m.err != nil {
		return nil, m.err
	}
	return m.body, nil
}

func (m *mockFetcher) requested() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}
