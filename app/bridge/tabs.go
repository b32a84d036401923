package bridge

import (
	"sync"
	"time"
)

// Tab holds the per-tab state the pipeline needs: the latest DOM snapshot,
// the set of signal URLs already forwarded for the current page, and watchers
// waiting for the DOM to settle. A navigation resets the sent set so the
// pipeline can fire again on the new page.
type Tab struct {
	mu          sync.Mutex
	snapshot    []byte
	pageURL     string
	updatedAt   time.Time
	sentURLs    map[string]bool
	watchers    map[int]chan struct{}
	nextWatcher int
}

func newTab() *Tab {
	return &Tab{
		sentURLs: make(map[string]bool),
		watchers: make(map[int]chan struct{}),
	}
}

// UpdateSnapshot stores the latest DOM snapshot and wakes watchers. Navigation
// clears the already-sent flags.
func (t *Tab) UpdateSnapshot(pageURL string, html []byte, navigated bool) {
	t.mu.Lock()
	t.snapshot = html
	t.pageURL = pageURL
	t.updatedAt = time.Now()
	if navigated {
		t.sentURLs = make(map[string]bool)
	}

	watchers := make([]chan struct{}, 0, len(t.watchers))
	for _, ch := range t.watchers {
		watchers = append(watchers, ch)
	}
	t.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Snapshot returns the latest DOM snapshot and its page URL.
func (t *Tab) Snapshot() ([]byte, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot, t.pageURL
}

// MarkSent records that the pipeline fired for a signal URL on the current
// page; it reports false when the URL was already marked.
func (t *Tab) MarkSent(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sentURLs[url] {
		return false
	}
	t.sentURLs[url] = true
	return true
}

// Watch subscribes to snapshot updates. The cancel function releases the
// subscription and must always be called.
func (t *Tab) Watch() (<-chan struct{}, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextWatcher
	t.nextWatcher++

	ch := make(chan struct{}, 1)
	t.watchers[id] = ch

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.watchers, id)
	}
	return ch, cancel
}

// TabStore tracks per-tab state, created lazily.
type TabStore struct {
	mu   sync.Mutex
	tabs map[string]*Tab
}

func NewTabStore() *TabStore {
	return &TabStore{tabs: make(map[string]*Tab)}
}

func (s *TabStore) Get(tabID string) *Tab {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, ok := s.tabs[tabID]
	if !ok {
		tab = newTab()
		s.tabs[tabID] = tab
	}
	return tab
}

// Drop forgets a closed tab.
func (s *TabStore) Drop(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabs, tabID)
}

func (s *TabStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tabs)
}
