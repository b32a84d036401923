package bridge

import (
	"sync"
	"time"

	"github.com/onecart/onecart/app/intent"
)

// Nudge is an unresolved add signal parked for a tab whose content script was
// not ready when the signal arrived (SPA navigation racing script injection).
// Nudges expire after a few seconds and are never persisted.
type Nudge struct {
	Signal    intent.AddIntentSignal
	CreatedAt time.Time
}

// NudgeStore keys pending nudges by tab, one per tab, newest wins.
type NudgeStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	byTab map[string]Nudge
}

func NewNudgeStore(ttl time.Duration) *NudgeStore {
	return &NudgeStore{
		ttl:   ttl,
		now:   time.Now,
		byTab: make(map[string]Nudge),
	}
}

func (s *NudgeStore) Put(sig intent.AddIntentSignal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byTab[sig.TabID] = Nudge{Signal: sig, CreatedAt: s.now()}
}

// Peek returns the live nudge for a tab without consuming it.
func (s *NudgeStore) Peek(tabID string) (Nudge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nudge, ok := s.byTab[tabID]
	if !ok {
		return Nudge{}, false
	}
	if s.now().Sub(nudge.CreatedAt) > s.ttl {
		delete(s.byTab, tabID)
		return Nudge{}, false
	}
	return nudge, true
}

// Take consumes the live nudge for a tab.
func (s *NudgeStore) Take(tabID string) (Nudge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nudge, ok := s.byTab[tabID]
	if !ok {
		return Nudge{}, false
	}
	delete(s.byTab, tabID)

	if s.now().Sub(nudge.CreatedAt) > s.ttl {
		return Nudge{}, false
	}
	return nudge, true
}

// Sweep drops expired nudges.
func (s *NudgeStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for tabID, nudge := range s.byTab {
		if now.Sub(nudge.CreatedAt) > s.ttl {
			delete(s.byTab, tabID)
		}
	}
}
