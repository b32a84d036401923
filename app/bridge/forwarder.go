package bridge

import (
	"log/slog"
	"sync"
	"time"

	"github.com/onecart/onecart/app/intent"
)

// Forwarder relays promoted add signals into the processing pipeline.
// Repeated identical (tab, url) signals inside the debounce window coalesce
// into one forwarded message. Delivery is fire-and-forget: a dispatch failure
// is logged and dropped, never retried and never surfaced.
type Forwarder struct {
	debounce time.Duration
	dispatch func(intent.AddIntentSignal) error
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewForwarder(debounce time.Duration, dispatch func(intent.AddIntentSignal) error) *Forwarder {
	return &Forwarder{
		debounce: debounce,
		dispatch: dispatch,
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}
}

// Forward sends one signal downstream unless an identical signal was already
// forwarded within the debounce window. It reports whether the signal was
// forwarded.
func (f *Forwarder) Forward(sig intent.AddIntentSignal) bool {
	key := sig.TabID + "|" + sig.URL
	now := f.now()

	f.mu.Lock()
	if last, ok := f.lastSent[key]; ok && now.Sub(last) < f.debounce {
		f.mu.Unlock()
		return false
	}
	f.lastSent[key] = now

	for k, t := range f.lastSent {
		if now.Sub(t) >= f.debounce {
			delete(f.lastSent, k)
		}
	}
	f.mu.Unlock()

	if err := f.dispatch(sig); err != nil {
		slog.Warn("Failed to dispatch add signal, dropping", "tab", sig.TabID, "url", sig.URL, "error", err)
		return false
	}
	return true
}
