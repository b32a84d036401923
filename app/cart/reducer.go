package cart

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/onecart/onecart/app/bus"
	"github.com/onecart/onecart/app/sites"
)

// Reducer is the single authority over persisted cart state. Every mutation
// runs as one critical section: read the latest list from storage, merge,
// write, broadcast. Callers from any goroutine are serialized here.
type Reducer struct {
	store    Store
	registry *sites.Registry
	hub      *bus.Hub

	notifyWindow time.Duration
	now          func() time.Time

	mu           sync.Mutex
	lastNotified map[string]time.Time
}

func NewReducer(store Store, registry *sites.Registry, hub *bus.Hub, notifyWindow time.Duration) *Reducer {
	return &Reducer{
		store:        store,
		registry:     registry,
		hub:          hub,
		notifyWindow: notifyWindow,
		now:          time.Now,
		lastNotified: make(map[string]time.Time),
	}
}

// AddItem sanitizes, validates and merges one candidate record. It never
// returns an error; failures are reported in the acknowledgment.
func (r *Reducer) AddItem(raw ProductRecord, opts AddOptions) Ack {
	if !opts.ModeEnabled {
		return Ack{OK: true, Ignored: true, Reason: ReasonModeOff}
	}

	trackingImg := sites.IsTrackingImage(raw.Img)
	rec := Sanitize(raw, r.registry)

	if rec.Title == "" && (rec.Link == "" || trackingImg) {
		slog.Debug("Discarding noise record", "source", opts.Source, "link", rec.Link)
		return Ack{OK: true, Ignored: true, Reason: ReasonNoise}
	}

	if !r.registry.IsTrusted(opts.Source) && !r.registry.IsProductPage(rec.Link) {
		slog.Debug("Discarding non-product-page record", "source", opts.Source, "link", rec.Link)
		return Ack{OK: true, Ignored: true, Reason: ReasonNotProductPage}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.loadItems()
	if err != nil {
		slog.Error("Failed to load cart state", "error", err)
		return Ack{OK: false, Reason: ReasonStorageError}
	}

	merged := make([]ProductRecord, 0, len(items)+1)
	replaced := 0
	for _, item := range items {
		if SameEntry(item, rec) {
			replaced++
			continue
		}
		merged = append(merged, item)
	}
	merged = append(merged, rec)

	if err := r.saveItems(merged); err != nil {
		slog.Error("Failed to persist cart state", "error", err)
		return Ack{OK: false, Reason: ReasonStorageError}
	}

	slog.Info("Cart item saved", "title", rec.Title, "source", opts.Source, "replaced", replaced, "count", len(merged))

	r.broadcast(merged, &rec)
	r.maybeNotify(rec, opts.TabID, len(merged))

	return Ack{OK: true, Saved: true, Count: len(merged)}
}

// RemoveItem removes the entry matching the given id (by id or link key).
// Removing a missing id is a no-op that still succeeds.
func (r *Reducer) RemoveItem(id string) Ack {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.loadItems()
	if err != nil {
		slog.Error("Failed to load cart state", "error", err)
		return Ack{OK: false, Reason: ReasonStorageError}
	}

	probe := ProductRecord{ID: id, Link: id}
	kept := make([]ProductRecord, 0, len(items))
	for _, item := range items {
		if SameEntry(item, probe) {
			continue
		}
		kept = append(kept, item)
	}

	if len(kept) == len(items) {
		return Ack{OK: true, Count: len(items)}
	}

	if err := r.saveItems(kept); err != nil {
		slog.Error("Failed to persist cart state", "error", err)
		return Ack{OK: false, Reason: ReasonStorageError}
	}

	r.broadcast(kept, nil)

	return Ack{OK: true, Saved: true, Count: len(kept)}
}

// Clear empties the cart.
func (r *Reducer) Clear() Ack {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.saveItems([]ProductRecord{}); err != nil {
		slog.Error("Failed to persist cart state", "error", err)
		return Ack{OK: false, Reason: ReasonStorageError}
	}

	r.broadcast([]ProductRecord{}, nil)

	return Ack{OK: true, Saved: true, Count: 0}
}

// Items returns the current persisted cart list.
func (r *Reducer) Items() ([]ProductRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadItems()
}

// ModeEnabled reads the shopping-mode flag; storage failures default to on so
// a transient error never silently disables collection.
func (r *Reducer) ModeEnabled() bool {
	value, err := r.store.Get(StorageKeyMode, "true")
	if err != nil {
		slog.Warn("Failed to read shopping mode, assuming enabled", "error", err)
		return true
	}
	return value != "false"
}

func (r *Reducer) SetMode(enabled bool) error {
	value := "true"
	if !enabled {
		value = "false"
	}
	return r.store.Set(StorageKeyMode, value)
}

func (r *Reducer) loadItems() ([]ProductRecord, error) {
	raw, err := r.store.Get(StorageKeyCart, "[]")
	if err != nil {
		return nil, fmt.Errorf("failed to read cart state: %w", err)
	}

	var items []ProductRecord
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		slog.Warn("Corrupt cart state, starting empty", "error", err)
		return []ProductRecord{}, nil
	}
	return items, nil
}

func (r *Reducer) saveItems(items []ProductRecord) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart state: %w", err)
	}
	return r.store.Set(StorageKeyCart, string(data))
}

func (r *Reducer) broadcast(items []ProductRecord, added *ProductRecord) {
	r.hub.Publish(bus.Event{
		Type: bus.EventCartUpdated,
		Data: CartUpdatedPayload{Items: items, Added: added, Count: len(items)},
	})
}

// maybeNotify triggers a one-time toast and badge update for the first sight
// of an identity within the notification window. Repeated adds of the same
// identity inside the window stay silent.
func (r *Reducer) maybeNotify(rec ProductRecord, tabID string, count int) {
	key := normalizeKey(rec.ID)
	now := r.now()

	if last, ok := r.lastNotified[key]; ok && now.Sub(last) < r.notifyWindow {
		return
	}
	r.lastNotified[key] = now

	for k, t := range r.lastNotified {
		if now.Sub(t) >= r.notifyWindow {
			delete(r.lastNotified, k)
		}
	}

	r.hub.Publish(bus.Event{
		Type:  bus.EventShowConfirmation,
		TabID: tabID,
		Data:  ConfirmationPayload{Text: fmt.Sprintf("Added %q to your list", rec.Title), Position: "bottom-right"},
	})
	r.hub.Publish(bus.Event{
		Type:  bus.EventBadge,
		TabID: tabID,
		Data:  BadgePayload{Text: fmt.Sprintf("%d", count)},
	})
}
