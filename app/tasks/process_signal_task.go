package tasks

import (
	"context"
	"log/slog"

	"github.com/onecart/onecart/app/bridge"
	"github.com/onecart/onecart/app/bus"
	"github.com/onecart/onecart/app/cart"
	"github.com/onecart/onecart/app/cfg"
	"github.com/onecart/onecart/app/extract"
	"github.com/onecart/onecart/app/intent"
	"github.com/onecart/onecart/app/settle"
)

// ProcessSignalTask turns one promoted add signal into cart mutations:
// extract a quick record from the latest snapshot, dispatch it, wait for the
// DOM to settle, dispatch the settled record. The reducer's dedup-replace
// makes the second write authoritative without double-counting.
type ProcessSignalTask struct {
	Task
	Signal    intent.AddIntentSignal
	tabs      *bridge.TabStore
	nudges    *bridge.NudgeStore
	extractor *extract.Extractor
	reducer   *cart.Reducer
	scheduler TaskSchedulerInterface
	hub       *bus.Hub
}

func NewProcessSignalTask(signal intent.AddIntentSignal, tabs *bridge.TabStore, nudges *bridge.NudgeStore,
	extractor *extract.Extractor, reducer *cart.Reducer, scheduler TaskSchedulerInterface, hub *bus.Hub) *ProcessSignalTask {
	return &ProcessSignalTask{
		Task:      NewTask(TaskTypeProcessSignal, signal.TabID),
		Signal:    signal,
		tabs:      tabs,
		nudges:    nudges,
		extractor: extractor,
		reducer:   reducer,
		scheduler: scheduler,
		hub:       hub,
	}
}

func (t *ProcessSignalTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	tab := t.tabs.Get(t.Signal.TabID)

	html, pageURL := tab.Snapshot()
	if len(html) == 0 {
		// SPA transition raced the content script; park the signal and let
		// the nudge schedule prompt the tab once it is ready.
		t.nudges.Put(t.Signal)
		nudgeTask := NewNudgeTask(t.Signal.TabID, t.tabs, t.nudges, t.extractor, t.reducer, t.scheduler, t.hub)
		if err := t.scheduler.EnqueueTask(nudgeTask); err != nil {
			slog.Debug("Failed to enqueue nudge task, dropping signal", "tab", t.Signal.TabID, "error", err)
		}
		return nil
	}

	if !tab.MarkSent(t.Signal.URL) {
		slog.Debug("Signal already processed for this page, skipping", "tab", t.Signal.TabID, "url", t.Signal.URL)
		return nil
	}

	runPipeline(ctx, t.Signal, tab, pageURL, html, t.extractor, t.reducer)

	slog.Info("Task completed",
		"type", "ProcessSignal",
		"tab", t.Signal.TabID,
		"duration", t.GetDuration(),
		"source", string(t.Signal.Source))

	return nil
}

// runPipeline performs the dual-shot emission: an optimistic quick record
// immediately, and a settled record after a bounded wait for the DOM.
func runPipeline(ctx context.Context, sig intent.AddIntentSignal, tab *bridge.Tab, pageURL string,
	html []byte, extractor *extract.Extractor, reducer *cart.Reducer) {
	opts := cart.AddOptions{
		TabID:       sig.TabID,
		Source:      string(sig.Source),
		ModeEnabled: reducer.ModeEnabled(),
	}

	quick, err := extractor.Run(html, pageURL)
	if err != nil {
		slog.Debug("Quick extraction failed", "tab", sig.TabID, "error", err)
	} else {
		ack := reducer.AddItem(quick, opts)
		slog.Debug("Quick record dispatched", "tab", sig.TabID, "ok", ack.OK, "reason", ack.Reason)
	}

	updates, cancel := tab.Watch()
	defer cancel()

	settled := settle.Wait(ctx, cfg.Get().SettleTimeout(), updates, func() (cart.ProductRecord, bool) {
		latest, latestURL := tab.Snapshot()
		rec, err := extractor.Run(latest, latestURL)
		if err != nil {
			return cart.ProductRecord{}, false
		}
		return rec, settle.GoodEnough(rec)
	})

	if settled.Title == "" && settled.Link == "" {
		return
	}

	ack := reducer.AddItem(settled, opts)
	slog.Debug("Settled record dispatched", "tab", sig.TabID, "ok", ack.OK, "reason", ack.Reason)
}
