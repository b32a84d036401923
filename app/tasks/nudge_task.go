package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/onecart/onecart/app/bridge"
	"github.com/onecart/onecart/app/bus"
	"github.com/onecart/onecart/app/cart"
	"github.com/onecart/onecart/app/extract"
)

// Fixed backoff schedule for nudge delivery; the receiving content script may
// not be attached yet right after an SPA navigation.
var nudgeRetrySchedule = []time.Duration{300 * time.Millisecond, 600 * time.Millisecond, 1200 * time.Millisecond}

// NudgeTask prompts a tab to report its DOM and, once a snapshot is
// available, runs the parked signal through the pipeline. The nudge expires
// on its own if the tab never responds.
type NudgeTask struct {
	Task
	tabs      *bridge.TabStore
	nudges    *bridge.NudgeStore
	extractor *extract.Extractor
	reducer   *cart.Reducer
	scheduler TaskSchedulerInterface
	hub       *bus.Hub
}

func NewNudgeTask(tabID string, tabs *bridge.TabStore, nudges *bridge.NudgeStore,
	extractor *extract.Extractor, reducer *cart.Reducer, scheduler TaskSchedulerInterface, hub *bus.Hub) *NudgeTask {
	task := NewTask(TaskTypeDeliverNudge, tabID)
	task.MaxRetries = len(nudgeRetrySchedule)
	task.RetrySchedule = nudgeRetrySchedule

	return &NudgeTask{
		Task:      task,
		tabs:      tabs,
		nudges:    nudges,
		extractor: extractor,
		reducer:   reducer,
		scheduler: scheduler,
		hub:       hub,
	}
}

func (t *NudgeTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	nudge, ok := t.nudges.Peek(t.TabID)
	if !ok {
		// Expired or already consumed; nothing to do.
		return nil
	}

	tab := t.tabs.Get(t.TabID)
	html, pageURL := tab.Snapshot()
	if len(html) == 0 {
		// Ask the tab to report its DOM, then come back on the schedule.
		t.hub.Publish(bus.Event{
			Type:  bus.EventNudge,
			TabID: t.TabID,
			Data: map[string]interface{}{
				"product_id": nudge.Signal.ProductID,
				"quantity":   nudge.Signal.Quantity,
				"url":        nudge.Signal.URL,
			},
		})
		return fmt.Errorf("content script not ready for tab %s", t.TabID)
	}

	nudge, ok = t.nudges.Take(t.TabID)
	if !ok {
		return nil
	}

	if !tab.MarkSent(nudge.Signal.URL) {
		return nil
	}

	runPipeline(ctx, nudge.Signal, tab, pageURL, html, t.extractor, t.reducer)

	slog.Info("Task completed",
		"type", "DeliverNudge",
		"tab", t.TabID,
		"duration", t.GetDuration(),
		"retries", t.GetRetryCount())

	return nil
}
