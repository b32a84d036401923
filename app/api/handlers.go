package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onecart/onecart/app/bridge"
	"github.com/onecart/onecart/app/bus"
	"github.com/onecart/onecart/app/cart"
	"github.com/onecart/onecart/app/cfg"
	"github.com/onecart/onecart/app/intent"
	"github.com/onecart/onecart/app/sites"
)

func NewHandler(classifier *intent.Classifier, forwarder *bridge.Forwarder,
	tabs *bridge.TabStore, reducer *cart.Reducer, registry *sites.Registry,
	hub *bus.Hub) *Handler {
	return &Handler{
		classifier: classifier,
		forwarder:  forwarder,
		tabs:       tabs,
		reducer:    reducer,
		registry:   registry,
		hub:        hub,
		startedAt:  time.Now(),
	}
}

// PostClickEvent ingests one UI click observation. The reply only says
// whether the click qualified; signals are never emitted from clicks alone.
func (h *Handler) PostClickEvent(c *gin.Context) {
	var ev intent.ClickEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid click event payload"})
		return
	}
	if ev.TabID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tab_id"})
		return
	}

	h.clicksSeen.Add(1)
	qualified := h.classifier.ObserveClick(ev)
	if qualified {
		h.clicksQualified.Add(1)
	}

	c.JSON(http.StatusOK, gin.H{"qualified": qualified})
}

// PostNetworkEvent ingests one observed outgoing request. When the classifier
// promotes it to an add signal, the signal is forwarded into the pipeline.
func (h *Handler) PostNetworkEvent(c *gin.Context) {
	var ev intent.NetworkEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid network event payload"})
		return
	}
	if ev.TabID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tab_id"})
		return
	}

	h.requestsSeen.Add(1)
	signal, ok := h.classifier.ObserveNetwork(ev)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"signal": false})
		return
	}
	h.signalsEmitted.Add(1)

	forwarded := h.forwarder.Forward(*signal)
	c.JSON(http.StatusOK, gin.H{"signal": true, "forwarded": forwarded})
}

// PostSnapshotEvent stores a tab's latest DOM report and wakes any pipeline
// run waiting for the page to settle.
func (h *Handler) PostSnapshotEvent(c *gin.Context) {
	var ev SnapshotEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid snapshot payload"})
		return
	}
	if ev.TabID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tab_id"})
		return
	}

	h.tabs.Get(ev.TabID).UpdateSnapshot(ev.PageURL, []byte(ev.HTML), ev.Navigated)
	if ev.Navigated {
		h.classifier.ResetTab(ev.TabID)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DeleteTab forgets a closed tab's state.
func (h *Handler) DeleteTab(c *gin.Context) {
	tabID := c.Param("id")
	if tabID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tab id"})
		return
	}

	h.tabs.Drop(tabID)
	h.classifier.ResetTab(tabID)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetCart returns the current persisted cart list.
func (h *Handler) GetCart(c *gin.Context) {
	items, err := h.reducer.Items()
	if err != nil {
		slog.Error("Failed to load cart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
		"mode":  h.reducer.ModeEnabled(),
	})
}

// PostCartItem adds one record directly, e.g. from a popup UI acting on the
// user's behalf. The record still passes sanitization and dedup-merge.
func (h *Handler) PostCartItem(c *gin.Context) {
	var req DirectAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid add payload"})
		return
	}

	source := req.Source
	if source == "" {
		source = "manual"
	}

	ack := h.reducer.AddItem(req.Item, cart.AddOptions{
		TabID:       req.TabID,
		Source:      source,
		ModeEnabled: h.reducer.ModeEnabled(),
	})

	status := http.StatusOK
	if !ack.OK {
		status = http.StatusInternalServerError
	}
	c.JSON(status, ack)
}

// DeleteCartItem removes one entry by id or link key. Unknown ids succeed.
func (h *Handler) DeleteCartItem(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing item id"})
		return
	}

	ack := h.reducer.RemoveItem(id)

	status := http.StatusOK
	if !ack.OK {
		status = http.StatusInternalServerError
	}
	c.JSON(status, ack)
}

// DeleteCart empties the cart.
func (h *Handler) DeleteCart(c *gin.Context) {
	ack := h.reducer.Clear()

	status := http.StatusOK
	if !ack.OK {
		status = http.StatusInternalServerError
	}
	c.JSON(status, ack)
}

// PutMode toggles the collection gate. The new value takes effect on the next
// add; in-flight pipeline runs keep the gate they started with.
func (h *Handler) PutMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mode payload"})
		return
	}

	if err := h.reducer.SetMode(req.Enabled); err != nil {
		slog.Error("Failed to persist shopping mode", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "enabled": req.Enabled})
}

// GetStream serves broadcast events over SSE. An optional ?tab=<id> query
// filters to events addressed to that tab plus process-wide ones.
func (h *Handler) GetStream(c *gin.Context) {
	tabFilter := c.Query("tab")

	events, cancel := h.hub.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			if tabFilter != "" && event.TabID != "" && event.TabID != tabFilter {
				return true
			}
			c.SSEvent(event.Type, event)
			return true
		}
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	}

	if items, err := h.reducer.Items(); err == nil {
		health["cart_items"] = len(items)
	}

	health["loaded_sites"] = h.registry.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	cfg := cfg.Get()

	items, err := h.reducer.Items()
	if err != nil {
		slog.Error("Failed to load cart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"version":      cfg.Version,
		"cart_items":   len(items),
		"mode_enabled": h.reducer.ModeEnabled(),
		"tabs":         h.tabs.Count(),
		"subscribers":  h.hub.SubscriberCount(),
		"sites":        h.registry.GetConfigCount(),
		"classifier": gin.H{
			"clicks_seen":      h.clicksSeen.Load(),
			"clicks_qualified": h.clicksQualified.Load(),
			"requests_seen":    h.requestsSeen.Load(),
			"signals_emitted":  h.signalsEmitted.Load(),
		},
		"settings": gin.H{
			"click_window":   cfg.ClickWindow().String(),
			"debounce":       cfg.Debounce().String(),
			"settle_timeout": cfg.SettleTimeout().String(),
			"notify_window":  cfg.NotifyWindow().String(),
		},
	})
}
