package api

import (
	"sync/atomic"
	"time"

	"github.com/onecart/onecart/app/bridge"
	"github.com/onecart/onecart/app/bus"
	"github.com/onecart/onecart/app/cart"
	"github.com/onecart/onecart/app/intent"
	"github.com/onecart/onecart/app/sites"
)

// Handler holds the HTTP surface's collaborators. Event ingress feeds the
// classifier and the pipeline; cart endpoints go straight to the reducer.
type Handler struct {
	classifier *intent.Classifier
	forwarder  *bridge.Forwarder
	tabs       *bridge.TabStore
	reducer    *cart.Reducer
	registry   *sites.Registry
	hub        *bus.Hub
	startedAt  time.Time

	clicksSeen      atomic.Int64
	clicksQualified atomic.Int64
	requestsSeen    atomic.Int64
	signalsEmitted  atomic.Int64
}

// SnapshotEvent is a DOM report from a content script. Navigated marks a page
// transition, which resets the per-page dedup state for the tab.
type SnapshotEvent struct {
	TabID     string `json:"tab_id"`
	PageURL   string `json:"page_url"`
	HTML      string `json:"html"`
	Navigated bool   `json:"navigated"`
}

// ModeRequest toggles the shopping-mode collection gate.
type ModeRequest struct {
	Enabled bool `json:"enabled"`
}

// DirectAddRequest is a manual add from a trusted UI surface, bypassing
// intent classification but not sanitization.
type DirectAddRequest struct {
	TabID  string             `json:"tab_id"`
	Source string             `json:"source"`
	Item   cart.ProductRecord `json:"item"`
}
