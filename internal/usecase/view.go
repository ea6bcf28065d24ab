package usecase

import (
	"context"
	"encoding/json"

	"StockView/internal/domain/models"
)

// Element IDs and classes the controller reads and writes.
const (
	IDStockSymbol    = "stockSymbol"
	IDStartDate      = "startDate"
	IDEndDate        = "endDate"
	IDStockInfo      = "stockInfo"
	IDStockSummary   = "stockSummary"
	IDChartContainer = "chartContainer"
	IDChart          = "chart"
	IDAnalysisGrid   = "analysisGrid"
	IDStatsPanel     = "statsPanel"
	IDErrorMessage   = "errorMessage"

	ClassAnalysisCard = "analysis-card"
	ClassFetchButton  = "fetch-btn"
)

// Display mirrors the CSS display values the page uses.
type Display string

const (
	DisplayNone  Display = "none"
	DisplayBlock Display = "block"
	DisplayGrid  Display = "grid"
)

// Button is the visible state of a trigger control.
type Button struct {
	Label    string `json:"label"`
	Icon     string `json:"icon"`
	Spin     bool   `json:"spin,omitempty"`
	Disabled bool   `json:"disabled"`
}

var (
	fetchIdle    = Button{Label: "Analyze", Icon: "fa-search"}
	fetchLoading = Button{Label: "Loading...", Icon: "fa-spinner", Spin: true, Disabled: true}
)

// View is the page surface, addressed by element ID or class.
// Implementations must be safe for concurrent use.
type View interface {
	Value(id string) string
	SetValue(id, value string)
	SetDisplay(id string, d Display)
	Clear(id string)
	SetCards(id, heading string, cards []models.Card)
	// SetAlert replaces the element content with a single error line.
	SetAlert(id, message string)
	SetButton(class string, b Button)
	// SetActive removes the active marker from every element of class, then marks key.
	// An empty key leaves all of them unmarked.
	SetActive(class, key string)
	Exists(id string) bool
	// CreateBanner inserts the global error banner element.
	CreateBanner(id string)
}

// PlotConfig is the third argument of the plotting call.
type PlotConfig struct {
	Responsive bool `json:"responsive"`
}

// Charter draws a chart payload into a container.
type Charter interface {
	NewPlot(containerID string, data json.RawMessage, layout map[string]any, cfg PlotConfig) error
}

// EventType is a DOM event name.
type EventType string

const (
	EventClick    EventType = "click"
	EventKeyPress EventType = "keypress"
	EventResize   EventType = "resize"
)

// UIEvent is what the host reports for a user interaction.
type UIEvent struct {
	Type EventType `json:"type" validate:"required,oneof=click keypress resize"`

	// Class of the element that fired; empty for document and window events.
	Class string `json:"class,omitempty" validate:"max=64"`

	// Target identifies the element within its class, e.g. the analysis type of a card.
	Target string            `json:"target,omitempty" validate:"max=64"`
	Key    string            `json:"key,omitempty" validate:"max=32"`
	Values map[string]string `json:"values,omitempty"`
}

// Handler reacts to one event.
type Handler func(ctx context.Context, ev UIEvent)

// Host is the environment that delivers UI events.
type Host interface {
	// On registers h for events of type t fired by elements of class.
	// An empty class matches document and window events.
	On(t EventType, class string, h Handler)
}
