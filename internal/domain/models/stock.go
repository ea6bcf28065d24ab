package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StockQuery identifies one fetched dataset. It doubles as the request body for both
// backend endpoints.
type StockQuery struct {
	Symbol    string `json:"symbol" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// StockSummary is the /api/stock-data response.
type StockSummary struct {
	Success        bool    `json:"success"`
	Currency       string  `json:"currency,omitempty"`
	LatestPrice    float64 `json:"latest_price"`
	PriceChange    float64 `json:"price_change"`
	PriceChangePct float64 `json:"price_change_pct"`
	DataPoints     int     `json:"data_points"`
	Error          string  `json:"error,omitempty"`
}

// AnalysisResult is the /api/analysis/{type} response.
type AnalysisResult struct {
	ChartData *ChartPayload    `json:"chart_data,omitempty"`
	Stats     *RegressionStats `json:"stats,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// ChartPayload is handed to the plotting library untouched, except for layout overrides.
type ChartPayload struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Layout map[string]any  `json:"layout,omitempty"`
}

// Valid reports whether a layout was sent and data is a trace array.
func (p *ChartPayload) Valid() bool {
	if p == nil || p.Layout == nil {
		return false
	}
	d := bytes.TrimSpace(p.Data)
	return len(d) > 0 && d[0] == '['
}

// RegressionStats are precomputed by the backend for the regression analysis.
type RegressionStats struct {
	TrendDirection string  `json:"trend_direction"`
	Slope          float64 `json:"slope"`
	Intercept      float64 `json:"intercept"`
}

// AnalysisType is a server-recognized analysis kind.
type AnalysisType string

const (
	AnalysisPrice         AnalysisType = "price"
	AnalysisMovingAverage AnalysisType = "moving-average"
	AnalysisVolume        AnalysisType = "volume"
	AnalysisRegression    AnalysisType = "regression"
)

// AnalysisTypes lists every kind in display order.
var AnalysisTypes = []AnalysisType{
	AnalysisPrice,
	AnalysisMovingAverage,
	AnalysisVolume,
	AnalysisRegression,
}

// ParseAnalysisType validates s against the known kinds.
func ParseAnalysisType(s string) (AnalysisType, error) {
	for _, t := range AnalysisTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", &ValidationError{Message: fmt.Sprintf("Unknown analysis type: %s", s)}
}

// Title is the card heading shown on the page.
func (t AnalysisType) Title() string {
	switch t {
	case AnalysisPrice:
		return "Stock Price"
	case AnalysisMovingAverage:
		return "Moving Averages"
	case AnalysisVolume:
		return "Volume Analysis"
	case AnalysisRegression:
		return "Trend Analysis"
	default:
		return string(t)
	}
}

// Card is one rendered summary tile.
type Card struct {
	Value      string
	Label      string
	Icon       string
	Background string
	Foreground string
}
