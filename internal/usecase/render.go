package usecase

import (
	"fmt"
	"math"
	"strconv"

	"StockView/internal/domain/models"
)

const (
	colorGain = "#4CAF50"
	colorLoss = "#f44336"

	iconUp   = "fa-arrow-up"
	iconDown = "fa-arrow-down"

	RegressionHeading = "Trend Analysis Statistics"
)

var statGradients = [3]string{
	"linear-gradient(135deg, #667eea 0%, #764ba2 100%)",
	"linear-gradient(135deg, #f093fb 0%, #f5576c 100%)",
	"linear-gradient(135deg, #4ECDC4 0%, #44A08D 100%)",
}

// RenderStockSummary builds the four summary cards. Money and percentages use two decimals;
// the change card carries the sign through its color and icon.
func RenderStockSummary(s *models.StockSummary, fallbackCurrency string) []models.Card {
	cur := s.Currency
	if cur == "" {
		cur = fallbackCurrency
	}

	change := models.Card{
		Value:      fmt.Sprintf("%s%.2f", cur, math.Abs(s.PriceChange)),
		Label:      "Price Change",
		Icon:       iconUp,
		Background: colorGain,
		Foreground: "white",
	}
	if s.PriceChange < 0 {
		change.Icon = iconDown
		change.Background = colorLoss
	}

	return []models.Card{
		{Value: fmt.Sprintf("%s%.2f", cur, s.LatestPrice), Label: "Latest Price"},
		change,
		{Value: fmt.Sprintf("%.2f%%", math.Abs(s.PriceChangePct)), Label: "Percentage Change"},
		{Value: strconv.Itoa(s.DataPoints), Label: "Data Points"},
	}
}

// RenderRegressionStats shows the precomputed values as sent.
func RenderRegressionStats(st *models.RegressionStats) []models.Card {
	return []models.Card{
		{Value: st.TrendDirection, Label: "Trend Direction", Background: statGradients[0]},
		{Value: formatNumber(st.Slope), Label: "Slope", Background: statGradients[1]},
		{Value: formatNumber(st.Intercept), Label: "Intercept", Background: statGradients[2]},
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NormalizeLayout returns a copy of layout sized by its container.
func NormalizeLayout(layout map[string]any) map[string]any {
	out := make(map[string]any, len(layout)+4)
	for k, v := range layout {
		out[k] = v
	}
	out["autosize"] = true
	out["width"] = nil
	out["height"] = nil
	out["margin"] = map[string]any{"l": 60, "r": 40, "b": 60, "t": 40, "pad": 4}
	return out
}
