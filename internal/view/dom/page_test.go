package dom

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockView/internal/domain/models"
	"StockView/internal/usecase"
)

func TestNewPageInitialState(t *testing.T) {
	p := NewPage()

	assert.False(t, p.Exists(usecase.IDErrorMessage))
	for _, id := range []string{usecase.IDStockInfo, usecase.IDChartContainer, usecase.IDAnalysisGrid, usecase.IDStatsPanel} {
		e, ok := p.Element(id)
		require.True(t, ok, id)
		assert.Equal(t, usecase.DisplayNone, e.Display, id)
	}
	assert.Empty(t, p.Flush())
}

func TestPageQueuesPatches(t *testing.T) {
	p := NewPage()
	p.SetValue(usecase.IDEndDate, "2024-06-30")
	p.SetDisplay(usecase.IDStockInfo, usecase.DisplayBlock)
	p.SetActive(usecase.ClassAnalysisCard, "price")

	assert.Equal(t, []Patch{
		{Op: OpValue, ID: usecase.IDEndDate, Value: "2024-06-30"},
		{Op: OpDisplay, ID: usecase.IDStockInfo, Display: "block"},
		{Op: OpActive, Class: usecase.ClassAnalysisCard, Key: "price"},
	}, p.Flush())
	assert.Empty(t, p.Flush())
	assert.Equal(t, "2024-06-30", p.Value(usecase.IDEndDate))
	assert.Equal(t, "price", p.Active(usecase.ClassAnalysisCard))
}

func TestSyncValuesQueuesNothing(t *testing.T) {
	p := NewPage()
	p.SyncValues(map[string]string{usecase.IDStockSymbol: "AAPL", "unknown": "x"})

	assert.Equal(t, "AAPL", p.Value(usecase.IDStockSymbol))
	assert.False(t, p.Exists("unknown"))
	assert.Empty(t, p.Flush())
}

func TestSetCardsEscapesAndStyles(t *testing.T) {
	p := NewPage()
	p.SetCards(usecase.IDStatsPanel, "Trend", []models.Card{
		{Value: "<b>up</b>", Label: "Trend Direction", Background: "linear-gradient(135deg, #667eea 0%, #764ba2 100%)"},
		{Value: "$3.50", Label: "Price Change", Icon: "fa-arrow-down", Background: "#f44336", Foreground: "white"},
	})

	patches := p.Flush()
	require.Len(t, patches, 1)
	html := patches[0].HTML
	assert.Equal(t, OpHTML, patches[0].Op)
	assert.Contains(t, html, "<h3")
	assert.Contains(t, html, "Trend</h3>")
	assert.Contains(t, html, "&lt;b&gt;up&lt;/b&gt;")
	assert.Contains(t, html, "linear-gradient(135deg, #667eea 0%, #764ba2 100%)")
	assert.Contains(t, html, `style="background: #f44336; color: white"`)
	assert.Contains(t, html, `<i class="fas fa-arrow-down"></i> $3.50`)
	assert.NotContains(t, html, "ZgotmplZ")

	e, _ := p.Element(usecase.IDStatsPanel)
	assert.Len(t, e.Cards, 2)
	assert.Equal(t, "Trend", e.Heading)
}

func TestSetAlertReplacesContent(t *testing.T) {
	p := NewPage()
	p.SetCards(usecase.IDChart, "", []models.Card{{Value: "1"}})
	p.SetAlert(usecase.IDChart, `Unknown analysis type: <x>`)

	e, _ := p.Element(usecase.IDChart)
	assert.Empty(t, e.Cards)
	assert.Equal(t, "Unknown analysis type: <x>", e.Alert)
	assert.Contains(t, e.HTML, `class="error"`)
	assert.Contains(t, e.HTML, "&lt;x&gt;")
}

func TestButtonPatch(t *testing.T) {
	p := NewPage()
	p.SetButton(usecase.ClassFetchButton, usecase.Button{Label: "Loading...", Icon: "fa-spinner", Spin: true, Disabled: true})

	patches := p.Flush()
	require.Len(t, patches, 1)
	assert.Equal(t, OpButton, patches[0].Op)
	assert.True(t, patches[0].Disabled)
	assert.Equal(t, `<i class="fas fa-spinner fa-spin"></i> Loading...`, patches[0].HTML)

	b, ok := p.Button(usecase.ClassFetchButton)
	require.True(t, ok)
	assert.Equal(t, "Loading...", b.Label)
}

func TestCreateBannerOnce(t *testing.T) {
	p := NewPage()
	p.CreateBanner(usecase.IDErrorMessage)
	p.CreateBanner(usecase.IDErrorMessage)

	assert.True(t, p.Exists(usecase.IDErrorMessage))
	assert.Equal(t, []Patch{{Op: OpBanner, ID: usecase.IDErrorMessage}}, p.Flush())
}

func TestPlotRecorder(t *testing.T) {
	p := NewPage()
	r := NewPlotRecorder(p)
	data := json.RawMessage(`[{"y":[1,2]}]`)

	require.NoError(t, r.NewPlot(usecase.IDChart, data, map[string]any{"autosize": true}, usecase.PlotConfig{Responsive: true}))

	patches := p.Flush()
	require.Len(t, patches, 1)
	assert.Equal(t, OpPlot, patches[0].Op)
	require.NotNil(t, patches[0].Plot)
	assert.JSONEq(t, `{"data":[{"y":[1,2]}],"layout":{"autosize":true},"config":{"responsive":true}}`, mustJSON(t, patches[0].Plot))

	p.Clear(usecase.IDChart)
	e, _ := p.Element(usecase.IDChart)
	assert.Nil(t, e.Plot)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestChangesSignalsCoalesce(t *testing.T) {
	p := NewPage()
	select {
	case <-p.Changes():
		t.Fatal("unexpected signal on a fresh page")
	default:
	}

	p.SetValue(usecase.IDStockSymbol, "A")
	p.SetValue(usecase.IDStockSymbol, "AB")

	select {
	case <-p.Changes():
	default:
		t.Fatal("expected a change signal")
	}
	select {
	case <-p.Changes():
		t.Fatal("signals should coalesce")
	default:
	}
	assert.Len(t, p.Flush(), 2)
}
