package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"StockView/internal/domain/models"
)

type fakeView struct {
	mu       sync.Mutex
	values   map[string]string
	display  map[string]Display
	cards    map[string][]models.Card
	headings map[string]string
	alerts   map[string]string
	exists   map[string]bool
	active   map[string]string
	buttons  []Button
	cleared  []string
}

func newFakeView() *fakeView {
	v := &fakeView{
		values:   map[string]string{},
		display:  map[string]Display{},
		cards:    map[string][]models.Card{},
		headings: map[string]string{},
		alerts:   map[string]string{},
		exists:   map[string]bool{},
		active:   map[string]string{},
	}
	for _, id := range []string{IDStockSymbol, IDStartDate, IDEndDate, IDStockInfo, IDStockSummary,
		IDChartContainer, IDChart, IDAnalysisGrid, IDStatsPanel} {
		v.exists[id] = true
	}
	return v
}

func (v *fakeView) Value(id string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.values[id]
}

func (v *fakeView) SetValue(id, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[id] = value
}

func (v *fakeView) SetDisplay(id string, d Display) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.display[id] = d
}

func (v *fakeView) Clear(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.cards, id)
	delete(v.alerts, id)
	v.cleared = append(v.cleared, id)
}

func (v *fakeView) SetCards(id, heading string, cards []models.Card) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cards[id] = cards
	v.headings[id] = heading
	delete(v.alerts, id)
}

func (v *fakeView) SetAlert(id, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts[id] = message
	delete(v.cards, id)
}

func (v *fakeView) SetButton(_ string, b Button) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.buttons = append(v.buttons, b)
}

func (v *fakeView) SetActive(class, key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active[class] = key
}

func (v *fakeView) Exists(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.exists[id]
}

func (v *fakeView) CreateBanner(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.exists[id] = true
}

func (v *fakeView) alert(id string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.alerts[id]
}

func (v *fakeView) shown(id string) Display {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.display[id]
}

type plotCall struct {
	container string
	data      json.RawMessage
	layout    map[string]any
	cfg       PlotConfig
}

type fakeCharter struct {
	mu    sync.Mutex
	plots []plotCall
	err   error
}

func (c *fakeCharter) NewPlot(containerID string, data json.RawMessage, layout map[string]any, cfg PlotConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.plots = append(c.plots, plotCall{containerID, data, layout, cfg})
	return nil
}

func (c *fakeCharter) calls() []plotCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]plotCall(nil), c.plots...)
}

type analysisCall struct {
	typ   models.AnalysisType
	query models.StockQuery
}

type fakeAPI struct {
	mu            sync.Mutex
	fetchCalls    []models.StockQuery
	analysisCalls []analysisCall

	fetch    func(ctx context.Context, q models.StockQuery) (*models.StockSummary, error)
	analysis func(ctx context.Context, t models.AnalysisType, q models.StockQuery) (*models.AnalysisResult, error)
}

func (a *fakeAPI) FetchStockData(ctx context.Context, q models.StockQuery) (*models.StockSummary, error) {
	a.mu.Lock()
	a.fetchCalls = append(a.fetchCalls, q)
	fn := a.fetch
	a.mu.Unlock()
	if fn == nil {
		return &models.StockSummary{Success: true, Currency: "$", LatestPrice: 190.5, PriceChange: 2.25, PriceChangePct: 1.2, DataPoints: 124}, nil
	}
	return fn(ctx, q)
}

func (a *fakeAPI) RunAnalysis(ctx context.Context, t models.AnalysisType, q models.StockQuery) (*models.AnalysisResult, error) {
	a.mu.Lock()
	a.analysisCalls = append(a.analysisCalls, analysisCall{t, q})
	fn := a.analysis
	a.mu.Unlock()
	if fn == nil {
		return validResult(), nil
	}
	return fn(ctx, t, q)
}

func (a *fakeAPI) counts() (fetches, analyses int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.fetchCalls), len(a.analysisCalls)
}

func validResult() *models.AnalysisResult {
	return &models.AnalysisResult{ChartData: &models.ChartPayload{
		Data:   json.RawMessage(`[{"x":["2024-01-02"],"y":[185.6],"type":"scatter"}]`),
		Layout: map[string]any{"title": "AAPL", "width": 900},
	}}
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors []string
}

func (m *fakeMetrics) RecordBackendCall(string, string, float64) {}

func (m *fakeMetrics) RecordUIError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *fakeMetrics) SessionOpened() {}

func (m *fakeMetrics) SessionClosed() {}

type registration struct {
	typ   EventType
	class string
	h     Handler
}

type fakeHost struct {
	handlers []registration
}

func (h *fakeHost) On(t EventType, class string, fn Handler) {
	h.handlers = append(h.handlers, registration{t, class, fn})
}

func (h *fakeHost) fire(ctx context.Context, ev UIEvent) {
	for _, r := range h.handlers {
		if r.typ == ev.Type && r.class == ev.Class {
			r.h(ctx, ev)
		}
	}
}
