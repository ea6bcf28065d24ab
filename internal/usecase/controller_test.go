package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockView/internal/domain/models"
	drepo "StockView/internal/domain/repository"
)

type fixture struct {
	view    *fakeView
	charter *fakeCharter
	api     *fakeAPI
	metrics *fakeMetrics
	ctrl    *Controller
	states  []drepo.SessionState
}

func newFixture(t *testing.T, opts ...ControllerOption) *fixture {
	t.Helper()
	f := &fixture{
		view:    newFakeView(),
		charter: &fakeCharter{},
		api:     &fakeAPI{},
		metrics: &fakeMetrics{},
	}
	opts = append([]ControllerOption{
		WithMetrics(f.metrics),
		WithFallbackCurrency("$"),
		WithStateListener(func(st drepo.SessionState) { f.states = append(f.states, st) }),
	}, opts...)
	f.ctrl = NewController(f.api, f.view, f.charter, opts...)
	return f
}

func (f *fixture) fillQuery() {
	f.view.SetValue(IDStockSymbol, " AAPL ")
	f.view.SetValue(IDStartDate, "2024-01-01")
	f.view.SetValue(IDEndDate, "2024-06-30")
}

func (f *fixture) fetched(t *testing.T) {
	t.Helper()
	f.fillQuery()
	require.NoError(t, f.ctrl.FetchStockData(context.Background()))
}

func TestInitSetsEndDateToToday(t *testing.T) {
	f := newFixture(t, WithClock(func() time.Time { return time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC) }))
	f.ctrl.Init(context.Background())
	assert.Equal(t, "2024-03-09", f.view.Value(IDEndDate))
}

func TestFetchStockDataValidation(t *testing.T) {
	tests := []struct {
		name             string
		symbol, from, to string
	}{
		{"empty symbol", "", "2024-01-01", "2024-06-30"},
		{"blank symbol", "   ", "2024-01-01", "2024-06-30"},
		{"no start", "AAPL", "", "2024-06-30"},
		{"no end", "AAPL", "2024-01-01", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.view.SetValue(IDStockSymbol, tt.symbol)
			f.view.SetValue(IDStartDate, tt.from)
			f.view.SetValue(IDEndDate, tt.to)

			err := f.ctrl.FetchStockData(context.Background())

			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			fetches, _ := f.api.counts()
			assert.Zero(t, fetches)
			assert.Equal(t, models.MsgFillAllFields, f.view.alert(IDErrorMessage))
			assert.Equal(t, DisplayBlock, f.view.shown(IDErrorMessage))
			assert.Empty(t, f.view.buttons)
			assert.Equal(t, []string{"validation"}, f.metrics.errors)
		})
	}
}

func TestFetchStockDataSuccess(t *testing.T) {
	f := newFixture(t)
	f.view.CreateBanner(IDErrorMessage)
	f.view.SetDisplay(IDErrorMessage, DisplayBlock)
	f.fillQuery()

	require.NoError(t, f.ctrl.FetchStockData(context.Background()))

	require.Len(t, f.api.fetchCalls, 1)
	assert.Equal(t, models.StockQuery{Symbol: "AAPL", StartDate: "2024-01-01", EndDate: "2024-06-30"}, f.api.fetchCalls[0])

	cards := f.view.cards[IDStockSummary]
	require.Len(t, cards, 4)
	assert.Equal(t, "$190.50", cards[0].Value)
	assert.Equal(t, "$2.25", cards[1].Value)
	assert.Equal(t, "1.20%", cards[2].Value)
	assert.Equal(t, "124", cards[3].Value)

	assert.Equal(t, DisplayBlock, f.view.shown(IDStockInfo))
	assert.Equal(t, DisplayNone, f.view.shown(IDChartContainer))
	assert.Equal(t, DisplayGrid, f.view.shown(IDAnalysisGrid))
	assert.Equal(t, DisplayNone, f.view.shown(IDErrorMessage))
	assert.Equal(t, []Button{fetchLoading, fetchIdle}, f.view.buttons)

	st := f.ctrl.State()
	require.NotNil(t, st.Query)
	assert.Equal(t, "AAPL", st.Query.Symbol)
	require.Len(t, f.states, 1)
	assert.Equal(t, st, f.states[0])
}

func TestFetchStockDataFailures(t *testing.T) {
	tests := []struct {
		name    string
		fetch   func(context.Context, models.StockQuery) (*models.StockSummary, error)
		message string
		kind    string
	}{
		{
			name: "logical failure",
			fetch: func(context.Context, models.StockQuery) (*models.StockSummary, error) {
				return &models.StockSummary{Success: false, Error: "No data found for symbol"}, nil
			},
			message: "No data found for symbol",
			kind:    "api",
		},
		{
			name: "logical failure without message",
			fetch: func(context.Context, models.StockQuery) (*models.StockSummary, error) {
				return &models.StockSummary{Success: false}, nil
			},
			message: models.MsgFetchFailed,
			kind:    "api",
		},
		{
			name: "http status",
			fetch: func(context.Context, models.StockQuery) (*models.StockSummary, error) {
				return nil, &models.HTTPError{Status: 500}
			},
			message: "HTTP error! status: 500",
			kind:    "http",
		},
		{
			name: "network",
			fetch: func(context.Context, models.StockQuery) (*models.StockSummary, error) {
				return nil, &models.NetworkError{Err: errors.New("connection refused")}
			},
			message: "connection refused",
			kind:    "network",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.api.fetch = tt.fetch
			f.fillQuery()

			err := f.ctrl.FetchStockData(context.Background())

			require.Error(t, err)
			assert.Equal(t, tt.kind, models.Kind(err))
			assert.Equal(t, tt.message, f.view.alert(IDErrorMessage))
			assert.Equal(t, DisplayBlock, f.view.shown(IDErrorMessage))
			assert.Nil(t, f.ctrl.State().Query)
			assert.Empty(t, f.view.cards[IDStockSummary])
			assert.Equal(t, []Button{fetchLoading, fetchIdle}, f.view.buttons)
		})
	}
}

func TestFetchStockDataFailureKeepsPreviousQuery(t *testing.T) {
	f := newFixture(t)
	f.fetched(t)

	f.api.fetch = func(context.Context, models.StockQuery) (*models.StockSummary, error) {
		return nil, &models.HTTPError{Status: 404}
	}
	f.view.SetValue(IDStockSymbol, "MSFT")
	require.Error(t, f.ctrl.FetchStockData(context.Background()))

	assert.Equal(t, "AAPL", f.ctrl.State().Query.Symbol)
}

func TestFetchStockDataWhileFetching(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	f.api.fetch = func(context.Context, models.StockQuery) (*models.StockSummary, error) {
		close(started)
		<-release
		return &models.StockSummary{Success: true, DataPoints: 1}, nil
	}
	f.fillQuery()

	done := make(chan error, 1)
	go func() { done <- f.ctrl.FetchStockData(context.Background()) }()
	<-started

	assert.ErrorIs(t, f.ctrl.FetchStockData(context.Background()), ErrFetchInProgress)

	close(release)
	require.NoError(t, <-done)
	fetches, _ := f.api.counts()
	assert.Equal(t, 1, fetches)
}

func TestFetchStockDataCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.api.fetch = func(ctx context.Context, _ models.StockQuery) (*models.StockSummary, error) {
		cancel()
		return nil, ctx.Err()
	}
	f.fillQuery()

	err := f.ctrl.FetchStockData(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.view.Exists(IDErrorMessage))
	assert.Equal(t, []Button{fetchLoading, fetchIdle}, f.view.buttons)
}

func TestLoadAnalysisRequiresFetch(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.LoadAnalysis(context.Background(), models.AnalysisPrice, nil)

	var se *models.StateError
	require.ErrorAs(t, err, &se)
	_, analyses := f.api.counts()
	assert.Zero(t, analyses)
	assert.Equal(t, models.MsgFetchFirst, f.view.alert(IDErrorMessage))
	assert.Empty(t, f.charter.calls())
}

func TestLoadAnalysisRendersChart(t *testing.T) {
	f := newFixture(t)
	f.fetched(t)

	ev := &UIEvent{Type: EventClick, Class: ClassAnalysisCard, Target: "price"}
	require.NoError(t, f.ctrl.LoadAnalysis(context.Background(), models.AnalysisPrice, ev))

	require.Len(t, f.api.analysisCalls, 1)
	assert.Equal(t, models.AnalysisPrice, f.api.analysisCalls[0].typ)
	assert.Equal(t, "AAPL", f.api.analysisCalls[0].query.Symbol)

	plots := f.charter.calls()
	require.Len(t, plots, 1)
	assert.Equal(t, IDChart, plots[0].container)
	assert.True(t, plots[0].cfg.Responsive)
	assert.Equal(t, "AAPL", plots[0].layout["title"])
	assert.Equal(t, true, plots[0].layout["autosize"])
	assert.Nil(t, plots[0].layout["width"])

	assert.Equal(t, "price", f.view.active[ClassAnalysisCard])
	assert.Equal(t, DisplayBlock, f.view.shown(IDChartContainer))
	assert.Equal(t, DisplayNone, f.view.shown(IDStatsPanel))
	assert.Contains(t, f.view.cleared, IDChart)
	assert.Equal(t, models.AnalysisPrice, f.ctrl.State().Analysis)
}

func TestLoadAnalysisRegressionStats(t *testing.T) {
	f := newFixture(t)
	f.fetched(t)
	f.api.analysis = func(context.Context, models.AnalysisType, models.StockQuery) (*models.AnalysisResult, error) {
		res := validResult()
		res.Stats = &models.RegressionStats{TrendDirection: "Upward", Slope: 0.4213, Intercept: 150.2}
		return res, nil
	}

	require.NoError(t, f.ctrl.LoadAnalysis(context.Background(), models.AnalysisRegression, nil))

	cards := f.view.cards[IDStatsPanel]
	require.Len(t, cards, 3)
	assert.Equal(t, "Upward", cards[0].Value)
	assert.Equal(t, "0.4213", cards[1].Value)
	assert.Equal(t, "150.2", cards[2].Value)
	assert.Equal(t, RegressionHeading, f.view.headings[IDStatsPanel])
	assert.Equal(t, DisplayGrid, f.view.shown(IDStatsPanel))
}

func TestLoadAnalysisStatsIgnoredForOtherTypes(t *testing.T) {
	f := newFixture(t)
	f.fetched(t)
	f.api.analysis = func(context.Context, models.AnalysisType, models.StockQuery) (*models.AnalysisResult, error) {
		res := validResult()
		res.Stats = &models.RegressionStats{TrendDirection: "Upward"}
		return res, nil
	}

	require.NoError(t, f.ctrl.LoadAnalysis(context.Background(), models.AnalysisVolume, nil))

	assert.Empty(t, f.view.cards[IDStatsPanel])
	assert.Equal(t, DisplayNone, f.view.shown(IDStatsPanel))
}

func TestLoadAnalysisFailuresRenderInline(t *testing.T) {
	tests := []struct {
		name    string
		result  *models.AnalysisResult
		err     error
		message string
		kind    string
	}{
		{"backend error field", &models.AnalysisResult{Error: "Not enough data"}, nil, "Not enough data", "api"},
		{"missing chart data", &models.AnalysisResult{}, nil, models.MsgInvalidChartData, "data"},
		{"missing layout", &models.AnalysisResult{ChartData: &models.ChartPayload{Data: []byte(`[]`)}}, nil, models.MsgInvalidChartData, "data"},
		{"null data", &models.AnalysisResult{ChartData: &models.ChartPayload{Data: []byte(`null`), Layout: map[string]any{}}}, nil, models.MsgInvalidChartData, "data"},
		{"http status", nil, &models.HTTPError{Status: 502}, "HTTP error! status: 502", "http"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.fetched(t)
			f.api.analysis = func(context.Context, models.AnalysisType, models.StockQuery) (*models.AnalysisResult, error) {
				return tt.result, tt.err
			}

			err := f.ctrl.LoadAnalysis(context.Background(), models.AnalysisMovingAverage, nil)

			require.Error(t, err)
			assert.Equal(t, tt.kind, models.Kind(err))
			assert.Empty(t, f.charter.calls())
			assert.Equal(t, tt.message, f.view.alert(IDChart))
			assert.False(t, f.view.Exists(IDErrorMessage))
			assert.NotEqual(t, DisplayBlock, f.view.shown(IDErrorMessage))
		})
	}
}

func TestLoadAnalysisSupersededResultIsDropped(t *testing.T) {
	f := newFixture(t)
	f.fetched(t)

	started := make(chan struct{})
	release := make(chan struct{})
	f.api.analysis = func(_ context.Context, typ models.AnalysisType, _ models.StockQuery) (*models.AnalysisResult, error) {
		if typ == models.AnalysisPrice {
			close(started)
			<-release
			res := validResult()
			res.ChartData.Layout = map[string]any{"title": "stale"}
			return res, nil
		}
		return validResult(), nil
	}

	done := make(chan error, 1)
	go func() { done <- f.ctrl.LoadAnalysis(context.Background(), models.AnalysisPrice, nil) }()
	<-started

	require.NoError(t, f.ctrl.LoadAnalysis(context.Background(), models.AnalysisVolume, nil))
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	plots := f.charter.calls()
	require.Len(t, plots, 1)
	assert.Equal(t, "AAPL", plots[0].layout["title"])
	assert.Equal(t, models.AnalysisVolume, f.ctrl.State().Analysis)
}

func TestLoadAnalysisCancelsInFlight(t *testing.T) {
	f := newFixture(t)
	f.fetched(t)

	started := make(chan struct{})
	canceled := make(chan struct{})
	f.api.analysis = func(ctx context.Context, typ models.AnalysisType, _ models.StockQuery) (*models.AnalysisResult, error) {
		if typ == models.AnalysisPrice {
			close(started)
			<-ctx.Done()
			close(canceled)
			return nil, ctx.Err()
		}
		return validResult(), nil
	}

	done := make(chan error, 1)
	go func() { done <- f.ctrl.LoadAnalysis(context.Background(), models.AnalysisPrice, nil) }()
	<-started

	require.NoError(t, f.ctrl.LoadAnalysis(context.Background(), models.AnalysisRegression, nil))

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("in-flight analysis was not canceled")
	}
	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Empty(t, f.view.alert(IDChart))
}

func TestResizeReloadsCurrentAnalysis(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.Resize(context.Background()))
	_, analyses := f.api.counts()
	assert.Zero(t, analyses)

	f.fetched(t)
	ev := &UIEvent{Type: EventClick, Class: ClassAnalysisCard, Target: "volume"}
	require.NoError(t, f.ctrl.LoadAnalysis(context.Background(), models.AnalysisVolume, ev))
	require.NoError(t, f.ctrl.Resize(context.Background()))

	require.Len(t, f.api.analysisCalls, 2)
	assert.Equal(t, f.api.analysisCalls[0], f.api.analysisCalls[1])
	assert.Equal(t, "", f.view.active[ClassAnalysisCard])
}

func TestBindDispatchesEvents(t *testing.T) {
	f := newFixture(t)
	h := &fakeHost{}
	f.ctrl.Bind(h)
	ctx := context.Background()
	f.fillQuery()

	h.fire(ctx, UIEvent{Type: EventKeyPress, Key: "a"})
	fetches, _ := f.api.counts()
	assert.Zero(t, fetches)

	h.fire(ctx, UIEvent{Type: EventKeyPress, Key: "Enter"})
	h.fire(ctx, UIEvent{Type: EventClick, Class: ClassFetchButton})
	fetches, _ = f.api.counts()
	assert.Equal(t, 2, fetches)

	h.fire(ctx, UIEvent{Type: EventClick, Class: ClassAnalysisCard, Target: "moving-average"})
	require.Len(t, f.api.analysisCalls, 1)
	assert.Equal(t, models.AnalysisMovingAverage, f.api.analysisCalls[0].typ)
	assert.Equal(t, "moving-average", f.view.active[ClassAnalysisCard])

	h.fire(ctx, UIEvent{Type: EventResize})
	assert.Len(t, f.api.analysisCalls, 2)
}

func TestBindUnknownAnalysisType(t *testing.T) {
	f := newFixture(t)
	h := &fakeHost{}
	f.ctrl.Bind(h)
	f.fetched(t)

	h.fire(context.Background(), UIEvent{Type: EventClick, Class: ClassAnalysisCard, Target: "fourier"})

	_, analyses := f.api.counts()
	assert.Zero(t, analyses)
	assert.Equal(t, "Unknown analysis type: fourier", f.view.alert(IDChart))
	assert.Equal(t, DisplayBlock, f.view.shown(IDChartContainer))
}

func TestRestoreState(t *testing.T) {
	f := newFixture(t)
	q := models.StockQuery{Symbol: "NVDA", StartDate: "2024-01-01", EndDate: "2024-02-01"}
	f.ctrl.Restore(drepo.SessionState{Query: &q, Analysis: models.AnalysisVolume})
	q.Symbol = "changed"

	st := f.ctrl.State()
	require.NotNil(t, st.Query)
	assert.Equal(t, "NVDA", st.Query.Symbol)
	assert.Equal(t, models.AnalysisVolume, st.Analysis)

	require.NoError(t, f.ctrl.Resize(context.Background()))
	require.Len(t, f.api.analysisCalls, 1)
	assert.Equal(t, "NVDA", f.api.analysisCalls[0].query.Symbol)
}
