package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"StockView/internal/domain/models"
	drepo "StockView/internal/domain/repository"
	xhttp "StockView/pkg/http"
	xlogger "StockView/pkg/logger"
	"StockView/pkg/metrics"
	"StockView/pkg/util"
)

var (
	// ErrFetchInProgress is returned while the fetch button is disabled.
	ErrFetchInProgress = errors.New("fetch already in progress")
	// ErrSuperseded is returned by a LoadAnalysis whose result was dropped for a newer one.
	ErrSuperseded = errors.New("analysis superseded")
)

// Controller orchestrates fetch and analysis requests and reflects them into the view.
type Controller struct {
	api      drepo.StockAPI
	view     View
	charter  Charter
	metrics  drepo.Metrics
	log      *xlogger.Logger
	now      func() time.Time
	currency string
	onState  func(drepo.SessionState)

	mu             sync.Mutex
	query          *models.StockQuery
	analysis       models.AnalysisType
	fetching       bool
	analysisSeq    uint64
	cancelAnalysis context.CancelFunc
}

// ControllerOption configures Controller.
type ControllerOption func(*Controller)

func WithLogger(l *xlogger.Logger) ControllerOption {
	return func(c *Controller) { c.log = l }
}

func WithMetrics(m drepo.Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// WithClock overrides the time source used for the default end date.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// WithFallbackCurrency sets the symbol used when the backend sends none.
func WithFallbackCurrency(symbol string) ControllerOption {
	return func(c *Controller) { c.currency = symbol }
}

// WithStateListener is called after every change of the query or analysis type.
func WithStateListener(fn func(drepo.SessionState)) ControllerOption {
	return func(c *Controller) { c.onState = fn }
}

// NewController creates a controller bound to one view.
func NewController(api drepo.StockAPI, view View, charter Charter, opts ...ControllerOption) *Controller {
	c := &Controller{
		api:     api,
		view:    view,
		charter: charter,
		metrics: metrics.Nop{},
		log:     xlogger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init prepares the page: the end date defaults to today.
func (c *Controller) Init(_ context.Context) {
	c.view.SetValue(IDEndDate, util.FormatDate(c.now()))
}

// Bind registers the controller's handlers on the host.
func (c *Controller) Bind(h Host) {
	h.On(EventClick, ClassFetchButton, func(ctx context.Context, _ UIEvent) {
		_ = c.FetchStockData(ctx)
	})
	h.On(EventKeyPress, "", func(ctx context.Context, ev UIEvent) {
		if ev.Key == "Enter" {
			_ = c.FetchStockData(ctx)
		}
	})
	h.On(EventClick, ClassAnalysisCard, func(ctx context.Context, ev UIEvent) {
		t, err := models.ParseAnalysisType(ev.Target)
		if err != nil {
			c.fail("analysis", err, xlogger.String("type", ev.Target))
			c.view.SetDisplay(IDChartContainer, DisplayBlock)
			c.renderInline(err)
			return
		}
		_ = c.LoadAnalysis(ctx, t, &ev)
	})
	h.On(EventResize, "", func(ctx context.Context, _ UIEvent) {
		_ = c.Resize(ctx)
	})
}

// State returns a copy of the held query and analysis type.
func (c *Controller) State() drepo.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Restore reinstates state saved from an earlier session. Nothing is rendered.
func (c *Controller) Restore(st drepo.SessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st.Query != nil {
		q := *st.Query
		c.query = &q
	}
	c.analysis = st.Analysis
}

// FetchStockData reads the query inputs and loads the stock summary.
func (c *Controller) FetchStockData(ctx context.Context) error {
	q := models.StockQuery{
		Symbol:    strings.TrimSpace(c.view.Value(IDStockSymbol)),
		StartDate: c.view.Value(IDStartDate),
		EndDate:   c.view.Value(IDEndDate),
	}
	if verrs := xhttp.ValidateStruct(ctx, &q); verrs != nil {
		err := &models.ValidationError{Message: models.MsgFillAllFields}
		c.fail("fetch", err, xlogger.Any("fields", verrs))
		c.ShowError(err.Error())
		return err
	}

	c.mu.Lock()
	if c.fetching {
		c.mu.Unlock()
		return ErrFetchInProgress
	}
	c.fetching = true
	c.mu.Unlock()

	c.view.SetButton(ClassFetchButton, fetchLoading)
	defer func() {
		c.view.SetButton(ClassFetchButton, fetchIdle)
		c.mu.Lock()
		c.fetching = false
		c.mu.Unlock()
	}()

	summary, err := c.api.FetchStockData(ctx, q)
	if err == nil && (!summary.Success || summary.Error != "") {
		msg := summary.Error
		if msg == "" {
			msg = models.MsgFetchFailed
		}
		err = &models.APIError{Message: msg}
	}
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		c.fail("fetch", err, xlogger.String("symbol", q.Symbol))
		c.ShowError(models.UserMessage(err, models.MsgFetchFailed))
		return err
	}

	c.mu.Lock()
	c.query = &q
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)

	c.displayStockInfo(summary)
	c.view.SetDisplay(IDAnalysisGrid, DisplayGrid)
	c.HideError()

	c.log.Debug("stock data loaded",
		xlogger.String("symbol", q.Symbol),
		xlogger.Int("data_points", summary.DataPoints),
	)
	return nil
}

func (c *Controller) displayStockInfo(s *models.StockSummary) {
	c.view.SetCards(IDStockSummary, "", RenderStockSummary(s, c.currency))
	c.view.SetDisplay(IDStockInfo, DisplayBlock)
	c.view.SetDisplay(IDChartContainer, DisplayNone)
}

// LoadAnalysis requests analysis t for the current query. ev, when given, marks its card active.
// Starting a new analysis cancels the one in flight; its result is never rendered.
func (c *Controller) LoadAnalysis(ctx context.Context, t models.AnalysisType, ev *UIEvent) error {
	c.mu.Lock()
	if c.query == nil {
		c.mu.Unlock()
		err := &models.StateError{Message: models.MsgFetchFirst}
		c.fail("analysis", err)
		c.ShowError(err.Error())
		return err
	}
	q := *c.query
	c.analysis = t
	if c.cancelAnalysis != nil {
		c.cancelAnalysis()
	}
	actx, cancel := context.WithCancel(ctx)
	c.analysisSeq++
	seq := c.analysisSeq
	c.cancelAnalysis = cancel
	st := c.stateLocked()

	// view reset happens under the lock so an older result cannot land after it
	active := ""
	if ev != nil {
		active = ev.Target
	}
	c.view.SetActive(ClassAnalysisCard, active)
	c.view.SetDisplay(IDChartContainer, DisplayBlock)
	c.view.Clear(IDChart)
	c.view.SetDisplay(IDStatsPanel, DisplayNone)
	c.mu.Unlock()
	c.notify(st)

	defer func() {
		cancel()
		c.mu.Lock()
		if c.analysisSeq == seq {
			c.cancelAnalysis = nil
		}
		c.mu.Unlock()
	}()

	res, err := c.api.RunAnalysis(actx, t, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.analysisSeq != seq {
		c.log.Debug("analysis superseded", xlogger.String("type", string(t)))
		return ErrSuperseded
	}
	if err != nil && ctx.Err() != nil {
		return err
	}
	if err == nil {
		err = c.renderAnalysis(t, res)
	}
	if err != nil {
		c.fail("analysis", err, xlogger.String("type", string(t)), xlogger.String("symbol", q.Symbol))
		c.renderInline(err)
		return err
	}

	c.log.Debug("analysis rendered", xlogger.String("type", string(t)), xlogger.String("symbol", q.Symbol))
	return nil
}

func (c *Controller) renderAnalysis(t models.AnalysisType, res *models.AnalysisResult) error {
	if res.Error != "" {
		return &models.APIError{Message: res.Error}
	}
	if !res.ChartData.Valid() {
		return &models.DataError{Message: models.MsgInvalidChartData}
	}

	layout := NormalizeLayout(res.ChartData.Layout)
	if err := c.charter.NewPlot(IDChart, res.ChartData.Data, layout, PlotConfig{Responsive: true}); err != nil {
		return err
	}

	if t == models.AnalysisRegression && res.Stats != nil {
		c.view.SetCards(IDStatsPanel, RegressionHeading, RenderRegressionStats(res.Stats))
		c.view.SetDisplay(IDStatsPanel, DisplayGrid)
	}
	return nil
}

func (c *Controller) renderInline(err error) {
	c.view.SetAlert(IDChart, models.UserMessage(err, models.MsgAnalysisFailed))
}

// Resize reloads the current analysis so the chart is laid out again.
func (c *Controller) Resize(ctx context.Context) error {
	c.mu.Lock()
	t := c.analysis
	ready := c.query != nil && t != ""
	c.mu.Unlock()
	if !ready {
		return nil
	}
	return c.LoadAnalysis(ctx, t, nil)
}

// ShowError writes message into the global banner, creating it on first use.
func (c *Controller) ShowError(message string) {
	if !c.view.Exists(IDErrorMessage) {
		c.view.CreateBanner(IDErrorMessage)
	}
	c.view.SetAlert(IDErrorMessage, message)
	c.view.SetDisplay(IDErrorMessage, DisplayBlock)
}

// HideError hides the banner and keeps its content.
func (c *Controller) HideError() {
	if c.view.Exists(IDErrorMessage) {
		c.view.SetDisplay(IDErrorMessage, DisplayNone)
	}
}

func (c *Controller) fail(op string, err error, fields ...xlogger.Field) {
	kind := models.Kind(err)
	c.metrics.RecordUIError(kind)
	c.log.Warn(op+" failed", append([]xlogger.Field{xlogger.String("kind", kind), xlogger.Error(err)}, fields...)...)
}

func (c *Controller) stateLocked() drepo.SessionState {
	st := drepo.SessionState{Analysis: c.analysis}
	if c.query != nil {
		q := *c.query
		st.Query = &q
	}
	return st
}

func (c *Controller) notify(st drepo.SessionState) {
	if c.onState != nil {
		c.onState(st)
	}
}
