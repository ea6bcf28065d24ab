package api

import (
	"bytes"
	_ "embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"StockView/internal/domain/models"
	"StockView/internal/handler/ws"
	"StockView/internal/usecase"
	xhttp "StockView/pkg/http"
	xlogger "StockView/pkg/logger"
)

//go:embed templates/index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

var analysisIcons = map[models.AnalysisType]string{
	models.AnalysisPrice:         "fa-chart-line",
	models.AnalysisMovingAverage: "fa-wave-square",
	models.AnalysisVolume:        "fa-chart-bar",
	models.AnalysisRegression:    "fa-chart-area",
}

type analysisCard struct {
	Type  string
	Title string
	Icon  string
}

type pageIDs struct {
	Symbol         string
	StartDate      string
	EndDate        string
	StockInfo      string
	StockSummary   string
	AnalysisGrid   string
	ChartContainer string
	Chart          string
	StatsPanel     string
	ErrorMessage   string
}

type pageData struct {
	Title      string
	IDs        pageIDs
	FetchClass string
	CardClass  string
	Analyses   []analysisCard
}

// PageHandler serves the page shell and its websocket endpoint.
type PageHandler struct {
	logger *xlogger.Logger
	ws     *ws.Server
	index  []byte
}

func NewPageHandler(logger *xlogger.Logger, wsServer *ws.Server) (*PageHandler, error) {
	data := pageData{
		Title: "Stock Analysis Dashboard",
		IDs: pageIDs{
			Symbol:         usecase.IDStockSymbol,
			StartDate:      usecase.IDStartDate,
			EndDate:        usecase.IDEndDate,
			StockInfo:      usecase.IDStockInfo,
			StockSummary:   usecase.IDStockSummary,
			AnalysisGrid:   usecase.IDAnalysisGrid,
			ChartContainer: usecase.IDChartContainer,
			Chart:          usecase.IDChart,
			StatsPanel:     usecase.IDStatsPanel,
			ErrorMessage:   usecase.IDErrorMessage,
		},
		FetchClass: usecase.ClassFetchButton,
		CardClass:  usecase.ClassAnalysisCard,
	}
	for _, t := range models.AnalysisTypes {
		data.Analyses = append(data.Analyses, analysisCard{Type: string(t), Title: t.Title(), Icon: analysisIcons[t]})
	}

	if logger == nil {
		logger = xlogger.Nop()
	}
	var b bytes.Buffer
	if err := indexTmpl.Execute(&b, data); err != nil {
		return nil, err
	}
	return &PageHandler{logger: logger, ws: wsServer, index: b.Bytes()}, nil
}

func (h *PageHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/healthz", h.Health)
	e.GET("/ws", h.Socket)
}

func (h *PageHandler) Index(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return c.HTMLBlob(http.StatusOK, h.index)
}

func (h *PageHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.HealthResponse{Status: "ok"})
}

func (h *PageHandler) Socket(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	err := h.ws.ServeWS(c.Response(), c.Request(), req.SID)
	switch {
	case errors.Is(err, ws.ErrServerClosed):
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("server is shutting down"))
	case err != nil:
		// the upgrader has already replied
		h.logger.Debug("websocket session not started", xlogger.Error(err))
	}
	return nil
}
