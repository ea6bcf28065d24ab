package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"StockView/internal/chart"
	"StockView/internal/domain/models"
	"StockView/internal/service/stockapi"
	"StockView/internal/usecase"
	"StockView/internal/view/dom"
	"StockView/pkg/config"
	xlogger "StockView/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	symbol := flag.String("symbol", "", "ticker symbol")
	start := flag.String("start", "", "start date (YYYY-MM-DD)")
	end := flag.String("end", "", "end date (YYYY-MM-DD), defaults to today")
	analysis := flag.String("analysis", "", "price, moving-average, volume or regression")
	out := flag.String("out", "chart.png", "PNG output path")
	timeout := flag.Duration("timeout", time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	l, err := xlogger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	code := run(ctx, cfg, l, os.Stdout, snapshot{
		symbol:   *symbol,
		start:    *start,
		end:      *end,
		analysis: *analysis,
		out:      *out,
	})
	os.Exit(code)
}

type snapshot struct {
	symbol   string
	start    string
	end      string
	analysis string
	out      string
}

func run(ctx context.Context, cfg *config.Config, l *xlogger.Logger, w io.Writer, s snapshot) int {
	api, err := stockapi.New(cfg.Backend.BaseURL, stockapi.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		l.Error("stock api", xlogger.Error(err))
		return 2
	}

	page := dom.NewPage()
	png := chart.NewPNGRenderer()
	ctrl := usecase.NewController(api, page, png,
		usecase.WithLogger(l),
		usecase.WithFallbackCurrency(cfg.UI.DefaultCurrency),
	)
	ctrl.Init(ctx)

	page.SetValue(usecase.IDStockSymbol, s.symbol)
	page.SetValue(usecase.IDStartDate, s.start)
	if s.end != "" {
		page.SetValue(usecase.IDEndDate, s.end)
	}

	if err := ctrl.FetchStockData(ctx); err == nil {
		printCards(w, page, usecase.IDStockSummary)
		if s.analysis != "" {
			runAnalysis(ctx, ctrl, page, s.analysis)
		}
	}

	if banner, ok := page.Element(usecase.IDErrorMessage); ok && banner.Display == usecase.DisplayBlock {
		fmt.Fprintf(w, "error: %s\n", banner.Alert)
		return 1
	}
	if el, _ := page.Element(usecase.IDChart); el.Alert != "" {
		fmt.Fprintf(w, "analysis error: %s\n", el.Alert)
		return 1
	}
	if s.analysis == "" {
		return 0
	}

	if stats, _ := page.Element(usecase.IDStatsPanel); stats.Display == usecase.DisplayGrid {
		printCards(w, page, usecase.IDStatsPanel)
	}
	img, ok := png.Image(usecase.IDChart)
	if !ok {
		fmt.Fprintln(w, "no chart rendered")
		return 1
	}
	if err := os.WriteFile(s.out, img, 0o644); err != nil {
		l.Error("write chart", xlogger.Error(err), xlogger.String("path", s.out))
		return 1
	}
	fmt.Fprintf(w, "chart written to %s\n", s.out)
	return 0
}

func runAnalysis(ctx context.Context, ctrl *usecase.Controller, page *dom.Page, name string) {
	t, err := models.ParseAnalysisType(name)
	if err != nil {
		page.SetAlert(usecase.IDChart, err.Error())
		return
	}
	_ = ctrl.LoadAnalysis(ctx, t, nil)
}

func printCards(w io.Writer, page *dom.Page, id string) {
	el, ok := page.Element(id)
	if !ok {
		return
	}
	if el.Heading != "" {
		fmt.Fprintln(w, el.Heading)
	}
	for _, c := range el.Cards {
		fmt.Fprintf(w, "  %-20s %s\n", c.Label+":", c.Value)
	}
}
