package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"StockView/internal/usecase"
	"StockView/pkg/util"
)

const (
	DefaultWidth  = 900
	DefaultHeight = 400
)

var palette = []string{"2563eb", "f59e0b", "10b981", "ef4444", "8b5cf6", "9ca3af"}

// ErrNoSeries is returned when a payload holds no drawable trace.
var ErrNoSeries = errors.New("chart payload has no drawable series")

// PNGRenderer draws chart payloads to PNG images kept per container.
type PNGRenderer struct {
	Width  int
	Height int

	mu     sync.Mutex
	images map[string][]byte
}

var _ usecase.Charter = (*PNGRenderer)(nil)

func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Width: DefaultWidth, Height: DefaultHeight, images: make(map[string][]byte)}
}

// trace is the subset of a plot trace this renderer understands.
type trace struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Mode string `json:"mode"`
	X    []any  `json:"x"`
	Y    []any  `json:"y"`
}

type xKind int

const (
	xIndex xKind = iota
	xTime
	xNumber
)

func (r *PNGRenderer) NewPlot(containerID string, data json.RawMessage, layout map[string]any, _ usecase.PlotConfig) error {
	var traces []trace
	if err := json.Unmarshal(data, &traces); err != nil {
		return fmt.Errorf("decode traces: %w", err)
	}

	var (
		series []chart.Series
		kind   xKind
		first  = true
	)
	for i, tr := range traces {
		s, k, ok := buildSeries(tr, i)
		if !ok {
			continue
		}
		if first {
			kind, first = k, false
		} else if k != kind {
			continue
		}
		series = append(series, s)
	}
	if len(series) == 0 {
		return ErrNoSeries
	}

	graph := chart.Chart{
		Title:  layoutTitle(layout),
		Width:  r.Width,
		Height: r.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return strconv.FormatFloat(f, 'f', 2, 64)
				}
				return ""
			},
		},
		Series: series,
	}
	if kind == xTime {
		graph.XAxis = chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return chart.TimeFromFloat64(f).Format("Jan 02")
				}
				return ""
			},
		}
	}
	if len(series) > 1 {
		graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("chart render failed: %w", err)
	}

	r.mu.Lock()
	r.images[containerID] = buf.Bytes()
	r.mu.Unlock()
	return nil
}

// Image returns the last PNG drawn into containerID.
func (r *PNGRenderer) Image(containerID string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.images[containerID]
	return b, ok
}

func buildSeries(tr trace, i int) (chart.Series, xKind, bool) {
	color := drawing.ColorFromHex(palette[i%len(palette)])
	style := chart.Style{StrokeColor: color, StrokeWidth: 2}
	switch {
	case tr.Type == "bar":
		style.FillColor = color.WithAlpha(96)
		style.StrokeWidth = 1
	case tr.Mode == "markers":
		style.StrokeWidth = chart.Disabled
		style.DotWidth = 3
		style.DotColor = color
	}

	var (
		times []time.Time
		nums  []float64
		ys    []float64
	)
	kind := xIndex
	if len(tr.X) > 0 {
		kind = xNumber
		if _, ok := tr.X[0].(string); ok {
			kind = xTime
		}
	}

	for j, raw := range tr.Y {
		y, ok := toFloat(raw)
		if !ok {
			continue
		}
		switch kind {
		case xIndex:
			nums = append(nums, float64(j))
		case xNumber:
			if j >= len(tr.X) {
				continue
			}
			x, ok := toFloat(tr.X[j])
			if !ok {
				continue
			}
			nums = append(nums, x)
		case xTime:
			if j >= len(tr.X) {
				continue
			}
			s, _ := tr.X[j].(string)
			t, ok := util.ParseTime(s)
			if !ok {
				continue
			}
			times = append(times, t)
		}
		ys = append(ys, y)
	}
	if len(ys) < 2 {
		return nil, kind, false
	}

	if kind == xTime {
		return chart.TimeSeries{Name: tr.Name, Style: style, XValues: times, YValues: ys}, kind, true
	}
	return chart.ContinuousSeries{Name: tr.Name, Style: style, XValues: nums, YValues: ys}, kind, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func layoutTitle(layout map[string]any) string {
	switch t := layout["title"].(type) {
	case string:
		return t
	case map[string]any:
		s, _ := t["text"].(string)
		return s
	}
	return ""
}
