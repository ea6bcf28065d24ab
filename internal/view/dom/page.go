package dom

import (
	"encoding/json"
	"sync"

	"StockView/internal/domain/models"
	"StockView/internal/usecase"
)

// Patch is one DOM mutation for the page script to apply.
type Patch struct {
	Op       string `json:"op"`
	ID       string `json:"id,omitempty"`
	Class    string `json:"class,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    string `json:"value,omitempty"`
	HTML     string `json:"html,omitempty"`
	Display  string `json:"display,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
	Plot     *Plot  `json:"plot,omitempty"`
}

const (
	OpValue   = "value"
	OpDisplay = "display"
	OpHTML    = "html"
	OpButton  = "button"
	OpActive  = "active"
	OpBanner  = "banner"
	OpPlot    = "plot"
)

// Plot is a recorded plotting call.
type Plot struct {
	Data   json.RawMessage    `json:"data"`
	Layout map[string]any     `json:"layout"`
	Config usecase.PlotConfig `json:"config"`
}

// Element is the server-side copy of one addressable node.
type Element struct {
	ID      string
	Value   string
	Display usecase.Display
	HTML    string
	Heading string
	Cards   []models.Card
	Alert   string
	Plot    *Plot
}

// Page is an in-memory DOM keyed by element ID. Every mutation is queued as a Patch.
type Page struct {
	mu      sync.Mutex
	elems   map[string]*Element
	buttons map[string]usecase.Button
	active  map[string]string
	outbox  []Patch
	changed chan struct{}
}

var _ usecase.View = (*Page)(nil)

// NewPage creates the elements of the stock page in their initial state.
func NewPage() *Page {
	p := &Page{
		elems:   make(map[string]*Element),
		buttons: make(map[string]usecase.Button),
		active:  make(map[string]string),
		changed: make(chan struct{}, 1),
	}
	for _, id := range []string{usecase.IDStockSymbol, usecase.IDStartDate, usecase.IDEndDate, usecase.IDChart, usecase.IDStockSummary} {
		p.elems[id] = &Element{ID: id}
	}
	for _, id := range []string{usecase.IDStockInfo, usecase.IDChartContainer, usecase.IDAnalysisGrid, usecase.IDStatsPanel} {
		p.elems[id] = &Element{ID: id, Display: usecase.DisplayNone}
	}
	return p
}

func (p *Page) el(id string) *Element {
	e, ok := p.elems[id]
	if !ok {
		e = &Element{ID: id}
		p.elems[id] = e
	}
	return e
}

func (p *Page) Value(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.elems[id]; ok {
		return e.Value
	}
	return ""
}

func (p *Page) SetValue(id, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.el(id).Value = value
	p.queue(Patch{Op: OpValue, ID: id, Value: value})
}

// SyncValues copies input values typed in the browser. No patches are queued.
func (p *Page) SyncValues(values map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, v := range values {
		if e, ok := p.elems[id]; ok {
			e.Value = v
		}
	}
}

func (p *Page) SetDisplay(id string, d usecase.Display) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.el(id).Display = d
	p.queue(Patch{Op: OpDisplay, ID: id, Display: string(d)})
}

func (p *Page) Clear(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.el(id)
	e.HTML, e.Heading, e.Cards, e.Alert, e.Plot = "", "", nil, "", nil
	p.queue(Patch{Op: OpHTML, ID: id})
}

func (p *Page) SetCards(id, heading string, cards []models.Card) {
	html := renderCards(heading, cards)

	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.el(id)
	e.HTML, e.Heading, e.Cards, e.Alert, e.Plot = html, heading, append([]models.Card(nil), cards...), "", nil
	p.queue(Patch{Op: OpHTML, ID: id, HTML: html})
}

func (p *Page) SetAlert(id, message string) {
	html := renderAlert(message)

	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.el(id)
	e.HTML, e.Heading, e.Cards, e.Alert, e.Plot = html, "", nil, message, nil
	p.queue(Patch{Op: OpHTML, ID: id, HTML: html})
}

func (p *Page) SetButton(class string, b usecase.Button) {
	html := renderButton(b)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.buttons[class] = b
	p.queue(Patch{Op: OpButton, Class: class, HTML: html, Disabled: b.Disabled})
}

func (p *Page) SetActive(class, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[class] = key
	p.queue(Patch{Op: OpActive, Class: class, Key: key})
}

func (p *Page) Exists(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.elems[id]
	return ok
}

func (p *Page) CreateBanner(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.elems[id]; ok {
		return
	}
	p.elems[id] = &Element{ID: id, Display: usecase.DisplayNone}
	p.queue(Patch{Op: OpBanner, ID: id})
}

func (p *Page) plot(id string, pl *Plot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.el(id)
	e.HTML, e.Heading, e.Cards, e.Alert, e.Plot = "", "", nil, "", pl
	p.queue(Patch{Op: OpPlot, ID: id, Plot: pl})
}

// Element returns a copy of the element with id.
func (p *Page) Element(id string) (Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.elems[id]
	if !ok {
		return Element{}, false
	}
	cp := *e
	cp.Cards = append([]models.Card(nil), e.Cards...)
	return cp, true
}

// Button returns the last state set for class.
func (p *Page) Button(class string) (usecase.Button, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buttons[class]
	return b, ok
}

// Active returns the marked key within class.
func (p *Page) Active(class string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active[class]
}

// queue must be called with p.mu held.
func (p *Page) queue(pt Patch) {
	p.outbox = append(p.outbox, pt)
	select {
	case p.changed <- struct{}{}:
	default:
	}
}

// Changes signals after patches were queued. Signals coalesce until the next Flush.
func (p *Page) Changes() <-chan struct{} {
	return p.changed
}

// Flush drains queued patches.
func (p *Page) Flush() []Patch {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.outbox
	p.outbox = nil
	return out
}

// PlotRecorder implements usecase.Charter by recording the call on a Page.
type PlotRecorder struct {
	page *Page
}

var _ usecase.Charter = (*PlotRecorder)(nil)

func NewPlotRecorder(p *Page) *PlotRecorder {
	return &PlotRecorder{page: p}
}

func (r *PlotRecorder) NewPlot(containerID string, data json.RawMessage, layout map[string]any, cfg usecase.PlotConfig) error {
	r.page.plot(containerID, &Plot{Data: data, Layout: layout, Config: cfg})
	return nil
}
