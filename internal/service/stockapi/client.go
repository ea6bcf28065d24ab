package stockapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"StockView/internal/domain/models"
	drepo "StockView/internal/domain/repository"
	xhttp "StockView/pkg/http"
)

const (
	endpointStockData = "stock-data"
	endpointAnalysis  = "analysis"
)

// Client talks to the analysis backend. It classifies transport, status and decoding
// failures; logical failures in the body are left to the caller.
type Client struct {
	baseURL string
	http    *xhttp.Client
	metrics drepo.Metrics
}

// Option configures Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout  time.Duration
	httpOpts []xhttp.ClientOption
	metrics  drepo.Metrics
}

// WithTimeout bounds each call. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithHTTPOptions passes options through to the underlying HTTP client.
func WithHTTPOptions(opts ...xhttp.ClientOption) Option {
	return func(o *clientOptions) { o.httpOpts = append(o.httpOpts, opts...) }
}

// WithMetrics records every call on m.
func WithMetrics(m drepo.Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// New builds a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("stockapi: invalid base url %q", baseURL)
	}

	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	httpOpts := o.httpOpts
	if o.timeout > 0 {
		httpOpts = append([]xhttp.ClientOption{xhttp.WithTimeout(o.timeout)}, httpOpts...)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    xhttp.NewClient(httpOpts...),
		metrics: o.metrics,
	}, nil
}

// FetchStockData posts the query to /api/stock-data.
func (c *Client) FetchStockData(ctx context.Context, q models.StockQuery) (*models.StockSummary, error) {
	var out models.StockSummary
	if err := c.postJSON(ctx, endpointStockData, "/api/stock-data", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunAnalysis posts the query to /api/analysis/{type}.
func (c *Client) RunAnalysis(ctx context.Context, t models.AnalysisType, q models.StockQuery) (*models.AnalysisResult, error) {
	var out models.AnalysisResult
	path := "/api/analysis/" + url.PathEscape(string(t))
	if err := c.postJSON(ctx, endpointAnalysis, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, payload, dest interface{}) error {
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil && ctx.Err() != nil {
		// cancelled or past the caller's deadline; not a backend failure
		err = ctx.Err()
	} else {
		err = classify(err)
	}

	if c.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = models.Kind(err)
		}
		c.metrics.RecordBackendCall(endpoint, outcome, time.Since(start).Seconds())
	}
	return err
}

// classify maps transport-level failures onto the domain taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var (
		se *xhttp.StatusError
		de *xhttp.DecodeError
		te *xhttp.TransportError
	)
	switch {
	case errors.As(err, &se):
		return &models.HTTPError{Status: se.Code}
	case errors.As(err, &de):
		return &models.DataError{Message: models.MsgInvalidResponse, Err: de.Err}
	case errors.As(err, &te):
		return &models.NetworkError{Err: te.Err}
	default:
		return &models.NetworkError{Err: err}
	}
}

var _ drepo.StockAPI = (*Client)(nil)
