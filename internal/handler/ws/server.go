package ws

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	drepo "StockView/internal/domain/repository"
	"StockView/internal/service/ratelimit"
	"StockView/internal/usecase"
	"StockView/internal/view/dom"
	xlogger "StockView/pkg/logger"
	"StockView/pkg/metrics"
)

// ErrServerClosed is returned by ServeWS once Shutdown has been called.
var ErrServerClosed = errors.New("websocket server closed")

// Config holds per-connection limits.
type Config struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	ReadLimit      int64
	StateTTL       time.Duration
	AllowedOrigins []string

	// EventBurst and EventRate bound inbound events per session.
	EventBurst float64
	EventRate  float64
}

func (c *Config) setDefaults() {
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = c.PongWait * 9 / 10
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 16 << 10
	}
	if c.StateTTL <= 0 {
		c.StateTTL = 30 * time.Minute
	}
	if c.EventBurst <= 0 {
		c.EventBurst = 20
	}
	if c.EventRate <= 0 {
		c.EventRate = 10
	}
}

// Server upgrades connections and runs one Session per browser tab.
type Server struct {
	api      drepo.StockAPI
	store    drepo.StateStore
	metrics  drepo.Metrics
	log      *xlogger.Logger
	cfg      Config
	ctrlOpts []usecase.ControllerOption
	upgrader websocket.Upgrader
	limiter  *ratelimit.Limiter

	base    context.Context
	stopAll context.CancelFunc

	mu       sync.Mutex
	closed   bool
	sessions sync.WaitGroup
}

// Option configures Server.
type Option func(*Server)

func WithLogger(l *xlogger.Logger) Option {
	return func(s *Server) { s.log = l }
}

func WithMetrics(m drepo.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithControllerOptions are applied to every session controller.
func WithControllerOptions(opts ...usecase.ControllerOption) Option {
	return func(s *Server) { s.ctrlOpts = append(s.ctrlOpts, opts...) }
}

func NewServer(api drepo.StockAPI, store drepo.StateStore, cfg Config, opts ...Option) *Server {
	cfg.setDefaults()
	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		api:     api,
		store:   store,
		metrics: metrics.Nop{},
		log:     xlogger.Nop(),
		cfg:     cfg,
		limiter: ratelimit.New(cfg.EventBurst, cfg.EventRate),
		base:    base,
		stopAll: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin) {
		return true
	}
	return sameHost(origin, r.Host)
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

// ServeWS upgrades the request and blocks until the session ends.
// An empty sessionID starts a fresh session; a given one resumes saved state.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.sessions.Add(1)
	s.mu.Unlock()
	defer s.sessions.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", xlogger.Error(err))
		return err
	}
	fresh := sessionID == ""
	if fresh {
		sessionID = uuid.NewString()
	}
	defer s.limiter.Forget(sessionID)

	sess := s.newSession(conn, sessionID, fresh)
	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()

	started := time.Now()
	sess.log.Info("session opened", xlogger.String("remote", r.RemoteAddr), xlogger.Bool("resumed", !fresh))
	sess.run()
	sess.log.Info("session closed", xlogger.Duration("duration", time.Since(started)))
	return nil
}

// newSession builds the session and its controller. Only fresh sessions get the
// initial input defaults; a reconnecting page keeps the values it holds.
func (s *Server) newSession(conn *websocket.Conn, id string, fresh bool) *Session {
	ctx, cancel := context.WithCancel(s.base)
	sess := &Session{
		id:       id,
		conn:     conn,
		page:     dom.NewPage(),
		store:    s.store,
		limiter:  s.limiter,
		cfg:      s.cfg,
		log:      s.log.With(xlogger.String("session", id)),
		handlers: make(map[handlerKey][]usecase.Handler),
		ctx:      ctx,
		cancel:   cancel,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	opts := append([]usecase.ControllerOption{
		usecase.WithLogger(sess.log),
		usecase.WithMetrics(s.metrics),
	}, s.ctrlOpts...)
	opts = append(opts, usecase.WithStateListener(sess.persist))

	sess.ctrl = usecase.NewController(s.api, sess.page, dom.NewPlotRecorder(sess.page), opts...)
	sess.ctrl.Bind(sess)
	if fresh {
		sess.ctrl.Init(ctx)
	}
	return sess
}

// Shutdown ends every session and waits for them, or for ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stopAll()
	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
