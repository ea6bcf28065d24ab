package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	drepo "StockView/internal/domain/repository"
	"StockView/internal/service/ratelimit"
	"StockView/internal/usecase"
	"StockView/internal/view/dom"
	xhttp "StockView/pkg/http"
	xlogger "StockView/pkg/logger"
)

// Frame is one outbound message. The first frame of a session carries its ID.
type Frame struct {
	Session string      `json:"session,omitempty"`
	Patches []dom.Patch `json:"patches,omitempty"`
}

type handlerKey struct {
	t     usecase.EventType
	class string
}

// Session binds one browser connection to its own page and controller.
type Session struct {
	id      string
	conn    *websocket.Conn
	page    *dom.Page
	ctrl    *usecase.Controller
	store   drepo.StateStore
	limiter *ratelimit.Limiter
	cfg     Config
	log     *xlogger.Logger

	mu       sync.RWMutex
	handlers map[handlerKey][]usecase.Handler

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
	stop     chan struct{}
	done     chan struct{}
}

var _ usecase.Host = (*Session)(nil)

// On registers h for (t, class).
func (s *Session) On(t usecase.EventType, class string, h usecase.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := handlerKey{t, class}
	s.handlers[k] = append(s.handlers[k], h)
}

// ID returns the session identifier used for state persistence.
func (s *Session) ID() string {
	return s.id
}

// Dispatch delivers ev to every matching handler, each on its own goroutine.
func (s *Session) Dispatch(ev usecase.UIEvent) {
	if !s.limiter.Allow(s.id) {
		s.log.Warn("event rate exceeded", xlogger.String("type", string(ev.Type)))
		return
	}
	if verrs := xhttp.ValidateStruct(s.ctx, &ev); verrs != nil {
		s.log.Warn("dropping invalid event", xlogger.Any("errors", verrs))
		return
	}
	s.page.SyncValues(ev.Values)

	s.mu.RLock()
	hs := append([]usecase.Handler(nil), s.handlers[handlerKey{ev.Type, ev.Class}]...)
	s.mu.RUnlock()

	for _, h := range hs {
		s.inflight.Add(1)
		go func(h usecase.Handler) {
			defer s.inflight.Done()
			h(s.ctx, ev)
		}(h)
	}
}

// persist mirrors controller state into the store.
func (s *Session) persist(st drepo.SessionState) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteWait)
	defer cancel()
	if err := s.store.Save(ctx, s.id, st, s.cfg.StateTTL); err != nil {
		s.log.Warn("save session state failed", xlogger.Error(err))
	}
}

// resume reloads saved state and redraws it.
func (s *Session) resume() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.WriteWait)
	st, err := s.store.Load(ctx, s.id)
	cancel()
	if err != nil {
		if !errors.Is(err, drepo.ErrStateNotFound) {
			s.log.Warn("load session state failed", xlogger.Error(err))
		}
		return
	}
	if st.Query == nil {
		return
	}

	s.ctrl.Restore(st)
	s.page.SetValue(usecase.IDStockSymbol, st.Query.Symbol)
	s.page.SetValue(usecase.IDStartDate, st.Query.StartDate)
	s.page.SetValue(usecase.IDEndDate, st.Query.EndDate)
	s.log.Info("session resumed", xlogger.String("symbol", st.Query.Symbol), xlogger.String("analysis", string(st.Analysis)))

	if err := s.ctrl.FetchStockData(s.ctx); err != nil {
		return
	}
	if st.Analysis != "" {
		ev := usecase.UIEvent{Type: usecase.EventClick, Class: usecase.ClassAnalysisCard, Target: string(st.Analysis)}
		_ = s.ctrl.LoadAnalysis(s.ctx, st.Analysis, &ev)
	}
}

func (s *Session) readPump() {
	s.conn.SetReadLimit(s.cfg.ReadLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read failed", xlogger.Error(err))
			}
			return
		}
		var ev usecase.UIEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			s.log.Warn("dropping malformed event", xlogger.Error(err))
			continue
		}
		s.Dispatch(ev)
	}
}

// writePump is the only writer on the connection.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
		close(s.done)
	}()

	if err := s.write(Frame{Session: s.id, Patches: s.page.Flush()}); err != nil {
		return
	}

	for {
		select {
		case <-s.page.Changes():
			if patches := s.page.Flush(); len(patches) > 0 {
				if err := s.write(Frame{Patches: patches}); err != nil {
					return
				}
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.stop:
			if patches := s.page.Flush(); len(patches) > 0 {
				_ = s.write(Frame{Patches: patches})
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *Session) write(f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		s.log.Error("encode frame failed", xlogger.Error(err))
		return err
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		s.log.Debug("websocket write failed", xlogger.Error(err))
		return err
	}
	return nil
}

// run serves the connection until the peer leaves or ctx ends.
func (s *Session) run() {
	go s.writePump()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.resume()
	}()

	go func() {
		select {
		case <-s.ctx.Done():
			// unblocks readPump; writePump still sends the close frame
			_ = s.conn.SetReadDeadline(time.Now())
		case <-s.done:
		}
	}()

	s.readPump()

	s.cancel()
	s.inflight.Wait()
	close(s.stop)
	<-s.done
}
