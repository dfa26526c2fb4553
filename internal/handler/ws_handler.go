package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/etepro/etepro-backend/internal/metrics"
	"github.com/etepro/etepro-backend/internal/middleware"
	"github.com/etepro/etepro-backend/internal/model"
	"github.com/etepro/etepro-backend/internal/response"
	"github.com/etepro/etepro-backend/internal/service"
	"github.com/etepro/etepro-backend/internal/simulado"
	ws "github.com/etepro/etepro-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler runs live simulado sessions over WebSocket. Each connection owns
// exactly one session; closing the connection abandons it.
type WSHandler struct {
	bank          simulado.QuestionBank
	recorder      simulado.Recorder
	sessionOpts   simulado.Options
	submitTimeout time.Duration
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	bank simulado.QuestionBank,
	recorder simulado.Recorder,
	sessionOpts simulado.Options,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	submitTimeout := sessionOpts.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = 30 * time.Second
	}
	return &WSHandler{
		bank:          bank,
		recorder:      recorder,
		sessionOpts:   sessionOpts,
		submitTimeout: submitTimeout,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// SimuladoStream godoc
// WS /ws/v1/simulados/:simulado_id/stream?token=
func (h *WSHandler) SimuladoStream(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	simuladoID, err := uuid.Parse(c.Param("simulado_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", userID.String()).
		Str("simulado_id", simuladoID.String()).
		Logger()

	box := newOutbox()
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeLoop(conn, box, wsLog)
	}()
	defer func() {
		box.close()
		<-writerDone
	}()

	opts := h.sessionOpts
	opts.Log = wsLog
	sess := simulado.NewSession(userID, simuladoID, h.bank, h.recorder, opts)
	defer sess.Dispose()
	sess.Subscribe(func(ev simulado.Event) {
		if ev.Outcome != nil && (ev.Type == simulado.EventCompleted || ev.Type == simulado.EventFailed) {
			metrics.ObserveAttempt(string(ev.Outcome.Trigger), ev.Outcome.Persisted, ev.Outcome.Percentage)
		}
		box.send(toMessage(ev), ev.Type == simulado.EventTick)
	})

	if err := sess.Load(c.Request.Context()); err != nil {
		if errors.Is(err, service.ErrSimuladoNotFound) {
			box.send(errorMessage(response.ErrNotFound), false)
		} else {
			wsLog.Error().Err(err).Msg("Failed to load simulado")
			box.send(errorMessage(response.ErrInternal), false)
		}
		return
	}

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()
	wsLog.Info().Msg("Student connected")

	ws.PrepareRead(conn)
	for {
		req, err := ws.ReadRequest(conn)
		if errors.Is(err, ws.ErrMalformed) {
			box.send(errorMessage(response.ErrInvalidPayload), false)
			continue
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		h.dispatch(sess, req, box)
	}
}

func (h *WSHandler) dispatch(sess *simulado.Session, req *ws.RequestPayload, box *outbox) {
	var err error

	switch req.Action {
	case ws.ActionSelect:
		if req.QID == "" {
			box.send(errorMessage(response.ErrInvalidPayload), false)
			return
		}
		err = sess.SelectAnswer(req.QID, req.Answer)
	case ws.ActionNext:
		err = sess.Next()
	case ws.ActionPrevious:
		err = sess.Previous()
	case ws.ActionJump:
		if req.Index == nil {
			box.send(errorMessage(response.ErrInvalidPayload), false)
			return
		}
		err = sess.JumpTo(*req.Index)
	case ws.ActionSubmit:
		ctx, cancel := context.WithTimeout(context.Background(), h.submitTimeout)
		_, err = sess.Submit(ctx, model.SubmitTriggerManual)
		cancel()
		if err != nil && !errors.Is(err, simulado.ErrNotActive) {
			// Already reported to the client by the failed event.
			return
		}
	case ws.ActionPing:
		box.send(ws.BareResponse{Event: ws.EventPong}, false)
		return
	default:
		box.send(errorMessage(response.ErrUnknownAction), false)
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, simulado.ErrNotActive):
		box.send(errorMessage(response.ErrSimuladoNotActive), false)
	case errors.Is(err, simulado.ErrUnknownQuestion):
		box.send(errorMessage(response.ErrUnknownQuestion), false)
	default:
		box.send(errorMessage(response.ErrInternal), false)
	}
}

func toMessage(ev simulado.Event) interface{} {
	switch ev.Type {
	case simulado.EventState:
		return ws.StateResponse{Event: ws.EventState, Session: ev.View}
	case simulado.EventTick:
		return ws.TickResponse{Event: ws.EventTick, Remaining: ev.Remaining}
	case simulado.EventSubmitting:
		return ws.BareResponse{Event: ws.EventSubmitting}
	case simulado.EventCompleted:
		return ws.ResultResponse{Event: ws.EventCompleted, Result: ev.Outcome}
	case simulado.EventFailed:
		return ws.ResultResponse{
			Event:  ws.EventFailed,
			Result: ev.Outcome,
			Error:  response.GetMessage(response.ErrSubmitFailed),
		}
	default:
		return ws.BareResponse{Event: ws.Event(ev.Type)}
	}
}

func errorMessage(code response.ErrCode) ws.ErrorResponse {
	return ws.ErrorResponse{Event: ws.EventError, Code: string(code), Error: response.GetMessage(code)}
}

// outbox queues messages for the connection's single writer goroutine.
type outbox struct {
	ch        chan interface{}
	done      chan struct{}
	closeOnce sync.Once
}

func newOutbox() *outbox {
	return &outbox{
		ch:   make(chan interface{}, 64),
		done: make(chan struct{}),
	}
}

// send queues v. Droppable messages are discarded when the queue is full;
// others wait for room unless the outbox is closed.
func (o *outbox) send(v interface{}, droppable bool) {
	select {
	case <-o.done:
		return
	default:
	}

	if droppable {
		select {
		case o.ch <- v:
		default:
		}
		return
	}

	select {
	case o.ch <- v:
	case <-o.done:
	}
}

func (o *outbox) close() {
	o.closeOnce.Do(func() { close(o.done) })
}

// writeLoop owns all writes to conn. After a submission result is delivered
// the connection is closed normally. When the outbox is closed, queued
// messages are flushed before returning.
func writeLoop(conn *websocket.Conn, box *outbox, log zerolog.Logger) {
	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	write := func(v interface{}) bool {
		if err := ws.WriteTyped(conn, v); err != nil {
			log.Debug().Err(err).Msg("WebSocket write failed")
			return false
		}
		if _, final := v.(ws.ResultResponse); final {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "simulado finalizado"),
				time.Now().Add(ws.WriteWait))
			return false
		}
		return true
	}

	defer func() {
		box.close()
		conn.Close()
	}()

	for {
		select {
		case v := <-box.ch:
			if !write(v) {
				return
			}
		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		case <-box.done:
			for {
				select {
				case v := <-box.ch:
					if !write(v) {
						return
					}
				default:
					return
				}
			}
		}
	}
}
