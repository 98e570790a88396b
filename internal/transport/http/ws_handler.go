package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"quiz-widget/internal/app"
)

// SessionOpener hands out the started quiz session of a browser scope.
// Connections on the same scope share it; release drops the connection's hold.
type SessionOpener interface {
	Open(ctx context.Context, scope string) (session *app.QuizSession, release func(), err error)
}

type WSHandler struct {
	sessions SessionOpener
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler builds the handler. An empty allowedOrigins list permits every origin.
func NewWSHandler(sessions SessionOpener, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
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
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option *int `json:"option"`
}

type joinedPayload struct {
	Scope string `json:"scope"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and binds the connection to the quiz session of its scope.
// Reconnecting with the same scope resumes from the stored snapshot.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("scope", scope).Logger()

	session, release, err := h.sessions.Open(r.Context(), scope)
	if err != nil {
		wsLog.Error().Err(err).Msg("open session")
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer release()

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				wsLog.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{Scope: scope}}
	wsLog.Info().Msg("client connected")

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: view}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("unexpected close")
			}
			break
		}
		if err := h.dispatch(r.Context(), session, inbound); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	wsLog.Info().Msg("client disconnected")
}

func (h *WSHandler) dispatch(ctx context.Context, session *app.QuizSession, inbound inboundMessage) error {
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
			return errInvalidPayload
		}
		return session.Select(ctx, *payload.Option)
	case "submit":
		return session.Submit(ctx)
	case "advance":
		return session.Advance(ctx)
	case "restart":
		return session.Restart(ctx)
	default:
		return errUnsupported
	}
}

var (
	errInvalidPayload = errors.New("invalid select payload")
	errUnsupported    = errors.New("unsupported message type")
)

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

// NewMux wires the quiz routes.
func NewMux(ws *WSHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", Health)
	mux.HandleFunc("/ws", ws.ServeWS)
	return mux
}
