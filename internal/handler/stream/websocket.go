package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/lumi/backend/internal/middleware"
	chatService "github.com/zhouzirui/lumi/backend/internal/service/chat"
	"github.com/zhouzirui/lumi/backend/internal/service/events"
)

// Inbound message types.
const (
	TypeMessage        = "message"
	TypeBreathingOpen  = "breathing.open"
	TypeBreathingClose = "breathing.close"
	TypeReferralOpen   = "referral.open"
	TypeReferralClose  = "referral.close"
)

// Outbound message types besides the forwarded session events.
const (
	typeConnected     = "connected"
	typeTurnCompleted = "turn.completed"
	typeError         = "error"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	writeWait  = 10 * time.Second
	maxInbound = 16 << 10
)

// WebSocketHandler WebSocket会话处理器
type WebSocketHandler struct {
	chatSvc  *chatService.Service
	events   events.Subscriber
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(chatSvc *chatService.Service, subscriber events.Subscriber, origins middleware.OriginPolicy) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc: chatSvc,
		events:  subscriber,
		upgrader: websocket.Upgrader{
			CheckOrigin:     origins.CheckOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func newOutgoing(msgType, sessionID string, data interface{}) outgoingMessage {
	return outgoingMessage{
		Type:      msgType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "websocket").Msg("upgrade failed")
		return
	}
	defer conn.Close()

	logger := log.With().Str("component", "websocket").Str("session", sessionID).Logger()
	logger.Info().Msg("connection opened")
	defer logger.Info().Msg("connection closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stream, err := h.events.Subscribe(ctx, sessionID)
	if err != nil {
		logger.Error().Err(err).Msg("subscribe failed")
		_ = conn.WriteJSON(newOutgoing(typeError, sessionID, "event stream unavailable"))
		return
	}

	conn.SetReadLimit(maxInbound)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	outbound := make(chan outgoingMessage, 32)
	// Turns wait on the gateway; surface actions get their own queue so they
	// never wait behind a pending reply. Each queue is handled in order.
	turns := make(chan inboundMessage, 8)
	actions := make(chan inboundMessage, 8)
	outbound <- newOutgoing(typeConnected, sessionID, session)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return h.readLoop(gctx, conn, turns, actions, logger)
	})

	for _, queue := range []chan inboundMessage{turns, actions} {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case msg := <-queue:
					h.handleMessage(gctx, sessionID, msg, outbound)
				}
			}
		})
	}

	g.Go(func() error {
		defer cancel()
		return h.writeLoop(gctx, conn, sessionID, stream, outbound)
	})

	// Unblock the reader once anything else ends.
	g.Go(func() error {
		<-gctx.Done()
		_ = conn.SetReadDeadline(time.Now())
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Debug().Err(err).Msg("connection ended with error")
	}
}

func (h *WebSocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, turns, actions chan<- inboundMessage, logger zerolog.Logger) error {
	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Debug().Err(err).Msg("read error")
			}
			return nil
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		queue := actions
		if msg.Type == TypeMessage {
			queue = turns
		}

		select {
		case queue <- msg:
		case <-ctx.Done():
			return nil
		}
	}
}

func (h *WebSocketHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sessionID string, stream <-chan events.Event, outbound <-chan outgoingMessage) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(msg outgoingMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return nil
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case msg := <-outbound:
			if err := write(msg); err != nil {
				return err
			}
		case ev, ok := <-stream:
			if !ok {
				return nil
			}
			if err := write(newOutgoing(string(ev.Type), sessionID, ev.Data)); err != nil {
				return err
			}
			if ev.Type == events.SessionClosed {
				return nil
			}
		}
	}
}

// handleMessage 处理单条入站消息
func (h *WebSocketHandler) handleMessage(ctx context.Context, sessionID string, msg inboundMessage, outbound chan<- outgoingMessage) {
	reply := func(out outgoingMessage) {
		select {
		case outbound <- out:
		case <-ctx.Done():
		}
	}
	fail := func(text string) {
		reply(newOutgoing(typeError, sessionID, text))
	}

	if msg.SessionID != "" && msg.SessionID != sessionID {
		fail("session mismatch")
		return
	}

	var err error
	switch msg.Type {
	case TypeMessage:
		var payload TextMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			fail("invalid message payload")
			return
		}
		result, submitErr := h.chatSvc.Submit(ctx, sessionID, payload.Text)
		if submitErr != nil {
			fail(submitErr.Error())
			return
		}
		reply(newOutgoing(typeTurnCompleted, sessionID, map[string]any{
			"delivered":       result.Delivered,
			"crisisTriggered": result.CrisisTriggered,
		}))
		return
	case TypeBreathingOpen:
		_, err = h.chatSvc.OpenBreathing(ctx, sessionID)
	case TypeBreathingClose:
		_, err = h.chatSvc.CloseBreathing(ctx, sessionID)
	case TypeReferralOpen:
		_, err = h.chatSvc.OpenReferral(ctx, sessionID)
	case TypeReferralClose:
		_, err = h.chatSvc.DismissReferral(ctx, sessionID)
	default:
		fail("unsupported message type: " + msg.Type)
		return
	}

	if err != nil {
		fail(err.Error())
	}
}
