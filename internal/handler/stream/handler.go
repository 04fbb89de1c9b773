package stream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	chatService "github.com/zhouzirui/lumi/backend/internal/service/chat"
	"github.com/zhouzirui/lumi/backend/internal/service/events"
	"github.com/zhouzirui/lumi/backend/pkg/utils"
)

// snapshotEvent is the first event of every stream; it carries the full
// session view so clients can render before any change arrives.
const snapshotEvent = "session.snapshot"

const defaultHeartbeat = 15 * time.Second

// Handler streams session events to browsers via Server-Sent Events
type Handler struct {
	chatSvc   *chatService.Service
	events    events.Subscriber
	heartbeat time.Duration
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, subscriber events.Subscriber) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		events:    subscriber,
		heartbeat: defaultHeartbeat,
	}
}

// RegisterRoutes mounts the SSE endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session/{sessionID}/events", h.handleEvents)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before taking the snapshot so no change falls in between.
	stream, err := h.events.Subscribe(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("component", "sse").Str("session", sessionID).Msg("subscribe failed")
		utils.RespondError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	snapshot, err := h.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	logger := log.With().Str("component", "sse").Str("session", sessionID).Logger()
	logger.Debug().Msg("opening event stream")
	defer logger.Debug().Msg("closing event stream")

	if err := utils.SendSSEEvent(w, flusher, "", snapshotEvent, snapshot); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		case ev, ok := <-stream:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "", string(ev.Type), ev); err != nil {
				logger.Debug().Err(err).Msg("client went away")
				return
			}
			if ev.Type == events.SessionClosed {
				return
			}
		}
	}
}
