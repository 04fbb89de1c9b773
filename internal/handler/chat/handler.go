package chat

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	chatService "github.com/zhouzirui/lumi/backend/internal/service/chat"
	"github.com/zhouzirui/lumi/backend/pkg/utils"
)

const maxMessageBody = 16 << 10

// Handler 聊天会话的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Delete("/session/{sessionID}", h.handleCloseSession)
	r.Get("/session/{sessionID}/messages", h.handleListMessages)
	r.Post("/session/{sessionID}/messages", h.handleSubmit)
	r.Post("/session/{sessionID}/breathing", h.handleOpenBreathing)
	r.Delete("/session/{sessionID}/breathing", h.handleCloseBreathing)
	r.Post("/session/{sessionID}/referral", h.handleOpenReferral)
	r.Delete("/session/{sessionID}/referral", h.handleDismissReferral)
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.CloseSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleSubmit 提交一条用户消息并等待本轮回复
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}

	if err := utils.DecodeJSON(w, r, maxMessageBody, &payload); err != nil {
		if errors.Is(err, io.EOF) {
			utils.RespondError(w, http.StatusBadRequest, "request body is required")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.chatSvc.Submit(r.Context(), chi.URLParam(r, "sessionID"), payload.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleOpenBreathing(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.OpenBreathing(r.Context(), chi.URLParam(r, "sessionID"))
	h.respondSession(w, session, err)
}

func (h *Handler) handleCloseBreathing(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CloseBreathing(r.Context(), chi.URLParam(r, "sessionID"))
	h.respondSession(w, session, err)
}

func (h *Handler) handleOpenReferral(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.OpenReferral(r.Context(), chi.URLParam(r, "sessionID"))
	h.respondSession(w, session, err)
}

// handleDismissReferral 关闭转介弹窗并回到聊天状态
func (h *Handler) handleDismissReferral(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.DismissReferral(r.Context(), chi.URLParam(r, "sessionID"))
	h.respondSession(w, session, err)
}

func (h *Handler) respondSession(w http.ResponseWriter, session any, err error) {
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// StatusFor maps chat service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrEmptyMessage), errors.Is(err, chatService.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, chatService.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("component", "chat-handler").Msg("request failed")
		utils.RespondError(w, status, "internal error")
		return
	}
	utils.RespondError(w, status, err.Error())
}
