package referral

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/lumi/backend/internal/model/referral"
	"github.com/zhouzirui/lumi/backend/pkg/utils"
)

// Handler 转介目录的HTTP处理器
type Handler struct {
	referrals referral.Store
}

// New 创建转介处理器
func New(referrals referral.Store) *Handler {
	return &Handler{
		referrals: referrals,
	}
}

// RegisterRoutes 注册转介相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/therapists", h.handleDirectory)
	r.Get("/therapists/{therapistID}", h.handleTherapist)
}

// handleDirectory 返回热线与咨询师列表
func (h *Handler) handleDirectory(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.referrals.Directory())
}

func (h *Handler) handleTherapist(w http.ResponseWriter, r *http.Request) {
	therapist, ok := h.referrals.FindTherapist(chi.URLParam(r, "therapistID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "therapist not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, therapist)
}
