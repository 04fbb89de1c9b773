package breathing

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/lumi/backend/internal/service/breathing"
	"github.com/zhouzirui/lumi/backend/pkg/utils"
)

// Handler 呼吸练习的HTTP处理器
type Handler struct{}

// New 创建呼吸练习处理器
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes 注册呼吸练习相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/breathing/patterns", h.handleList)
	r.Get("/breathing/patterns/{patternID}", h.handleGet)
	r.Get("/breathing/patterns/{patternID}/phase", h.handlePhase)
}

type patternView struct {
	breathing.Pattern
	CycleSeconds    int  `json:"cycleSeconds"`
	DurationSeconds int  `json:"durationSeconds"`
	Default         bool `json:"default"`
}

func viewOf(p breathing.Pattern) patternView {
	return patternView{
		Pattern:         p,
		CycleSeconds:    int(p.CycleDuration() / time.Second),
		DurationSeconds: int(p.Duration() / time.Second),
		Default:         p.ID == breathing.DefaultPatternID,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	patterns := breathing.Patterns()
	views := make([]patternView, 0, len(patterns))
	for _, p := range patterns {
		views = append(views, viewOf(p))
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	pattern, ok := breathing.Find(chi.URLParam(r, "patternID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "pattern not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, viewOf(pattern))
}

// handlePhase 返回练习开始后 elapsed 秒时的阶段
func (h *Handler) handlePhase(w http.ResponseWriter, r *http.Request) {
	pattern, ok := breathing.Find(chi.URLParam(r, "patternID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "pattern not found")
		return
	}

	elapsed, err := strconv.ParseFloat(r.URL.Query().Get("elapsed"), 64)
	if err != nil || elapsed < 0 {
		utils.RespondError(w, http.StatusBadRequest, "elapsed must be a non-negative number of seconds")
		return
	}

	phase, running := pattern.PhaseAt(time.Duration(elapsed * float64(time.Second)))
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"running": running,
		"phase":   phase,
	})
}
