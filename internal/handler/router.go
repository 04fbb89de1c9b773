package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/lumi/backend/internal/config"
	"github.com/zhouzirui/lumi/backend/internal/handler/breathing"
	"github.com/zhouzirui/lumi/backend/internal/handler/chat"
	"github.com/zhouzirui/lumi/backend/internal/handler/referral"
	"github.com/zhouzirui/lumi/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/lumi/backend/internal/middleware"
	referralModel "github.com/zhouzirui/lumi/backend/internal/model/referral"
	chatService "github.com/zhouzirui/lumi/backend/internal/service/chat"
	"github.com/zhouzirui/lumi/backend/internal/service/events"
	"github.com/zhouzirui/lumi/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(server config.ServerConfig, referrals referralModel.Store, chatSvc *chatService.Service, subscriber events.Subscriber) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORSWithOrigins(server.AllowedOrigins))

	// Create handlers
	chatHandler := chat.New(chatSvc)
	referralHandler := referral.New(referrals)
	breathingHandler := breathing.New()
	streamHandler := stream.New(chatSvc, subscriber)
	wsHandler := stream.NewWebSocketHandler(chatSvc, subscriber, middlewarePkg.NewOriginPolicy(server.AllowedOrigins))

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":   "ok",
				"sessions": chatSvc.Count(),
				"gateway":  chatSvc.GatewayAvailable(),
			})
		})

		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterWebSocketRoutes(api)
		referralHandler.RegisterRoutes(api)
		breathingHandler.RegisterRoutes(api)
	})

	return r
}
