package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/lumi/backend/internal/config"
	"github.com/zhouzirui/lumi/backend/internal/handler"
	"github.com/zhouzirui/lumi/backend/internal/logging"
	"github.com/zhouzirui/lumi/backend/internal/model/referral"
	"github.com/zhouzirui/lumi/backend/internal/service/ai"
	"github.com/zhouzirui/lumi/backend/internal/service/chat"
	"github.com/zhouzirui/lumi/backend/internal/service/events"
	"github.com/zhouzirui/lumi/backend/internal/service/scheduler"
)

func run(ctx context.Context, cfg *config.Config) error {
	bus, err := newBus(ctx, cfg.Events)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			log.Warn().Err(err).Msg("event bus close error")
		}
	}()

	referrals, err := newReferralStore(cfg.Referral)
	if err != nil {
		return err
	}

	// Initialize inference gateway
	var gateway ai.Gateway
	if cfg.AI.Enabled() {
		gateway, err = ai.NewGateway(ctx, cfg.AI)
		if err != nil {
			log.Warn().Err(err).Str("provider", cfg.AI.Provider).Msg("failed to initialize inference gateway, continuing without it")
			gateway = nil
		} else {
			log.Info().Str("provider", cfg.AI.Provider).Msg("inference gateway initialized")
		}
	} else {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("inference credentials not configured, chat replies disabled")
	}

	chatService := chat.NewService(gateway, bus, chat.OptionsFromConfig(cfg.Session, cfg.AI))

	sweeper := scheduler.New(chatService, cfg.Session.SweepSchedule, cfg.Session.IdleTTL)
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	router := handler.NewRouter(cfg.Server, referrals, chatService, bus)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Msg("Lumi backend listening")
	return runServer(ctx, srv)
}

func newBus(ctx context.Context, cfg config.EventsConfig) (*events.Bus, error) {
	logger := logging.Watermill(logging.Component("events"))
	if cfg.RedisAddr == "" {
		return events.NewInMemory(cfg.Buffer, logger), nil
	}

	bus, err := events.NewRedis(ctx, cfg.RedisAddr, logger)
	if err != nil {
		return nil, err
	}
	log.Info().Str("redis", cfg.RedisAddr).Msg("session events on redis streams")
	return bus, nil
}

func newReferralStore(cfg config.ReferralConfig) (referral.Store, error) {
	if cfg.File == "" {
		return referral.NewMemoryStore(referral.Seed()), nil
	}

	store, err := referral.LoadFile(cfg.File)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", cfg.File).Msg("referral directory loaded")
	return store, nil
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
			return err
		}
		log.Info().Msg("server shutdown complete")
		return nil
	})

	return g.Wait()
}
