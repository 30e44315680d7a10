// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/clashkings/internal/auth"
	"github.com/jason-s-yu/clashkings/internal/cache"
	"github.com/jason-s-yu/clashkings/internal/config"
	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/handlers"
	"github.com/jason-s-yu/clashkings/internal/session"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("bad configuration: %v", err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		logrus.Fatalf("bad configuration: %v", err)
	}

	if err := auth.Init(cfg.TokenTTL); err != nil {
		logger.Fatalf("auth init failed: %v", err)
	}

	var dir session.Directory = session.NewMemoryDirectory()
	if cfg.RedisEnabled {
		if err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
			logger.Fatalf("%v", err)
		}
		dir = cache.NewRoomDirectory(cache.Rdb, cfg.RoomTTL)
		logger.Infof("room directory on redis %s", cfg.RedisAddr)
	}

	hostCfg, err := cfg.HostConfig()
	if err != nil {
		logger.Fatalf("failed to load bot personalities: %v", err)
	}
	rooms := session.NewRoomStore(dir, cfg.PublicURL, hostCfg, logger)
	if cfg.RedisEnabled {
		rooms.OnGameOver = func(h *session.Host, final *game.GameState) {
			res, ok := cache.ResultFromState(h.Code, final)
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := cache.PublishResult(ctx, cfg.ResultsChannel, res); err != nil {
				logger.Warnf("failed to publish result of %s: %v", h.Code, err)
			}
		}
	}

	rs := handlers.NewRoomServer(rooms, cfg.PublicURL, logger)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlers.NewRouter(rs, logger, cfg.AllowedOrigins),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		rooms.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
}
