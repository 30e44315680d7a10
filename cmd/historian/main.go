// cmd/historian/main.go is an asynchronous service that consumes published game
// results from Redis and maintains ratings and the leaderboard.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/clashkings/internal/cache"
	"github.com/jason-s-yu/clashkings/internal/config"
	"github.com/jason-s-yu/clashkings/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	top := flag.Int("top", 0, "print the top N standings as JSON and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("bad configuration: %v", err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		logrus.Fatalf("bad configuration: %v", err)
	}
	if err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
		logger.Fatalf("%v", err)
	}
	defer cache.Rdb.Close()

	store := historian.NewRedisStore(cache.Rdb)

	if *top > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		standings, err := store.Top(ctx, *top)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(standings); err != nil {
			logger.Fatalf("%v", err)
		}
		return
	}

	hs := historian.NewService(store, cfg.HistorianBatchSize, cfg.HistorianFlush, logger.WithField("component", "historian"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := hs.Run(ctx, cache.Rdb, cfg.ResultsChannel); err != nil {
		logger.Fatalf("historian stopped: %v", err)
	}
	logger.Info("historian shutdown complete")
}
