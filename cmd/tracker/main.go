// Command tracker runs the visitor tracker headless: it keeps a persistent
// visitor id and reports a storage snapshot to the tracking endpoint on a
// fixed interval until interrupted.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"agency-cms/internal/shared/config"
	"agency-cms/internal/shared/logger"
	"agency-cms/internal/tracker"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	appLogger := logger.NewZapLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT")).WithComponent("tracker")

	cfg, err := tracker.LoadConfig()
	if err != nil {
		appLogger.Fatalf("Failed to load configuration: %v", err)
	}

	var redisCfg config.RedisConfig
	if err := env.Parse(&redisCfg); err != nil {
		appLogger.Fatalf("Failed to load redis configuration: %v", err)
	}

	var store tracker.KVStore = tracker.NewMemoryStore()
	if redisCfg.Enabled() {
		client := config.NewRedisClient(&redisCfg)
		defer client.Close()
		store = tracker.NewRedisStore(client, cfg.KeyPrefix)
		appLogger.Infof("Persisting visitor id in Redis at %s", redisCfg.GetAddr())
	} else {
		appLogger.Warn("REDIS_HOST not set, visitor id lasts for this process only")
	}

	var cookies, local, session tracker.Source
	if cfg.SnapshotFile != "" {
		snap := tracker.NewFileSnapshot(cfg.SnapshotFile)
		cookies, local, session = snap.Cookies(), snap.LocalStorage(), snap.SessionStorage()
	}

	reporter := tracker.NewReporter(
		tracker.NewCollector(cookies, local, session, appLogger),
		tracker.NewIdentityResolver(store, cfg.CookieName, cfg.IdentityTTL, appLogger),
		tracker.NewHTTPSender(cfg.Endpoint, cfg.CookieName, cfg.SendTimeout),
		appLogger,
		tracker.WithInterval(cfg.Interval),
		tracker.WithSendTimeout(cfg.SendTimeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Infof("Reporting to %s every %s", cfg.Endpoint, cfg.Interval)
	reporter.Start(ctx)
	<-ctx.Done()

	reporter.Stop()
	reporter.Wait()
	appLogger.Info("Tracker stopped")
}
