package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"

	"cribbage-scorekeeper/core"
)

func main() {
	cfg := core.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := core.RunMigrations(ctx, db); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	userRepo := core.NewPgUserRepository(db)
	seed, err := core.LoadSeedUsers(cfg.SeedUsersPath)
	if err != nil {
		log.Fatalf("load seed users: %v", err)
	}
	if n, err := core.SeedUsers(ctx, userRepo, seed); err != nil {
		log.Fatalf("seed users failed: %v", err)
	} else if n > 0 {
		log.Printf("seeded %d user(s)", n)
	}

	var cache core.StatsCache
	if cfg.RedisURL != "" {
		redisClient, err := core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer redisClient.Close()
		cache = core.NewRedisStatsCache(redisClient, cfg.DashboardCacheTTL)
	} else {
		log.Printf("REDIS_URL not set; dashboard cache disabled")
	}

	sessionKey, generated := core.SessionKeyOrRandom(cfg.SessionKey)
	if generated {
		log.Printf("SESSION_KEY not set; using a random key for this process")
	}
	// Gorilla cookie store for the index page session.
	store := sessions.NewCookieStore([]byte(sessionKey))

	router := core.NewRouter(cfg, core.RouterDeps{
		Auth:   core.NewRepositoryAuthService(userRepo),
		Tokens: core.NewTokenIssuer(cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Users:  userRepo,
		Games:  core.NewPgGameRepository(db),
		Cache:  cache,
		Store:  store,
		DB:     db,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting api server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
