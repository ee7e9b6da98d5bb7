package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iamasit07/arcade/internal/config"
	"github.com/iamasit07/arcade/internal/repository/postgres"
	"github.com/iamasit07/arcade/internal/repository/redis"
	"github.com/iamasit07/arcade/internal/service/account"
	"github.com/iamasit07/arcade/internal/service/cleanup"
	"github.com/iamasit07/arcade/internal/service/games"
	"github.com/iamasit07/arcade/internal/service/live"
	transportHttp "github.com/iamasit07/arcade/internal/transport/http"
	"github.com/iamasit07/arcade/internal/transport/websocket"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found")
		}
	}

	cfg := config.LoadServerConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence falls back to memory so the server runs with no
	// infrastructure at all.
	var (
		users    account.UserRepository  = account.NewMemoryUsers()
		cache    account.CacheRepository = account.NewMemoryCache()
		gameRepo *postgres.GameRepo
	)

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
		if err != nil {
			log.Fatalf("Database unavailable: %v", err)
		}
		defer db.Close()
		users = postgres.NewUserRepo(db)
		gameRepo = postgres.NewGameRepo(db)
	} else {
		log.Println("[DB] DATABASE_URL not set, using in-memory users and no game history")
	}

	if cfg.RedisURL != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		client, err := redis.InitRedis(pingCtx, cfg.RedisURL, cfg.RedisPassword)
		cancel()
		if err != nil {
			log.Printf("[REDIS] %v, using in-memory cache", err)
		} else {
			redisCache := redis.NewRedisCache(client)
			defer redisCache.Close()
			cache = redisCache
		}
	}

	authService := account.NewService(users, cache, account.LogMailer{})

	hubOpts := live.Options{
		Registry: games.DefaultRegistry(),
		Timing: games.Timing{
			ReconnectWindow: cfg.GameReconnectWindow,
			CleanupDelay:    cfg.GameCleanupDelay,
		},
	}
	var historyHandler *transportHttp.HistoryHandler
	if gameRepo != nil {
		hubOpts.History = gameRepo
		historyHandler = transportHttp.NewHistoryHandler(gameRepo)
	}
	hub := live.NewHub(hubOpts)

	cleanup.NewWorker(hub, time.Second).Start(ctx)

	wsHandler := websocket.NewHandler(hub, websocket.Options{
		SendBuffer:     cfg.WSSendBuffer,
		PingInterval:   cfg.WSPingInterval,
		MaxMessageSize: cfg.WSMaxMessageSize,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	router := transportHttp.NewRouter(transportHttp.RouterConfig{
		Auth:           transportHttp.NewAuthHandler(authService),
		History:        historyHandler,
		Rooms:          transportHttp.NewRoomsHandler(hub),
		Live:           wsHandler.Serve,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
