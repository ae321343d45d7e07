// Package main wires the messenger inbox engine: configuration, MySQL, Redis,
// the Graph API client, the core services and the HTTP surface.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"messenger-inbox/internal/adapters/gateway"
	"messenger-inbox/internal/adapters/handler"
	"messenger-inbox/internal/adapters/repository"
	"messenger-inbox/internal/config"
	"messenger-inbox/internal/core/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slog.Info("Configuration loaded",
		"db", fmt.Sprintf("%s@%s:%d", cfg.DB.User, cfg.DB.Host, cfg.DB.Port),
		"redis", cfg.Redis.Addr,
		"apps", len(cfg.FacebookApps),
	)

	// Containers may still be starting, so both connections retry.
	db := connectMySQL(cfg.DB, 5, 2*time.Second)
	defer db.Close()

	rdb := connectRedis(cfg.Redis, 5, 2*time.Second)
	defer rdb.Close()

	// Repository adapters implementing the core ports.
	store := repository.NewMySQLRepository(db)
	dedup := repository.NewRedisRepository(rdb)

	graph := gateway.NewClient()

	receiver := services.NewReceiver(store, store, store, store, store, dedup, graph)
	replier := services.NewReplier(cfg.FacebookApps, store, graph)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	handler.RegisterWebhookRoutes(r, cfg.FacebookApps, handler.NewWebhookHandler(receiver))
	handler.RegisterReplyRoutes(r, handler.NewReplyHandler(replier, store, store))
	handler.RegisterHealthRoutes(r, handler.NewHealthHandler())

	services.RunWatchdog(db)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("HTTP server listening", "addr", addr)
	for _, app := range cfg.FacebookApps {
		slog.Info("Webhook endpoint registered",
			"app_id", app.ID,
			"path", "/service/facebook/"+app.ID+"/webhook-callback",
		)
	}

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

// connectMySQL attempts to connect with retry, because the database container
// may not be ready immediately.
func connectMySQL(cfg config.DBConfig, maxRetries int, retryDelay time.Duration) *sql.DB {
	dsn := cfg.GetDSN()

	var db *sql.DB
	var err error

	for i := 1; i <= maxRetries; i++ {
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			log.Printf("attempt %d/%d: failed to configure db driver: %v", i, maxRetries, err)
			time.Sleep(retryDelay)
			continue
		}

		if err = db.Ping(); err == nil {
			return db
		}

		log.Printf("attempt %d/%d: cannot ping mysql: %v", i, maxRetries, err)
		db.Close()

		if i < maxRetries {
			time.Sleep(retryDelay)
		}
	}

	log.Fatalf("cannot connect to mysql after %d attempts: %v", maxRetries, err)
	return nil // unreachable
}

// connectRedis attempts to connect with retry.
func connectRedis(cfg config.RedisConfig, maxRetries int, retryDelay time.Duration) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	ctx := context.Background()
	var err error

	for i := 1; i <= maxRetries; i++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			return rdb
		}

		log.Printf("attempt %d/%d: cannot ping redis: %v", i, maxRetries, err)

		if i < maxRetries {
			time.Sleep(retryDelay)
		}
	}

	log.Fatalf("cannot connect to redis after %d attempts: %v", maxRetries, err)
	return nil // unreachable
}
