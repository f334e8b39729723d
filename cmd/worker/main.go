package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/outreach-crm/internal/automation"
	"github.com/ignite/outreach-crm/internal/config"
	"github.com/ignite/outreach-crm/internal/dispatch"
	"github.com/ignite/outreach-crm/internal/pkg/logger"
	"github.com/ignite/outreach-crm/internal/repository/postgres"
	"github.com/ignite/outreach-crm/internal/worker"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("Starting Outreach DM dispatcher...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Database connection established")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Printf("WARNING: Redis unreachable at %s, tick lock falls back to advisory locks: %v", cfg.Redis.Addr, err)
		}
	}

	backend := automation.NewClient(cfg.Automation)
	engine := dispatch.NewEngine(postgres.NewDispatchStore(db), backend, dispatch.Options{
		DailyLimit:         cfg.Dispatch.DailyLimit,
		SendTimeout:        cfg.Automation.SendTimeout(),
		PendingSendTimeout: cfg.Automation.PendingSendTimeout(),
		DefaultPlatform:    cfg.Automation.DefaultPlatform,
	})

	dispatcher := worker.NewDispatcher(engine, db)
	dispatcher.SetTickInterval(cfg.Dispatch.TickInterval())
	dispatcher.SetLockTTL(cfg.Dispatch.LockTTL())
	if redisClient != nil {
		dispatcher.SetRedisClient(redisClient)
	}

	if err := dispatcher.Start(); err != nil {
		log.Fatalf("Failed to start dispatcher: %v", err)
	}
	log.Printf("Dispatcher running (tick every %s, daily limit %d)",
		cfg.Dispatch.TickInterval(), cfg.Dispatch.DailyLimit)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	dispatcher.Stop()
	log.Println("Dispatcher stopped")
}
