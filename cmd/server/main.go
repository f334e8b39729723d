package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/outreach-crm/internal/api"
	"github.com/ignite/outreach-crm/internal/automation"
	"github.com/ignite/outreach-crm/internal/config"
	"github.com/ignite/outreach-crm/internal/dispatch"
	"github.com/ignite/outreach-crm/internal/pkg/logger"
	"github.com/ignite/outreach-crm/internal/repository/postgres"
	"github.com/ignite/outreach-crm/internal/service/outreach"
	"github.com/ignite/outreach-crm/internal/worker"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale/stub processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	slash := strings.Index(rest, "/")
	if slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	log.Println("Starting Outreach CRM API server...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
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
		log.Fatalf("Failed to ping database at %s: %v", extractHost(cfg.Database.URL), err)
	}
	log.Printf("Connected to database at %s", extractHost(cfg.Database.URL))

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
		} else {
			log.Printf("Connected to Redis at %s", cfg.Redis.Addr)
		}
	}

	svc := outreach.NewService(
		postgres.NewConfigRepo(db),
		postgres.NewRecipientRepo(db),
		postgres.NewSenderRepo(db),
		postgres.NewTemplateRepo(db),
		postgres.NewBatchRepo(db),
		postgres.NewOutcomeRepo(db),
	)

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

	// The embedded dispatcher is on by default so a single binary runs the
	// whole system. Disable it when a dedicated worker process owns ticking.
	if os.Getenv("DISABLE_DISPATCHER") != "1" {
		if err := dispatcher.Start(); err != nil {
			log.Fatalf("Failed to start dispatcher: %v", err)
		}
		defer dispatcher.Stop()
	} else {
		log.Println("Embedded dispatcher disabled (DISABLE_DISPATCHER=1)")
	}

	server := api.NewServer(svc, dispatcher, backend, db, redisClient, cfg.Dispatch.DailyLimit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("API server listening on http://%s", addr)
	if err := server.ListenAndServe(ctx, addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
