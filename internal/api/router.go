package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-crm/internal/dispatch"
	"github.com/ignite/outreach-crm/internal/service/outreach"
)

// TickRunner triggers one dispatch tick on demand. Implemented by
// worker.Dispatcher; the handler never talks to the engine directly so a
// manual run always goes through the tick lock.
type TickRunner interface {
	RunNow(ctx context.Context, opts dispatch.TickOptions) (dispatch.TickStats, error)
}

// BackendProber checks the automation backend's reachability.
type BackendProber interface {
	Health(ctx context.Context) error
}

// Server is the admin HTTP API.
type Server struct {
	svc        *outreach.Service
	runner     TickRunner
	backend    BackendProber
	db         *sql.DB
	redis      *redis.Client
	dailyLimit int
	startTime  time.Time
}

// NewServer creates the admin API server. runner, backend, db and redis
// may be nil in reduced deployments; the affected endpoints degrade
// gracefully.
func NewServer(svc *outreach.Service, runner TickRunner, backend BackendProber, db *sql.DB, redisClient *redis.Client, dailyLimit int) *Server {
	return &Server{
		svc:        svc,
		runner:     runner,
		backend:    backend,
		db:         db,
		redis:      redisClient,
		dailyLimit: dailyLimit,
		startTime:  time.Now(),
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/configs", func(r chi.Router) {
			r.Get("/", s.handleListConfigs)
			r.Post("/", s.handleCreateConfig)
			r.Get("/{id}", s.handleGetConfig)
			r.Put("/{id}", s.handleUpdateConfig)
			r.Delete("/{id}", s.handleDeleteConfig)
		})

		r.Route("/recipients", func(r chi.Router) {
			r.Get("/", s.handleListRecipients)
			r.Post("/", s.handleCreateRecipient)
			r.Get("/{id}", s.handleGetRecipient)
			r.Post("/{id}/review", s.handleReviewRecipient)
		})

		r.Route("/senders", func(r chi.Router) {
			r.Get("/", s.handleListSenders)
			r.Post("/", s.handleCreateSender)
			r.Get("/{id}", s.handleGetSender)
			r.Put("/{id}", s.handleUpdateSender)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleCreateTemplate)
			r.Get("/{id}", s.handleGetTemplate)
			r.Put("/{id}", s.handleUpdateTemplate)
			r.Get("/{id}/preview/{recipientID}", s.handlePreviewTemplate)
		})

		r.Route("/batches", func(r chi.Router) {
			r.Get("/", s.handleListBatches)
			r.Post("/", s.handleCreateBatch)
			r.Get("/{id}", s.handleGetBatch)
			r.Get("/{id}/outcomes", s.handleListOutcomes)
		})

		r.Get("/quota", s.handleQuota)
		r.Post("/dispatch/run", s.handleDispatchRun)
	})

	return r
}

// ListenAndServe runs the HTTP server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
