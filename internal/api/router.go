package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ninjiez/promptmaster-v3/internal/api/handlers"
	"github.com/ninjiez/promptmaster-v3/internal/api/middleware"
	"github.com/ninjiez/promptmaster-v3/internal/audit"
	"github.com/ninjiez/promptmaster-v3/internal/auth"
	"github.com/ninjiez/promptmaster-v3/internal/billing"
	"github.com/ninjiez/promptmaster-v3/internal/cache"
	"github.com/ninjiez/promptmaster-v3/internal/config"
	"github.com/ninjiez/promptmaster-v3/internal/generation"
	"github.com/ninjiez/promptmaster-v3/internal/ledger"
	"github.com/ninjiez/promptmaster-v3/internal/llm"
	"github.com/ninjiez/promptmaster-v3/internal/prompt"
	"github.com/ninjiez/promptmaster-v3/internal/queue"
	"github.com/ninjiez/promptmaster-v3/internal/template"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	jwt   *auth.JWTMiddleware

	ledgerSvc *ledger.Service
	promptSvc *prompt.Service
	genSvc    *generation.Service
	auditSvc  *audit.Service
	billSvc   *billing.Service
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, gateway *llm.Gateway, cfg *config.Config) *Router {
	ledgerSvc := ledger.NewService(db, cfg.Tokens.SignupBonus)
	promptSvc := prompt.NewService(db)
	auditSvc := audit.NewService(db)
	cacheSvc := cache.NewCache(rdb)
	queueClient := queue.NewClient(cfg.Redis)

	store := generation.NewSQLStore(db, ledgerSvc, promptSvc)
	genSvc := generation.NewService(template.DefaultRegistry(), gateway, store, queueClient, cfg.AI, cfg.Tokens)

	return &Router{
		mux:       chi.NewRouter(),
		db:        db,
		redis:     rdb,
		cfg:       cfg,
		jwt:       auth.NewJWTMiddleware(cfg.Auth.JWTSecret, ledgerSvc),
		ledgerSvc: ledgerSvc,
		promptSvc: promptSvc,
		genSvc:    genSvc,
		auditSvc:  auditSvc,
		billSvc:   billing.NewService(cfg.Billing, ledgerSvc, cacheSvc),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Payment webhook authenticates via signature, not bearer token
	billingH := handlers.NewBillingHandler(rt.billSvc)
	r.Post("/api/v1/billing/webhook", billingH.Webhook)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		genH := handlers.NewGenerationHandler(rt.genSvc)
		r.Post("/generate", genH.Generate)

		promptH := handlers.NewPromptHandler(rt.promptSvc)
		r.Route("/prompts", func(r chi.Router) {
			r.Post("/", promptH.Create)
			r.Get("/", promptH.List)
			r.Get("/{id}", promptH.Get)
			r.Delete("/{id}", promptH.Delete)
			r.Get("/{id}/versions", promptH.Versions)
			r.Post("/{id}/improve", genH.Improve)
			r.Post("/{id}/questions", genH.Questions)
			r.Post("/{id}/examples", genH.Examples)
		})

		tokenH := handlers.NewTokenHandler(rt.ledgerSvc)
		r.Route("/tokens", func(r chi.Router) {
			r.Get("/balance", tokenH.Balance)
			r.Get("/history", tokenH.History)
		})

		r.Route("/billing", func(r chi.Router) {
			r.Get("/packs", billingH.Packs)
			r.Post("/checkout", billingH.Checkout)
		})

		adminH := handlers.NewAdminHandler(rt.auditSvc)
		r.Get("/admin/usage", adminH.Usage)
	})

	return r
}
