package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jkatariy/infinity-leadsync/internal/auth/token"
	"github.com/jkatariy/infinity-leadsync/internal/auth/zoho"
	"github.com/jkatariy/infinity-leadsync/internal/config"
	"github.com/jkatariy/infinity-leadsync/internal/crm"
	"github.com/jkatariy/infinity-leadsync/internal/db"
	"github.com/jkatariy/infinity-leadsync/internal/health"
	"github.com/jkatariy/infinity-leadsync/internal/leads"
	"github.com/jkatariy/infinity-leadsync/internal/logging"
	"github.com/jkatariy/infinity-leadsync/internal/scheduler"
	"github.com/jkatariy/infinity-leadsync/internal/version"
	"github.com/jkatariy/infinity-leadsync/internal/web/handlers"
	"github.com/joho/godotenv"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("LEADSYNC_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	tokenStore := token.NewStore(database)
	oauthConf := zoho.OAuthConfig(cfg)
	crmClient := crm.NewClient(cfg.Zoho.Endpoints.APIBase, cfg.Zoho.APIVersion)

	var captcha *leads.CaptchaVerifier
	if cfg.Captcha.Secret != "" {
		captcha = leads.NewCaptchaVerifier(cfg.Captcha.Secret)
	}
	intake := leads.NewIntake(database, captcha, cfg.Captcha.RequiredSources)
	dispatcher := leads.NewDispatcher(database, tokenStore, crmClient, oauthConf)
	reporter := health.NewReporter(database, tokenStore, cfg)

	sched, err := scheduler.New(dispatcher, reporter, cfg.Dispatch.CronSpec, cfg.Dispatch.BatchLimit)
	if err != nil {
		log.Fatalf("Failed to set up scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Create router
	r := chi.NewRouter()
	r.Use(logging.Middleware)
	r.Use(chimiddleware.Recoverer)

	// Operator status page
	r.Get("/", handlers.StatusPageHandler())

	// OAuth flow
	r.Get("/auth/zoho/login", zoho.HandleLogin(oauthConf, cfg.Zoho.State))
	r.Get("/auth/zoho/callback", zoho.HandleCallback(oauthConf, cfg.Zoho.State, tokenStore))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/leads", handlers.SubmitLeadHandler(intake))
		r.Get("/leads", handlers.ListLeadsHandler(database))
		r.Post("/dispatch", handlers.DispatchHandler(dispatcher))
		r.Get("/health", handlers.HealthHandler(reporter))
		r.Get("/tokens/status", handlers.TokenStatusHandler(tokenStore))
		r.Post("/tokens/clear", handlers.ClearTokensHandler(tokenStore))
	})

	// Start server
	host := os.Getenv("HOST")
	if host == "" {
		host = "127.0.0.1" // Default to localhost, set HOST=0.0.0.0 for LAN access
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}
	addr := host + ":" + port

	log.Printf("🚀 Infinity Lead Sync %s starting on http://%s", version.Version, addr)
	log.Printf("📊 Status page: http://%s", addr)
	log.Printf("🔐 Zoho login: http://%s/auth/zoho/login", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
