package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"webpulse/internal/config"
	"webpulse/internal/db"
	"webpulse/internal/http/handlers"
	appmw "webpulse/internal/http/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.EnsureBootstrapAdmin(sqlDB, cfg); err != nil {
		log.Fatalf("failed to ensure bootstrap admin: %v", err)
	}

	if cfg.BootstrapAPIKey != "" {
		if err := db.EnsureBootstrapAPIKey(sqlDB, cfg); err != nil {
			log.Printf("warning: failed to ensure bootstrap API key: %v", err)
		} else {
			log.Printf("bootstrap tracking key configured for site %q", cfg.BootstrapSiteName)
		}
	}

	handlers.InitPrometheusMetrics()

	r := router.New()

	keyAuth := appmw.APIKeyAuth(sqlDB)
	bearerAuth := appmw.BearerAuth(sqlDB, cfg)

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.POST("/auth/login", handlers.Login(sqlDB, cfg))
	r.POST("/auth/refresh", handlers.Refresh(cfg))

	r.POST("/track/pageview", keyAuth(handlers.TrackPageView(sqlDB)))
	r.POST("/track/event", keyAuth(handlers.TrackEvent(sqlDB)))
	r.POST("/track/email", keyAuth(handlers.CaptureEmail(sqlDB)))
	r.POST("/track/diagnostic", keyAuth(handlers.SubmitDiagnostic(sqlDB)))

	r.GET("/v1/dashboard", bearerAuth(handlers.DashboardStats(sqlDB)))
	r.GET("/v1/sessions", bearerAuth(handlers.RecentSessions(sqlDB)))
	r.GET("/v1/diagnostics", bearerAuth(handlers.DiagnosticFunnel(sqlDB)))

	r.GET("/v1/metrics", handlers.SiteMetricsHandler(sqlDB))

	handler := handlers.RequestLogger(r.Handler)

	log.Printf("webpulse listening on %s", cfg.ListenAddr)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
