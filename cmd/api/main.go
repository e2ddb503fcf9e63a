package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/techsum/newsletter-api/internal/adapters/httpapi"
	memsessionstore "github.com/techsum/newsletter-api/internal/adapters/memory/sessionstore"
	memsubscriberrepo "github.com/techsum/newsletter-api/internal/adapters/memory/subscriberrepo"
	postgres "github.com/techsum/newsletter-api/internal/adapters/postgres"
	pgsubscriberrepo "github.com/techsum/newsletter-api/internal/adapters/postgres/subscriberrepo"
	"github.com/techsum/newsletter-api/internal/adapters/ses"
	"github.com/techsum/newsletter-api/internal/app/reports"
	"github.com/techsum/newsletter-api/internal/app/subscriptions"
	platformclock "github.com/techsum/newsletter-api/internal/platform/clock"
	"github.com/techsum/newsletter-api/internal/platform/config"
	mailerport "github.com/techsum/newsletter-api/internal/ports/out/mailer"
	subscriberrepoport "github.com/techsum/newsletter-api/internal/ports/out/subscriberrepo"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	clk := platformclock.NewSystemClock()

	var (
		repo    subscriberrepoport.Repository
		cleanup func()
	)
	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			log.Fatalf("invalid postgres config: %v", err)
		}
		cleanup = pool.Close
		repo = pgsubscriberrepo.NewRepo(pool)
	default:
		repo = memsubscriberrepo.NewRepo()
	}
	if cleanup != nil {
		defer cleanup()
	}

	var welcomeMailer mailerport.Mailer
	if cfg.SES.Enabled {
		m, err := ses.NewMailer(context.Background(), cfg.SES)
		if err != nil {
			log.Fatalf("invalid ses config: %v", err)
		}
		welcomeMailer = m
	}

	subsSvc := subscriptions.NewService(repo, clk, welcomeMailer)
	repsSvc := reports.NewService(repo)

	api := httpapi.NewServer(subsSvc, repsSvc)
	api.DevMode = cfg.DevMode

	sessions := httpapi.NewSessionManager(
		memsessionstore.NewStore(),
		clk,
		cfg.AdminUsername,
		cfg.AdminPassword,
		httpapi.SessionConfig{TTL: cfg.SessionTTL, SecureCookies: cfg.SecureCookies},
	)

	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		Sessions:           sessions,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		StaticDir:          cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("api listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
