package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staffdesk.io/internal/auth"
	"staffdesk.io/internal/config"
	"staffdesk.io/internal/employees"
	"staffdesk.io/internal/httpapi"
	"staffdesk.io/internal/obs"
	"staffdesk.io/internal/store/memory"
	"staffdesk.io/internal/store/pg"
)

func main() {
	obs.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	obs.InitBuildInfo(cfg.Version, os.Getenv("STAFFDESK_COMMIT"))

	// Storage: Postgres when a DSN is configured, in-process otherwise.
	var (
		authStore auth.Store
		empStore  employees.Store
		probe     httpapi.ReadyProbe
		pgStore   *pg.Store
	)
	if cfg.DatabaseDSN != "" {
		pgStore, err = pg.Open(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		authStore = pgStore
		empStore = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Println("STAFFDESK_PG_DSN not set, using in-memory store")
		mem := memory.New()
		authStore = mem
		empStore = mem
	}

	tokens, err := auth.NewTokenService(cfg.TokenSecret, auth.WithTokenTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	accounts, err := auth.NewService(authStore, tokens)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	rbac, err := auth.NewRBACService(authStore)
	if err != nil {
		log.Fatalf("rbac service: %v", err)
	}
	emps, err := employees.NewService(empStore)
	if err != nil {
		log.Fatalf("employee service: %v", err)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := rbac.EnsureBuiltins(startupCtx); err != nil {
		log.Fatalf("seed builtins: %v", err)
	}
	if email := os.Getenv("STAFFDESK_ADMIN_EMAIL"); email != "" {
		if err := accounts.BootstrapAdmin(startupCtx, rbac, email, os.Getenv("STAFFDESK_ADMIN_PASSWORD")); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
	}
	cancelStartup()

	api := httpapi.New(accounts, rbac, emps, probe, httpapi.Options{
		Version:      cfg.Version,
		MaxBodyBytes: cfg.MaxBodyBytes,
		RateBurst:    cfg.RateBurst,
		RatePerSec:   cfg.RatePerSec,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting staffdesk-api %s on %s", cfg.Version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}
