package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
	"github.com/DmitriyGrigoriev/rolegate/internal/config"
	"github.com/DmitriyGrigoriev/rolegate/internal/httpapi"
	"github.com/DmitriyGrigoriev/rolegate/internal/logs"
	"github.com/DmitriyGrigoriev/rolegate/internal/obs"
	"github.com/DmitriyGrigoriev/rolegate/internal/store/memory"
	"github.com/DmitriyGrigoriev/rolegate/internal/store/pg"
	"github.com/DmitriyGrigoriev/rolegate/internal/token"
)

var version = "0.3.1"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logs.Logger.Fatalf("config: %v", err)
	}
	logs.Init(logs.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	obs.Init()

	var store auth.Store
	var closeStore func() error
	if cfg.Database.DSN != "" {
		pgStore, err := pg.Open(cfg.Database.DSN)
		if err != nil {
			logs.Logger.Fatalf("open database: %v", err)
		}
		store = pgStore
		closeStore = pgStore.Close
	} else {
		// No DSN configured: run on the in-process store with seed data.
		// State is lost on restart; intended for local development only.
		logs.Logger.Warn("database.dsn is empty, using the in-memory store")
		mem := memory.NewInMemory()
		if err := auth.Seed(context.Background(), mem, seedAdminPassword()); err != nil {
			logs.Logger.Fatalf("seed: %v", err)
		}
		store = mem
		closeStore = func() error { return nil }
	}

	codec, err := token.NewCodec(cfg.Auth.Secret,
		token.WithAccessTTL(cfg.Auth.AccessTTL),
		token.WithRefreshTTL(cfg.Auth.RefreshTTL),
	)
	if err != nil {
		logs.Logger.Fatalf("token codec: %v", err)
	}
	svc, err := auth.NewService(store, codec)
	if err != nil {
		logs.Logger.Fatalf("auth service: %v", err)
	}

	api := httpapi.New(svc, auth.NewEngine(store), store, httpapi.Options{})

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Address, cfg.Server.Port),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logs.Logger.Infof("starting rolegate-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logs.Logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = closeStore()
	logs.Logger.Info("stopped")
}

func seedAdminPassword() string {
	if pw := os.Getenv("ROLEGATE_ADMIN_PASSWORD"); pw != "" {
		return pw
	}
	return "Admin123!"
}
