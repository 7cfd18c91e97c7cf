package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/audit"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/config"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/httpapi"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/obs"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/session"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/store/memory"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/store/pg"
	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/twofactor"
)

var version = "0.3.0"

func main() {
	configPath := flag.String("config", os.Getenv("VEHIX_CONFIG"), "Path to YAML config")
	flag.Parse()

	obs.Init()
	log := obs.Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	// Backing stores: Postgres when a DSN is configured, in-memory otherwise.
	var (
		twoFactorStore twofactor.Store
		auditStore     audit.Store
		readyProbe     httpapi.ReadyProbe
	)
	var pgStore *pg.Store
	if cfg.PostgresDSN != "" {
		pgStore, err = pg.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("open postgres", zap.Error(err))
		}
		twoFactorStore = pgStore
		auditStore = pgStore
		readyProbe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Warn("no postgres dsn configured, using in-memory stores")
		twoFactorStore = memory.NewTwoFactorStore()
		auditStore = memory.NewAuditStore()
	}

	tokens, err := session.NewTokenIssuer([]byte(cfg.Auth.TokenSecret), cfg.Auth.TokenIssuer, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal("token issuer", zap.Error(err))
	}

	artifacts := memory.NewArtifactStore()
	bus := session.NewMemoryBus(cfg.Session.ChannelName)
	coordinator := session.New(artifacts, bus,
		session.WithTokenIssuer(tokens),
		session.WithLogger(log),
	)

	twoFactorSvc, err := twofactor.NewService(twoFactorStore,
		twofactor.WithIssuer(cfg.TwoFactor.Issuer),
		twofactor.WithWarningDuration(cfg.TwoFactor.WarningDuration),
		twofactor.WithLogger(log),
	)
	if err != nil {
		log.Fatal("twofactor service", zap.Error(err))
	}

	recorder, err := audit.NewRecorder(auditStore,
		audit.WithCap(cfg.Audit.Cap),
		audit.WithLogger(log),
	)
	if err != nil {
		log.Fatal("audit recorder", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coordinator.Start(ctx)

	// Periodically nag the active session's account until 2FA is enabled.
	stopCompliance := twoFactorSvc.StartCompliance(time.Minute, func(context.Context) []string {
		if desc := coordinator.Current(); desc.UserID != "" {
			return []string{desc.UserID}
		}
		return nil
	}, func(warn twofactor.Warning) {
		log.Warn("account has no two-factor enrollment",
			zap.String("username", warn.Username),
			zap.Duration("show_for", warn.ShowFor),
		)
	})
	defer stopCompliance()

	api := httpapi.New(httpapi.Deps{
		ReadyProbe:  readyProbe,
		Tokens:      tokens,
		Coordinator: coordinator,
		Artifacts:   artifacts,
		TwoFactor:   twoFactorSvc,
		Recorder:    recorder,
	}, version)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("starting vehix-admin-api",
		zap.String("version", version),
		zap.String("addr", srv.Addr),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	cancel()
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Info("stopped")
}
