package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Jawadyyy/healthmate-portal/internal/config"
	"github.com/Jawadyyy/healthmate-portal/internal/email"
	"github.com/Jawadyyy/healthmate-portal/internal/handler"
	appointmentHandler "github.com/Jawadyyy/healthmate-portal/internal/handler/appointment"
	authHandler "github.com/Jawadyyy/healthmate-portal/internal/handler/auth"
	billingHandler "github.com/Jawadyyy/healthmate-portal/internal/handler/billing"
	clinicalHandler "github.com/Jawadyyy/healthmate-portal/internal/handler/clinical"
	"github.com/Jawadyyy/healthmate-portal/internal/handler/health"
	profileHandler "github.com/Jawadyyy/healthmate-portal/internal/handler/profile"
	promHandler "github.com/Jawadyyy/healthmate-portal/internal/handler/prometheus"
	"github.com/Jawadyyy/healthmate-portal/internal/middleware"
	"github.com/Jawadyyy/healthmate-portal/internal/router"
	appointmentService "github.com/Jawadyyy/healthmate-portal/internal/service/appointment"
	authService "github.com/Jawadyyy/healthmate-portal/internal/service/auth"
	billingService "github.com/Jawadyyy/healthmate-portal/internal/service/billing"
	clinicalService "github.com/Jawadyyy/healthmate-portal/internal/service/clinical"
	profileService "github.com/Jawadyyy/healthmate-portal/internal/service/profile"
	"github.com/Jawadyyy/healthmate-portal/internal/session"
	"github.com/Jawadyyy/healthmate-portal/internal/worker"
	"github.com/Jawadyyy/healthmate-portal/pkg/apiclient"
	"github.com/Jawadyyy/healthmate-portal/pkg/logger"
	"github.com/Jawadyyy/healthmate-portal/pkg/metrics"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "healthmate-portal",
		Short:         "HealthMate portal gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yml")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runServer(cfg)
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the postgres session table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			db, err := session.ConnectPostgres(cfg.Database.DSN(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := session.NewPostgresStore(db).Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("session table is up to date")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newStore(cfg *config.Config) (session.Store, func(), error) {
	switch cfg.Session.Backend {
	case "redis":
		store, err := session.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "postgres":
		db, err := session.ConnectPostgres(cfg.Database.DSN(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, nil, err
		}
		return session.NewPostgresStore(db), func() { db.Close() }, nil
	default:
		return session.NewMemoryStore(cfg.Session.CleanupInterval), func() {}, nil
	}
}

func newZap(cfg *config.Config) *zap.Logger {
	var (
		zl  *zap.Logger
		err error
	)
	if cfg.Log.Console {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return zl
}

func runServer(cfg *config.Config) error {
	appLog := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	})
	logger.SetGlobal(appLog)

	zl := newZap(cfg)
	defer zl.Sync()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("healthmate_portal", registry)

	store, closeStore, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to init %s session store: %w", cfg.Session.Backend, err)
	}
	defer closeStore()

	sessions, err := session.NewManager(store, session.Config{
		TTL:    cfg.Session.TTL,
		Secret: cfg.Session.Secret,
	}, session.WithLogger(appLog), session.WithMetrics(m))
	if err != nil {
		return err
	}

	api := apiclient.New(apiclient.Config{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		BreakerFailures: cfg.API.BreakerFailures,
		BreakerTimeout:  cfg.API.BreakerTimeout,
		UserAgent:       "healthmate-portal/" + version,
	}, apiclient.WithLogger(zl), apiclient.WithMetrics(m))

	mailer := email.NewService(email.Config{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		From:      cfg.SMTP.From,
		PortalURL: cfg.SMTP.PortalURL,
	})

	// Initialize services
	profileSvc := profileService.NewService(api)
	authSvc := authService.NewService(authService.Deps{
		API:      api,
		Sessions: sessions,
		Profiles: profileSvc,
		Mailer:   mailer,
		Guard: authService.NewGuard(authService.GuardConfig{
			MaxAttempts: cfg.LoginGuard.MaxAttempts,
			Lockout:     cfg.LoginGuard.Lockout,
		}, m),
		Logger:  appLog.With("component", "auth"),
		Metrics: m,
	})
	appointmentSvc := appointmentService.NewService(api, m, appLog.With("component", "appointment"))
	clinicalSvc := clinicalService.NewService(api)
	billingSvc := billingService.NewService(api, appLog.With("component", "billing"))

	// Initialize handlers
	requireSession := middleware.RequireSession(sessions, cfg.Session.CookieName)
	cookies := handler.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.SecureCookie,
		Domain: cfg.Session.CookieDomain,
	}

	r := router.NewRouter(
		health.NewHandler(sessions, api.BreakerState, version),
		authHandler.NewHandler(authSvc, cookies, requireSession),
		requireSession,
		promHandler.New(registry),
		router.RouterConfig{
			RateLimit:      rate.Limit(cfg.RateLimit.RPS),
			RateBurst:      cfg.RateLimit.Burst,
			CORSConfig:     middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins),
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxBodySize:    cfg.Server.MaxBodyBytes,
			SecureHeaders:  cfg.Session.SecureCookie,
			Mode:           cfg.Server.Mode,
			TrustedProxies: cfg.Server.TrustedProxies,
		},
		profileHandler.NewHandler(profileSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		clinicalHandler.NewHandler(clinicalSvc),
		billingHandler.NewHandler(billingSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.NewSessionCleanupWorker(sessions, cfg.Session.CleanupInterval, appLog.With("component", "session-cleanup")).Start(workerCtx)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("session_backend", store.Name()).Msg("starting portal gateway")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}
	log.Info().Msg("shutting down server...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited properly")
	return nil
}
