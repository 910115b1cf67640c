package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dimitrije/jsoncrack-api/internal/config"
	"github.com/dimitrije/jsoncrack-api/internal/handlers"
	"github.com/dimitrije/jsoncrack-api/internal/hub"
	"github.com/dimitrije/jsoncrack-api/internal/jobs"
	"github.com/dimitrije/jsoncrack-api/internal/logger"
	reqlog "github.com/dimitrije/jsoncrack-api/internal/middleware"
	"github.com/dimitrije/jsoncrack-api/internal/password"
	"github.com/dimitrije/jsoncrack-api/internal/schedule"
	"github.com/dimitrije/jsoncrack-api/internal/services"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "jsoncrack-api",
		Short:        "JSON share and live collaboration backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "delete shares older than SHARE_TTL and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCmd, purgeCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func runServe(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	hasher, err := password.NewHasher(cfg.Share.PasswordHash)
	if err != nil {
		return err
	}

	shareService := services.NewShareService(st, hasher, services.ShareConfig{
		TTL:             cfg.Share.TTL,
		SlugLength:      cfg.Share.SlugLength,
		SlugMaxAttempts: cfg.Share.SlugMaxAttempts,
		UploadMaxBytes:  cfg.Share.UploadMaxBytes,
	}, log)

	collabHub := hub.NewHub(hub.Config{
		Points:        cfg.RateLimit.Points,
		Window:        cfg.RateLimit.Window,
		SweepInterval: cfg.RateLimit.SweepInterval,
	}, log.Named("hub"))
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go collabHub.Run(hubCtx)

	scheduler := schedule.NewCronScheduler(log.Named("schedule"))
	purgeJob := jobs.NewExpiredSharePurgeJob(st, cfg.Share.TTL, log)
	if err := scheduler.AddJob(purgeJob, cfg.PurgeSchedule); err != nil {
		return fmt.Errorf("schedule purge: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()
	if next, ok := scheduler.Next(purgeJob.Name()); ok {
		log.Info("expired share purge scheduled", zap.Time("next_run", next))
	}

	shareHandler := handlers.NewShareHandler(shareService, cfg.Share.UploadMaxBytes, log, cfg.IsProduction())
	collabHandler := handlers.NewCollabHandler(collabHub, log.Named("collab"))

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       86400,
	}))
	app.Use(reqlog.RequestLogger(log.Named("http")))

	app.Get("/", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"message": "JSON Crack backend is running"})
	})
	app.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})
	app.Get("/ws", collabHandler.Connect)

	api := app.Group("/api")

	// multipart bodies are read by the handler itself
	api.Post("/upload", shareHandler.Upload)

	shares := api.Group("")
	shares.Use(middleware.BodyParser())
	shares.Post("/share", shareHandler.Create)
	shares.Get("/share/:slug", shareHandler.GetMetadata)
	shares.Post("/share/:slug", shareHandler.Unlock)
	shares.Put("/share/:slug", shareHandler.Update)

	// Raw fetch stays last.
	api.Get("/:slug", shareHandler.GetRaw)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("server starting", zap.String("addr", addr), zap.String("store", cfg.StoreDriver))
		if err := app.Run(addr); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")
	return nil
}

func runPurge(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	return jobs.NewExpiredSharePurgeJob(st, cfg.Share.TTL, log).Run(ctx)
}
