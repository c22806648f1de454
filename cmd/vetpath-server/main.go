package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vetpath/vetpath/internal/config"
	"github.com/vetpath/vetpath/internal/domain/disease"
	"github.com/vetpath/vetpath/internal/domain/editor"
	"github.com/vetpath/vetpath/internal/domain/exchange"
	"github.com/vetpath/vetpath/internal/domain/prefs"
	"github.com/vetpath/vetpath/internal/domain/species"
	"github.com/vetpath/vetpath/internal/platform/ai"
	"github.com/vetpath/vetpath/internal/platform/auth"
	"github.com/vetpath/vetpath/internal/platform/blobstore"
	"github.com/vetpath/vetpath/internal/platform/db"
	"github.com/vetpath/vetpath/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vetpath-server",
		Short: "Veterinary disease registry API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the registry API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the administrator account",
	}

	newAuthService := func(ctx context.Context) (*auth.Service, *pgxpool.Pool, error) {
		cfg, pool, err := openPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		svc := auth.NewService(auth.NewRepoPG(pool), []byte(cfg.SessionSecret),
			time.Duration(cfg.SessionTTL)*time.Hour, zerolog.Nop())
		return svc, pool, nil
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create the administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			ctx := context.Background()
			svc, pool, err := newAuthService(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			admin, err := svc.CreateAdmin(ctx, username, password)
			if err != nil {
				return err
			}
			fmt.Printf("Created admin %s (%s)\n", admin.Username, admin.ID)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Administrator username")
	cmd.AddCommand(createCmd)

	setPassCmd := &cobra.Command{
		Use:   "set-password",
		Short: "Reset the administrator password",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			password, err := readPassword("New password: ")
			if err != nil {
				return err
			}

			ctx := context.Background()
			svc, pool, err := newAuthService(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := svc.SetAdminPassword(ctx, username, password); err != nil {
				return err
			}
			fmt.Println("Password updated.")
			return nil
		},
	}
	setPassCmd.Flags().String("username", "", "Administrator username")
	cmd.AddCommand(setPassCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit("1M", "8M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// Services
	diseaseRepo := disease.NewRepoPG(pool)
	diseaseSvc := disease.NewService(diseaseRepo)
	speciesSvc := species.NewService(species.NewRepoPG(pool))
	authSvc := auth.NewService(auth.NewRepoPG(pool), []byte(cfg.SessionSecret),
		time.Duration(cfg.SessionTTL)*time.Hour, logger)

	aiClient := ai.NewClient(ai.Config{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
	})

	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.RunInTx(ctx, pool, fn)
	}
	exchangeSvc := exchange.NewService(diseaseRepo, inTx, logger)

	editorMgr := editor.NewManager(editor.NewDraftRepoPG(pool), diseaseSvc, logger)
	researcher := editor.NewResearcher(aiClient, logger)

	blobs := blobstore.NewInMemoryStore(cfg.MaxUploadBytes, cfg.PublicBaseURL)
	prefsSvc := prefs.NewService(prefs.NewRepoPG(pool))

	// Route groups: the visitor catalog is public, everything that
	// mutates content sits behind the admin session.
	public := e.Group("")
	public.Use(middleware.RateLimit(rateLimitCfg))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(auth.RequireSession(authSvc))

	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimit(rateLimitCfg))

	e.GET("/health", db.HealthHandler(pool))

	auth.NewHandler(authSvc).RegisterRoutes(authGroup)
	disease.NewHandler(diseaseSvc).RegisterRoutes(public, apiV1)
	species.NewHandler(speciesSvc).RegisterRoutes(public, apiV1)
	exchange.NewHandler(exchangeSvc).RegisterRoutes(apiV1)
	editor.NewHandler(editorMgr, speciesSvc, researcher).RegisterRoutes(apiV1)
	blobstore.NewHandler(blobs).RegisterRoutes(public, apiV1)
	prefs.NewHandler(prefsSvc).RegisterRoutes(apiV1)
	ai.NewHandler(aiClient).RegisterRoutes(apiV1)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}
